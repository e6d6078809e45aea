package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitewarden-dev/sitewarden/db"
	"github.com/sitewarden-dev/sitewarden/internal/models"
	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
	"gorm.io/gorm"
)

type CreateCheckRequest struct {
	TenantID        string         `json:"tenant_id" binding:"required"`
	CheckType       string         `json:"check_type" binding:"required"`
	Target          string         `json:"target" binding:"required"`
	IntervalMinutes int            `json:"interval_minutes" binding:"required"`
	Config          map[string]any `json:"config"`
}

type UpdateCheckRequest struct {
	Target          string         `json:"target" binding:"required"`
	IntervalMinutes int            `json:"interval_minutes" binding:"required"`
	Enabled         *bool          `json:"enabled"`
	Config          map[string]any `json:"config"`
}

// CreateCheck registers a new probe for a tenant's site. Unknown check
// types and malformed tenant ids are rejected at the boundary.
func CreateCheck(ctx *gin.Context) {
	var req CreateCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := uuid.Parse(req.TenantID); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant_id"})
		return
	}

	if !types.ValidCheckType(req.CheckType) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown check type: " + req.CheckType})
		return
	}

	if _, err := utils.NormalizeTarget(req.Target); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target: " + err.Error()})
		return
	}

	configJSON, err := marshalConfig(req.Config)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid config format"})
		return
	}

	check := models.MonitorCheck{
		TenantID:        req.TenantID,
		CheckType:       req.CheckType,
		Target:          req.Target,
		IntervalMinutes: req.IntervalMinutes,
		Enabled:         true,
		Config:          configJSON,
	}

	if err := db.DB.Create(&check).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create check"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Check created successfully", "check_id": check.ID})
}

// ListChecks returns a tenant's configured checks.
func ListChecks(ctx *gin.Context) {
	tenantID, err := utils.UUIDQuery(ctx, "tenant_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if tenantID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
		return
	}

	var checks []models.MonitorCheck
	if err := db.DB.Where("tenant_id = ?", tenantID).Order("created_at ASC").Find(&checks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve checks"})
		return
	}

	ctx.JSON(http.StatusOK, checks)
}

// UpdateCheck mutates a check's target, interval, enabled flag and config.
func UpdateCheck(ctx *gin.Context) {
	checkID, err := utils.UUIDParam(ctx, "check_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req UpdateCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var check models.MonitorCheck
	if err := db.DB.First(&check, "id = ?", checkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Check not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve check"})
		}
		return
	}

	configJSON, err := marshalConfig(req.Config)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid config format"})
		return
	}

	check.Target = req.Target
	check.IntervalMinutes = req.IntervalMinutes
	if req.Enabled != nil {
		check.Enabled = *req.Enabled
	}
	if req.Config != nil {
		check.Config = configJSON
	}

	if err := db.DB.Save(&check).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update check"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Check updated successfully", "check_id": check.ID})
}

// DeleteCheck removes a check and its results/alerts.
func DeleteCheck(ctx *gin.Context) {
	checkID, err := utils.UUIDParam(ctx, "check_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var check models.MonitorCheck
	if err := db.DB.First(&check, "id = ?", checkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Check not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve check"})
		}
		return
	}

	if err := db.DB.Delete(&check).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete check"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetCheckResults returns a check's recent results, newest first.
func GetCheckResults(ctx *gin.Context) {
	checkID, err := utils.UUIDParam(ctx, "check_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var check models.MonitorCheck
	if err := db.DB.First(&check, "id = ?", checkID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Check not found"})
		return
	}

	var results []models.MonitorResult
	if err := db.DB.Where("check_id = ?", checkID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get results"})
		return
	}

	ctx.JSON(http.StatusOK, results)
}

// RunCheck force-runs one check immediately.
func RunCheck(ctx *gin.Context) {
	checkID, err := utils.UUIDParam(ctx, "check_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := checkRunner.RunCheck(ctx.Request.Context(), checkID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Check not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run check"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Check executed", "check_id": checkID})
}

// RunTenantChecks force-runs all of a tenant's enabled checks.
func RunTenantChecks(ctx *gin.Context) {
	tenantID, err := utils.UUIDParam(ctx, "tenant_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	executed, err := checkRunner.RunTenant(ctx.Request.Context(), tenantID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run tenant checks"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Checks executed", "executed": executed})
}

func marshalConfig(config map[string]any) ([]byte, error) {
	if config == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(config)
}
