package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sitewarden-dev/sitewarden/internal/alerts"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
	"gorm.io/gorm"
)

type AcknowledgeAlertRequest struct {
	By string `json:"by" binding:"required"`
}

type ResolveAlertRequest struct {
	By   string `json:"by" binding:"required"`
	Note string `json:"note"`
}

// ListAlerts returns a tenant's alerts, optionally filtered by resolved
// state via ?resolved=true|false.
func ListAlerts(ctx *gin.Context) {
	tenantID, err := utils.UUIDQuery(ctx, "tenant_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if tenantID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
		return
	}

	var resolved *bool
	if raw := ctx.Query("resolved"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resolved filter"})
			return
		}
		resolved = &value
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	list, err := alertService.List(ctx.Request.Context(), tenantID, resolved, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}

	ctx.JSON(http.StatusOK, list)
}

// AcknowledgeAlert marks an alert as seen by an operator. Idempotent.
func AcknowledgeAlert(ctx *gin.Context) {
	alertID, err := utils.UUIDParam(ctx, "alert_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req AcknowledgeAlertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := alertService.Acknowledge(ctx.Request.Context(), alertID, req.By)
	if err != nil {
		respondAlertError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, alert)
}

// ResolveAlert closes an alert manually.
func ResolveAlert(ctx *gin.Context) {
	alertID, err := utils.UUIDParam(ctx, "alert_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req ResolveAlertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := alertService.Resolve(ctx.Request.Context(), alertID, req.By, req.Note)
	if err != nil {
		respondAlertError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, alert)
}

// AlertInbox returns the priority-inbox partitioning of a tenant's alerts.
func AlertInbox(ctx *gin.Context) {
	tenantID, err := utils.UUIDQuery(ctx, "tenant_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if tenantID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
		return
	}

	inbox, err := alertService.BuildInbox(ctx.Request.Context(), tenantID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build inbox"})
		return
	}

	ctx.JSON(http.StatusOK, inbox)
}

func respondAlertError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
	case errors.Is(err, alerts.ErrAlreadyResolved):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Alert already resolved"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alert"})
	}
}
