package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitewarden-dev/sitewarden/internal/queue"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

type EnqueueCommandRequest struct {
	TenantID            string          `json:"tenant_id" binding:"required"`
	CommandType         string          `json:"command_type" binding:"required"`
	Payload             json.RawMessage `json:"payload"`
	Priority            *int            `json:"priority"`
	ScheduledAt         *time.Time      `json:"scheduled_at"`
	DeduplicationWindow *int            `json:"deduplication_window"` // seconds
}

type BulkEnqueueRequest struct {
	Commands []EnqueueCommandRequest `json:"commands" binding:"required"`
}

type RetryFailedRequest struct {
	MaxRetries        int     `json:"max_retries" binding:"required"`
	BackoffMultiplier float64 `json:"backoff_multiplier" binding:"required"`
	BaseDelaySeconds  int     `json:"base_delay" binding:"required"`
}

type CleanupRequest struct {
	Days int `json:"days" binding:"required"`
}

// EnqueueCommand queues one work order. Within the dedup window, a repeat
// (tenant, type) request returns the existing command id instead of
// creating a duplicate.
func EnqueueCommand(ctx *gin.Context) {
	var req EnqueueCommandRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	commandID, created, err := enqueueOne(ctx, req)
	if err != nil {
		if errors.Is(err, queue.ErrUnknownCommandType) || errors.Is(err, errInvalidTenantID) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue command"})
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, gin.H{"command_id": commandID, "created": created})
}

// EnqueueCommandsBulk queues a batch of work orders, applying the same
// per-command dedup rules.
func EnqueueCommandsBulk(ctx *gin.Context) {
	var req BulkEnqueueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]gin.H, 0, len(req.Commands))
	for _, item := range req.Commands {
		commandID, created, err := enqueueOne(ctx, item)
		if err != nil {
			results = append(results, gin.H{"error": err.Error()})
			continue
		}
		results = append(results, gin.H{"command_id": commandID, "created": created})
	}

	ctx.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

var errInvalidTenantID = errors.New("invalid tenant_id")

func enqueueOne(ctx *gin.Context, req EnqueueCommandRequest) (string, bool, error) {
	if _, parseErr := uuid.Parse(req.TenantID); parseErr != nil {
		return "", false, errInvalidTenantID
	}

	priority := 5
	if req.Priority != nil {
		priority = *req.Priority
	}

	dedupWindow := defaultDedupWindow
	if req.DeduplicationWindow != nil {
		dedupWindow = time.Duration(*req.DeduplicationWindow) * time.Second
	}

	queued, created, err := commandQueue.Enqueue(ctx.Request.Context(), queue.EnqueueInput{
		TenantID:    req.TenantID,
		CommandType: req.CommandType,
		Payload:     req.Payload,
		Priority:    priority,
		ScheduledAt: req.ScheduledAt,
		DedupWindow: dedupWindow,
	})
	if err != nil {
		return "", false, err
	}
	return queued.ID, created, nil
}

// PendingCommands lists queued commands for operators.
func PendingCommands(ctx *gin.Context) {
	tenantID, err := utils.UUIDQuery(ctx, "tenant_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	commands, err := commandQueue.Pending(ctx.Request.Context(), tenantID, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending commands"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"commands": commands, "count": len(commands)})
}

// RetryFailedCommands reschedules failed commands below the retry ceiling
// with exponential backoff.
func RetryFailedCommands(ctx *gin.Context) {
	var req RetryFailedRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	retried, err := commandQueue.RetryFailed(ctx.Request.Context(),
		req.MaxRetries, req.BackoffMultiplier,
		time.Duration(req.BaseDelaySeconds)*time.Second)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry commands"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"retried": retried})
}

// CleanupCommands purges terminal commands past the retention window.
func CleanupCommands(ctx *gin.Context) {
	var req CleanupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := commandQueue.Cleanup(ctx.Request.Context(), req.Days)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Cleanup failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// CommandStats aggregates queue counts for the operator dashboard.
func CommandStats(ctx *gin.Context) {
	stats, err := commandQueue.QueueStats(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
