package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sitewarden-dev/sitewarden/internal/models"
	"github.com/sitewarden-dev/sitewarden/internal/queue"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

const maxPollLimit = 50

type PolledCommand struct {
	ID          string          `json:"id"`
	CommandType string          `json:"command_type"`
	Payload     json.RawMessage `json:"payload"`
	Priority    int             `json:"priority"`
	ScheduledAt string          `json:"scheduled_at"`
}

type ReportResultRequest struct {
	Result       json.RawMessage `json:"result"`
	Success      *bool           `json:"success" binding:"required"`
	ErrorMessage string          `json:"error_message"`
}

// PollCommands is the agent's only way to receive work: it fetches and
// claims due commands for its tenant. Returned commands are already in
// processing state; the agent must eventually report a result.
func PollCommands(ctx *gin.Context) {
	tenantID, err := utils.UUIDParam(ctx, "tenant_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > maxPollLimit {
		limit = maxPollLimit
	}

	claimed, err := commandQueue.Claim(ctx.Request.Context(), limit, tenantID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim commands"})
		return
	}

	commands := make([]PolledCommand, 0, len(claimed))
	for _, cmd := range claimed {
		commands = append(commands, toPolledCommand(cmd))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"commands": commands,
		"count":    len(commands),
	})
}

// ReportCommandResult records the agent's outcome for a claimed command.
// An unknown id yields 404, which agents treat as a benign no-op; late or
// duplicate reports for terminal commands succeed silently.
func ReportCommandResult(ctx *gin.Context) {
	commandID, err := utils.UUIDParam(ctx, "command_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req ReportResultRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = commandQueue.Complete(ctx.Request.Context(), commandID, req.Result, *req.Success, req.ErrorMessage)
	if errors.Is(err, queue.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Command not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record result"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "reported"})
}

func toPolledCommand(cmd models.Command) PolledCommand {
	return PolledCommand{
		ID:          cmd.ID,
		CommandType: cmd.CommandType,
		Payload:     json.RawMessage(cmd.Payload),
		Priority:    cmd.Priority,
		ScheduledAt: cmd.ScheduledAt.UTC().Format(time.RFC3339),
	}
}
