package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/models"
	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrUnknownCommandType rejects enqueue requests for types no agent
	// understands.
	ErrUnknownCommandType = errors.New("unknown command type")

	// ErrNotFound signals a command id that does not exist (never created
	// or already cleaned up).
	ErrNotFound = errors.New("command not found")
)

// Service is the durable command ledger. Correctness under concurrent
// claimants rests on the conditional UPDATE in claimOne, not on any
// in-process lock.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

type Option func(*Service)

func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type EnqueueInput struct {
	TenantID    string
	CommandType string
	Payload     json.RawMessage
	Priority    int
	ScheduledAt *time.Time
	DedupWindow time.Duration
}

// Enqueue inserts a new pending command, unless a pending/processing
// command of the same (tenant, type) was created within the dedup window —
// then the existing command is returned unchanged and no row is written.
func (s *Service) Enqueue(ctx context.Context, in EnqueueInput) (*models.Command, bool, error) {
	if !types.ValidCommandType(in.CommandType) {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownCommandType, in.CommandType)
	}

	now := s.now()

	if in.DedupWindow > 0 {
		var existing models.Command
		err := s.db.WithContext(ctx).
			Where("tenant_id = ? AND command_type = ? AND status IN ? AND created_at >= ?",
				in.TenantID, in.CommandType,
				[]string{types.CommandPending, types.CommandProcessing},
				now.Add(-in.DedupWindow)).
			Order("created_at DESC").
			First(&existing).Error
		if err == nil {
			return &existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("dedup lookup failed: %w", err)
		}
	}

	scheduledAt := now
	if in.ScheduledAt != nil {
		scheduledAt = *in.ScheduledAt
	}

	payload := in.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	cmd := models.Command{
		TenantID:    in.TenantID,
		CommandType: in.CommandType,
		Payload:     datatypes.JSON(payload),
		Priority:    in.Priority,
		Status:      types.CommandPending,
		ScheduledAt: scheduledAt,
	}

	if err := s.db.WithContext(ctx).Create(&cmd).Error; err != nil {
		return nil, false, fmt.Errorf("failed to enqueue command: %w", err)
	}
	return &cmd, true, nil
}

// Claim transitions up to limit due pending commands to processing,
// ordered by (priority, scheduled_at, created_at). Each row is claimed
// with a conditional update so two racing callers can never both win it;
// the loser simply does not receive the row.
func (s *Service) Claim(ctx context.Context, limit int, tenantID string) ([]models.Command, error) {
	if limit <= 0 {
		limit = 10
	}

	now := s.now()

	query := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", types.CommandPending, now)
	if tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}

	var candidates []models.Command
	if err := query.
		Order("priority ASC, scheduled_at ASC, created_at ASC").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to select pending commands: %w", err)
	}

	claimed := make([]models.Command, 0, len(candidates))
	for i := range candidates {
		ok, err := s.claimOne(ctx, &candidates[i])
		if err != nil {
			return nil, err
		}
		if ok {
			claimed = append(claimed, candidates[i])
		}
	}
	return claimed, nil
}

func (s *Service) claimOne(ctx context.Context, cmd *models.Command) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Command{}).
		Where("id = ? AND status = ?", cmd.ID, types.CommandPending).
		Update("status", types.CommandProcessing)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim command %s: %w", cmd.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race to another claimant.
		return false, nil
	}
	cmd.Status = types.CommandProcessing
	return true, nil
}

// Complete finishes a pending/processing command. A late or duplicate
// report for an already-terminal command is a benign no-op.
func (s *Service) Complete(ctx context.Context, commandID string, result json.RawMessage, success bool, errMsg string) error {
	status := types.CommandCompleted
	if !success {
		status = types.CommandFailed
	}

	now := s.now()
	updates := map[string]any{
		"status":        status,
		"executed_at":   now,
		"error_message": errMsg,
	}
	if len(result) > 0 {
		updates["result"] = datatypes.JSON(result)
	}

	res := s.db.WithContext(ctx).
		Model(&models.Command{}).
		Where("id = ? AND status IN ?", commandID,
			[]string{types.CommandPending, types.CommandProcessing}).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to complete command %s: %w", commandID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Command{}).
		Where("id = ?", commandID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	// Already terminal; duplicate reports from flaky agents are expected.
	return nil
}

// RetryFailed resets failed commands below the retry ceiling back to
// pending with exponential backoff. Commands at the ceiling stay failed
// for operator visibility. Returns how many commands were rescheduled.
func (s *Service) RetryFailed(ctx context.Context, maxRetries int, backoffMultiplier float64, baseDelay time.Duration) (int, error) {
	if backoffMultiplier <= 0 {
		backoffMultiplier = 2
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}

	var failed []models.Command
	if err := s.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", types.CommandFailed, maxRetries).
		Find(&failed).Error; err != nil {
		return 0, fmt.Errorf("failed to select retry candidates: %w", err)
	}

	now := s.now()
	retried := 0
	for _, cmd := range failed {
		newCount := cmd.RetryCount + 1
		delay := time.Duration(float64(baseDelay) * math.Pow(backoffMultiplier, float64(newCount)))

		res := s.db.WithContext(ctx).
			Model(&models.Command{}).
			Where("id = ? AND status = ?", cmd.ID, types.CommandFailed).
			Updates(map[string]any{
				"status":        types.CommandPending,
				"retry_count":   newCount,
				"scheduled_at":  now.Add(delay),
				"error_message": "",
			})
		if res.Error != nil {
			return retried, fmt.Errorf("failed to retry command %s: %w", cmd.ID, res.Error)
		}
		if res.RowsAffected > 0 {
			retried++
			logger.Info("command rescheduled",
				logger.String("command_id", cmd.ID),
				logger.Int("retry_count", newCount),
				logger.String("delay", delay.String()))
		}
	}
	return retried, nil
}

// Cleanup hard-deletes terminal commands older than the retention window.
// Pending and processing rows are never touched.
func (s *Service) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := s.now().AddDate(0, 0, -days)

	res := s.db.WithContext(ctx).
		Where("status IN ? AND COALESCE(executed_at, created_at) < ?",
			[]string{types.CommandCompleted, types.CommandFailed}, cutoff).
		Delete(&models.Command{})
	if res.Error != nil {
		return 0, fmt.Errorf("cleanup failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Pending lists queued commands for operators, optionally tenant-scoped.
func (s *Service) Pending(ctx context.Context, tenantID string, limit int) ([]models.Command, error) {
	if limit <= 0 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Where("status = ?", types.CommandPending)
	if tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}

	var commands []models.Command
	if err := query.
		Order("priority ASC, scheduled_at ASC, created_at ASC").
		Limit(limit).
		Find(&commands).Error; err != nil {
		return nil, err
	}
	return commands, nil
}

type Stats struct {
	ByStatus         map[string]int64 `json:"by_status"`
	ByCommandType    map[string]int64 `json:"by_command_type"`
	OldestPendingAge float64          `json:"oldest_pending_age_seconds"`
}

// QueueStats aggregates counts by status and by command type, plus the age
// of the oldest pending command.
func (s *Service) QueueStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus:      map[string]int64{},
		ByCommandType: map[string]int64{},
	}

	type countRow struct {
		Key   string
		Count int64
	}

	var byStatus []countRow
	if err := s.db.WithContext(ctx).Model(&models.Command{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Key] = row.Count
	}

	var byType []countRow
	if err := s.db.WithContext(ctx).Model(&models.Command{}).
		Select("command_type AS key, COUNT(*) AS count").
		Group("command_type").
		Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, row := range byType {
		stats.ByCommandType[row.Key] = row.Count
	}

	var oldest models.Command
	err := s.db.WithContext(ctx).
		Where("status = ?", types.CommandPending).
		Order("created_at ASC").
		First(&oldest).Error
	if err == nil {
		stats.OldestPendingAge = s.now().Sub(oldest.CreatedAt).Seconds()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return stats, nil
}
