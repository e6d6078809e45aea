package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/alerts"
	"github.com/sitewarden-dev/sitewarden/internal/checks"
	"github.com/sitewarden-dev/sitewarden/internal/models"
	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultParallelism  = 8
	defaultTickInterval = 30 * time.Second
)

// Scheduler drives the monitoring engine: every tick it selects enabled
// checks whose interval has elapsed, runs the matching probe, persists the
// result and feeds the alert lifecycle. Checks run concurrently with each
// other; each check's unit of work is sequential.
type Scheduler struct {
	db           *gorm.DB
	registry     *checks.Registry
	alerts       *alerts.Service
	parallelism  int
	tickInterval time.Duration
	now          func() time.Time
}

type Option func(*Scheduler)

func WithParallelism(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func New(db *gorm.DB, registry *checks.Registry, alertSvc *alerts.Service, opts ...Option) *Scheduler {
	s := &Scheduler{
		db:           db,
		registry:     registry,
		alerts:       alertSvc,
		parallelism:  defaultParallelism,
		tickInterval: defaultTickInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("scheduler started",
		logger.Int("parallelism", s.parallelism),
		logger.String("tick_interval", s.tickInterval.String()))

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx, s.now()); err != nil {
				logger.Error("scheduler tick failed", logger.Err(err))
			}
		}
	}
}

// Tick executes every enabled check that is due at now. One check failing
// never aborts the tick for the rest.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	var enabled []models.MonitorCheck
	if err := s.db.WithContext(ctx).Where("enabled = ?", true).Find(&enabled).Error; err != nil {
		return fmt.Errorf("failed to load enabled checks: %w", err)
	}

	due := make([]models.MonitorCheck, 0, len(enabled))
	for _, check := range enabled {
		if isDue(check, now) {
			due = append(due, check)
		}
	}
	if len(due) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i := range due {
		check := due[i]
		g.Go(func() error {
			s.executeCheck(gctx, check, now)
			return nil
		})
	}
	return g.Wait()
}

// RunCheck force-runs one check immediately, regardless of its interval.
func (s *Scheduler) RunCheck(ctx context.Context, checkID string) error {
	var check models.MonitorCheck
	if err := s.db.WithContext(ctx).First(&check, "id = ?", checkID).Error; err != nil {
		return err
	}
	s.executeCheck(ctx, check, s.now())
	return nil
}

// RunTenant force-runs all of a tenant's enabled checks and reports how
// many were executed.
func (s *Scheduler) RunTenant(ctx context.Context, tenantID string) (int, error) {
	var tenantChecks []models.MonitorCheck
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND enabled = ?", tenantID, true).
		Find(&tenantChecks).Error; err != nil {
		return 0, err
	}

	now := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i := range tenantChecks {
		check := tenantChecks[i]
		g.Go(func() error {
			s.executeCheck(gctx, check, now)
			return nil
		})
	}
	return len(tenantChecks), g.Wait()
}

func isDue(check models.MonitorCheck, now time.Time) bool {
	if check.LastCheckedAt == nil {
		return true
	}
	interval := time.Duration(check.IntervalMinutes) * time.Minute
	return now.Sub(*check.LastCheckedAt) >= interval
}

// executeCheck is one sequential unit of work: decode config, run the
// probe, append the result, update the check's rolling state and evaluate
// the alert lifecycle.
func (s *Scheduler) executeCheck(ctx context.Context, check models.MonitorCheck, now time.Time) {
	outcome := s.runProbe(ctx, check)

	if err := s.storeOutcome(ctx, &check, outcome, now); err != nil {
		logger.Error("failed to store check result",
			logger.String("check_id", check.ID),
			logger.Err(err))
		return
	}

	if outcome.Status != types.StatusOK {
		logger.Warn("check failed",
			logger.String("check_id", check.ID),
			logger.String("check_type", check.CheckType),
			logger.String("target", check.Target),
			logger.String("status", outcome.Status),
			logger.String("error", outcome.Error))
	}
}

// runProbe dispatches to the runner and converts any panic into a critical
// outcome so a misbehaving probe cannot take the tick down.
func (s *Scheduler) runProbe(ctx context.Context, check models.MonitorCheck) (outcome checks.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = checks.Outcome{
				Status:  types.StatusCritical,
				Details: map[string]any{},
				Error:   fmt.Sprintf("runner panic: %v", r),
			}
		}
	}()

	cfg, err := types.DecodeCheckConfig(check.Config)
	if err != nil {
		return checks.Outcome{
			Status:  types.StatusCritical,
			Details: map[string]any{},
			Error:   fmt.Sprintf("invalid check config: %v", err),
		}
	}

	runner, ok := s.registry.Runner(check.CheckType)
	if !ok {
		return checks.Outcome{
			Status:  types.StatusCritical,
			Details: map[string]any{},
			Error:   fmt.Sprintf("unsupported check type: %s", check.CheckType),
		}
	}

	return runner.Run(ctx, check.Target, cfg)
}

// storeOutcome commits the result row, the check's rolling state and the
// alert transition in one transaction.
func (s *Scheduler) storeOutcome(ctx context.Context, check *models.MonitorCheck, outcome checks.Outcome, now time.Time) error {
	details, err := json.Marshal(outcome.Details)
	if err != nil {
		details = []byte("{}")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := models.MonitorResult{
			CheckID:    check.ID,
			TenantID:   check.TenantID,
			Status:     outcome.Status,
			ResponseMs: outcome.ResponseMs,
			Details:    datatypes.JSON(details),
			Error:      outcome.Error,
		}
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("failed to append result: %w", err)
		}

		if outcome.Status == types.StatusOK {
			check.ConsecutiveFailures = 0
		} else {
			check.ConsecutiveFailures++
		}
		check.LastStatus = outcome.Status
		check.LastCheckedAt = &now
		check.LastResponseMs = outcome.ResponseMs

		updates := map[string]any{
			"last_status":          check.LastStatus,
			"last_checked_at":      now,
			"last_response_ms":     check.LastResponseMs,
			"consecutive_failures": check.ConsecutiveFailures,
		}

		if check.CheckType == types.CheckContentChange {
			if raw, ok := rebaselineConfig(check.Config, outcome); ok {
				check.Config = raw
				updates["config"] = raw
			}
		}

		if err := tx.Model(&models.MonitorCheck{}).
			Where("id = ?", check.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update check state: %w", err)
		}

		return s.alerts.ProcessResult(tx, check, outcome.Status, now)
	})
}

// rebaselineConfig writes the newly observed content hash back into the
// check config so the next run compares against it.
func rebaselineConfig(raw datatypes.JSON, outcome checks.Outcome) (datatypes.JSON, bool) {
	hash, ok := outcome.Details["content_hash"].(string)
	if !ok || hash == "" {
		return nil, false
	}

	cfg, err := types.DecodeCheckConfig(raw)
	if err != nil || cfg.ContentHash == hash {
		return nil, false
	}

	cfg.ContentHash = hash
	out, err := json.Marshal(cfg)
	if err != nil {
		return nil, false
	}
	return datatypes.JSON(out), true
}
