package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/models"
	"github.com/sitewarden-dev/sitewarden/internal/types"
	"gorm.io/gorm"
)

// DefaultFailureThreshold is the consecutive-failure count at which an
// alert opens.
const DefaultFailureThreshold = 3

// ErrAlreadyResolved is returned when acknowledging or resolving an alert
// that is already closed.
var ErrAlreadyResolved = errors.New("alert already resolved")

// Event is the outbound notification emitted on lifecycle transitions.
// Notification-channel concerns stay outside the lifecycle.
type Event struct {
	Type  string // "created" or "resolved"
	Alert models.Alert
}

const (
	EventCreated  = "created"
	EventResolved = "resolved"
)

type Notifier interface {
	Notify(Event)
}

type Service struct {
	db        *gorm.DB
	threshold int
	notifier  Notifier
	now       func() time.Time
}

type Option func(*Service)

func WithThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threshold = n
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		threshold: DefaultFailureThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessResult applies one check result to the alert state machine. It
// runs inside the caller's transaction so the result row, the check update
// and the alert transition commit as one unit.
func (s *Service) ProcessResult(tx *gorm.DB, check *models.MonitorCheck, status string, now time.Time) error {
	if status == types.StatusOK {
		return s.autoResolve(tx, check, now)
	}
	if check.ConsecutiveFailures < s.threshold {
		return nil
	}
	return s.recordFailure(tx, check, status, now)
}

// recordFailure opens an alert on the first threshold crossing and bumps
// occurrence_count/last_seen_at on every subsequent one. One open alert
// per check, never duplicates.
func (s *Service) recordFailure(tx *gorm.DB, check *models.MonitorCheck, status string, now time.Time) error {
	var open models.Alert
	err := tx.Where("check_id = ? AND resolved = ?", check.ID, false).First(&open).Error

	if err == nil {
		updates := map[string]any{
			"occurrence_count": gorm.Expr("occurrence_count + 1"),
			"last_seen_at":     now,
		}
		if err := tx.Model(&open).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update open alert: %w", err)
		}
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up open alert: %w", err)
	}

	severity := types.SeverityWarning
	if status == types.StatusCritical {
		severity = types.SeverityCritical
	}

	alert := models.Alert{
		TenantID: check.TenantID,
		CheckID:  check.ID,
		Severity: severity,
		Title:    fmt.Sprintf("%s check failing for %s", check.CheckType, check.Target),
		Message: fmt.Sprintf("%d consecutive %s results for %s check on %s",
			check.ConsecutiveFailures, status, check.CheckType, check.Target),
		OccurrenceCount: 1,
		LastSeenAt:      now,
	}

	if err := tx.Create(&alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	s.emit(Event{Type: EventCreated, Alert: alert})
	return nil
}

// autoResolve closes the open alert, if any, after a recovering result.
func (s *Service) autoResolve(tx *gorm.DB, check *models.MonitorCheck, now time.Time) error {
	var open models.Alert
	err := tx.Where("check_id = ? AND resolved = ?", check.ID, false).First(&open).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up open alert: %w", err)
	}

	updates := map[string]any{
		"resolved":    true,
		"resolved_at": now,
		"resolved_by": types.ResolvedByAutoRecovery,
	}
	if err := tx.Model(&open).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to auto-resolve alert: %w", err)
	}

	open.Resolved = true
	open.ResolvedAt = &now
	open.ResolvedBy = types.ResolvedByAutoRecovery
	s.emit(Event{Type: EventResolved, Alert: open})
	return nil
}

// Acknowledge marks an alert as seen. Acknowledging an already-acknowledged
// alert is a no-op, not an error.
func (s *Service) Acknowledge(ctx context.Context, alertID, by string) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.WithContext(ctx).First(&alert, "id = ?", alertID).Error; err != nil {
		return nil, err
	}
	if alert.Resolved {
		return nil, ErrAlreadyResolved
	}
	if alert.Acknowledged {
		return &alert, nil
	}

	updates := map[string]any{"acknowledged": true, "acknowledged_by": by}
	if err := s.db.WithContext(ctx).Model(&alert).Updates(updates).Error; err != nil {
		return nil, err
	}
	alert.Acknowledged = true
	alert.AcknowledgedBy = by
	return &alert, nil
}

// Resolve closes an alert manually. Legal from any non-resolved state;
// acknowledgement is not a prerequisite.
func (s *Service) Resolve(ctx context.Context, alertID, by, note string) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.WithContext(ctx).First(&alert, "id = ?", alertID).Error; err != nil {
		return nil, err
	}
	if alert.Resolved {
		return nil, ErrAlreadyResolved
	}

	now := s.now()
	updates := map[string]any{
		"resolved":        true,
		"resolved_at":     now,
		"resolved_by":     by,
		"resolution_note": note,
	}
	if err := s.db.WithContext(ctx).Model(&alert).Updates(updates).Error; err != nil {
		return nil, err
	}

	alert.Resolved = true
	alert.ResolvedAt = &now
	alert.ResolvedBy = by
	alert.ResolutionNote = note
	s.emit(Event{Type: EventResolved, Alert: alert})
	return &alert, nil
}

// List returns a tenant's alerts, optionally filtered by resolved state,
// newest first.
func (s *Service) List(ctx context.Context, tenantID string, resolved *bool, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if resolved != nil {
		query = query.Where("resolved = ?", *resolved)
	}

	var alerts []models.Alert
	if err := query.Order("created_at DESC").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *Service) emit(ev Event) {
	if s.notifier != nil {
		s.notifier.Notify(ev)
	}
}
