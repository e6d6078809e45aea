package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitewarden-dev/sitewarden/internal/models"
	"github.com/sitewarden-dev/sitewarden/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.MonitorCheck{}, &models.MonitorResult{}, &models.Alert{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newCheck(t *testing.T, db *gorm.DB, tenantID, checkType string) *models.MonitorCheck {
	t.Helper()

	check := models.MonitorCheck{
		TenantID:        tenantID,
		CheckType:       checkType,
		Target:          "example.com",
		IntervalMinutes: 5,
		Enabled:         true,
	}
	if err := db.Create(&check).Error; err != nil {
		t.Fatal(err)
	}
	return &check
}

type captureNotifier struct {
	events []Event
}

func (c *captureNotifier) Notify(ev Event) {
	c.events = append(c.events, ev)
}

func TestProcessResultHysteresis(t *testing.T) {
	db := newTestDB(t)
	notifier := &captureNotifier{}
	svc := NewService(db, WithNotifier(notifier))
	check := newCheck(t, db, uuid.NewString(), types.CheckUptime)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Failures below the threshold stay silent.
	for failures := 1; failures <= 5; failures++ {
		check.ConsecutiveFailures = failures
		if err := svc.ProcessResult(db, check, types.StatusCritical, now); err != nil {
			t.Fatal(err)
		}
	}

	var alerts []models.Alert
	if err := db.Find(&alerts).Error; err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want exactly 1", len(alerts))
	}

	alert := alerts[0]
	if alert.Severity != types.SeverityCritical {
		t.Errorf("severity = %s, want critical", alert.Severity)
	}
	// Failures 3, 4 and 5 each crossed the threshold.
	if alert.OccurrenceCount != 3 {
		t.Errorf("occurrence_count = %d, want 3", alert.OccurrenceCount)
	}
	if alert.Resolved {
		t.Error("alert must stay open while failures continue")
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != EventCreated {
		t.Errorf("events = %v, want one created event", notifier.events)
	}
}

func TestProcessResultWarningSeverity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	check := newCheck(t, db, uuid.NewString(), types.CheckSecurityHeaders)
	now := time.Now()

	check.ConsecutiveFailures = 3
	if err := svc.ProcessResult(db, check, types.StatusWarning, now); err != nil {
		t.Fatal(err)
	}

	var alert models.Alert
	if err := db.First(&alert).Error; err != nil {
		t.Fatal(err)
	}
	if alert.Severity != types.SeverityWarning {
		t.Errorf("severity = %s, want warning", alert.Severity)
	}
}

func TestProcessResultAutoResolve(t *testing.T) {
	db := newTestDB(t)
	notifier := &captureNotifier{}
	svc := NewService(db, WithNotifier(notifier))
	check := newCheck(t, db, uuid.NewString(), types.CheckUptime)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	check.ConsecutiveFailures = 3
	if err := svc.ProcessResult(db, check, types.StatusCritical, now); err != nil {
		t.Fatal(err)
	}

	// Recovery closes the open alert.
	check.ConsecutiveFailures = 0
	if err := svc.ProcessResult(db, check, types.StatusOK, now.Add(5*time.Minute)); err != nil {
		t.Fatal(err)
	}

	var alert models.Alert
	if err := db.First(&alert).Error; err != nil {
		t.Fatal(err)
	}
	if !alert.Resolved {
		t.Fatal("alert not resolved after recovery")
	}
	if alert.ResolvedBy != types.ResolvedByAutoRecovery {
		t.Errorf("resolved_by = %s, want %s", alert.ResolvedBy, types.ResolvedByAutoRecovery)
	}
	if alert.ResolvedAt == nil {
		t.Error("resolved_at not set")
	}

	if len(notifier.events) != 2 || notifier.events[1].Type != EventResolved {
		t.Errorf("events = %v, want created then resolved", notifier.events)
	}

	// A later recovery with nothing open is a no-op.
	if err := svc.ProcessResult(db, check, types.StatusOK, now.Add(10*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if len(notifier.events) != 2 {
		t.Errorf("recovery without an open alert emitted an event")
	}
}

func TestProcessResultReopensAfterResolve(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	check := newCheck(t, db, uuid.NewString(), types.CheckUptime)
	now := time.Now()

	check.ConsecutiveFailures = 3
	if err := svc.ProcessResult(db, check, types.StatusCritical, now); err != nil {
		t.Fatal(err)
	}
	check.ConsecutiveFailures = 0
	if err := svc.ProcessResult(db, check, types.StatusOK, now); err != nil {
		t.Fatal(err)
	}

	// A fresh threshold crossing after resolution opens a new alert row.
	check.ConsecutiveFailures = 3
	if err := svc.ProcessResult(db, check, types.StatusCritical, now); err != nil {
		t.Fatal(err)
	}

	var count int64
	if err := db.Model(&models.Alert{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("alert rows = %d, want 2 (resolved + new open)", count)
	}
}

func TestAcknowledge(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	check := newCheck(t, db, uuid.NewString(), types.CheckUptime)
	ctx := context.Background()
	now := time.Now()

	check.ConsecutiveFailures = 3
	if err := svc.ProcessResult(db, check, types.StatusCritical, now); err != nil {
		t.Fatal(err)
	}
	var open models.Alert
	if err := db.First(&open).Error; err != nil {
		t.Fatal(err)
	}

	acked, err := svc.Acknowledge(ctx, open.ID, "ops@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !acked.Acknowledged || acked.AcknowledgedBy != "ops@example.com" {
		t.Errorf("acknowledge did not stick: %+v", acked)
	}

	// Idempotent: a second acknowledge succeeds and changes nothing.
	again, err := svc.Acknowledge(ctx, open.ID, "someone-else@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if again.AcknowledgedBy != "ops@example.com" {
		t.Errorf("second acknowledge overwrote acknowledged_by: %s", again.AcknowledgedBy)
	}

	// Acknowledging a resolved alert is an error.
	if _, err := svc.Resolve(ctx, open.ID, "ops@example.com", "fixed"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Acknowledge(ctx, open.ID, "ops@example.com"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("err = %v, want ErrAlreadyResolved", err)
	}
}

func TestResolve(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	check := newCheck(t, db, uuid.NewString(), types.CheckUptime)
	ctx := context.Background()
	now := time.Now()

	check.ConsecutiveFailures = 3
	if err := svc.ProcessResult(db, check, types.StatusCritical, now); err != nil {
		t.Fatal(err)
	}
	var open models.Alert
	if err := db.First(&open).Error; err != nil {
		t.Fatal(err)
	}

	// Resolving without acknowledging first is legal.
	resolved, err := svc.Resolve(ctx, open.ID, "ops@example.com", "restarted php-fpm")
	if err != nil {
		t.Fatal(err)
	}
	if !resolved.Resolved || resolved.ResolvedBy != "ops@example.com" {
		t.Errorf("resolve did not stick: %+v", resolved)
	}
	if resolved.ResolutionNote != "restarted php-fpm" {
		t.Errorf("resolution_note = %q", resolved.ResolutionNote)
	}

	if _, err := svc.Resolve(ctx, open.ID, "ops@example.com", ""); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("err = %v, want ErrAlreadyResolved", err)
	}
}

func TestResolveUnknownAlert(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Resolve(context.Background(), uuid.NewString(), "ops", "")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want record not found", err)
	}
}

func TestListFiltersResolved(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tenant := uuid.NewString()
	ctx := context.Background()
	now := time.Now()

	openCheck := newCheck(t, db, tenant, types.CheckUptime)
	openCheck.ConsecutiveFailures = 3
	if err := svc.ProcessResult(db, openCheck, types.StatusCritical, now); err != nil {
		t.Fatal(err)
	}

	closedCheck := newCheck(t, db, tenant, types.CheckDNS)
	closedCheck.ConsecutiveFailures = 3
	if err := svc.ProcessResult(db, closedCheck, types.StatusCritical, now); err != nil {
		t.Fatal(err)
	}
	closedCheck.ConsecutiveFailures = 0
	if err := svc.ProcessResult(db, closedCheck, types.StatusOK, now); err != nil {
		t.Fatal(err)
	}

	all, err := svc.List(ctx, tenant, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("unfiltered list = %d alerts, want 2", len(all))
	}

	openOnly := false
	open, err := svc.List(ctx, tenant, &openOnly, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].CheckID != openCheck.ID {
		t.Errorf("open list = %+v, want the uptime alert only", open)
	}

	resolvedOnly := true
	closed, err := svc.List(ctx, tenant, &resolvedOnly, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(closed) != 1 || closed[0].CheckID != closedCheck.ID {
		t.Errorf("resolved list = %+v, want the dns alert only", closed)
	}
}

func TestBuildInbox(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	svc := NewService(db, WithNow(func() time.Time { return now }))
	tenant := uuid.NewString()
	ctx := context.Background()

	fail := func(check *models.MonitorCheck, status string) {
		t.Helper()
		check.ConsecutiveFailures = 3
		if err := svc.ProcessResult(db, check, status, now); err != nil {
			t.Fatal(err)
		}
	}

	// Critical uptime failure: needs attention.
	fail(newCheck(t, db, tenant, types.CheckUptime), types.StatusCritical)

	// Warning on an agent-remediable check: auto-fixable.
	fail(newCheck(t, db, tenant, types.CheckSecurityHeaders), types.StatusWarning)

	// Warning on a check no command can fix: informational.
	fail(newCheck(t, db, tenant, types.CheckSSL), types.StatusWarning)

	// Recovered within the window: auto-resolved.
	recovered := newCheck(t, db, tenant, types.CheckDNS)
	fail(recovered, types.StatusCritical)
	recovered.ConsecutiveFailures = 0
	if err := svc.ProcessResult(db, recovered, types.StatusOK, now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	// Recovered long ago: out of the inbox entirely.
	stale := newCheck(t, db, tenant, types.CheckSMTP)
	fail(stale, types.StatusCritical)
	stale.ConsecutiveFailures = 0
	if err := svc.ProcessResult(db, stale, types.StatusOK, now.Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}

	inbox, err := svc.BuildInbox(ctx, tenant)
	if err != nil {
		t.Fatal(err)
	}

	if len(inbox.NeedsAttention) != 1 {
		t.Errorf("needs_attention = %d, want 1", len(inbox.NeedsAttention))
	}
	if len(inbox.AutoFixable) != 1 {
		t.Errorf("auto_fixable = %d, want 1", len(inbox.AutoFixable))
	}
	if len(inbox.Informational) != 1 {
		t.Errorf("informational = %d, want 1", len(inbox.Informational))
	}
	if len(inbox.AutoResolved) != 1 {
		t.Errorf("auto_resolved = %d, want 1", len(inbox.AutoResolved))
	}
}
