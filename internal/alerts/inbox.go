package alerts

import (
	"context"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/models"
	"github.com/sitewarden-dev/sitewarden/internal/types"
)

// autoResolvedWindow bounds how far back the inbox surfaces recoveries.
const autoResolvedWindow = 24 * time.Hour

// Check types a queued agent command can remediate without a human.
var autoFixableTypes = map[string]bool{
	types.CheckSecurityHeaders: true,
	types.CheckForms:           true,
}

// Inbox partitions a tenant's alerts for the operator dashboard.
type Inbox struct {
	NeedsAttention []models.Alert `json:"needs_attention"`
	AutoFixable    []models.Alert `json:"auto_fixable"`
	Informational  []models.Alert `json:"informational"`
	AutoResolved   []models.Alert `json:"auto_resolved"`
}

// BuildInbox partitions open alerts into needs-attention (critical),
// auto-fixable (warnings a command can fix) and informational (remaining
// warnings), plus recent auto-recoveries.
func (s *Service) BuildInbox(ctx context.Context, tenantID string) (*Inbox, error) {
	var open []models.Alert
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND resolved = ?", tenantID, false).
		Order("created_at DESC").
		Find(&open).Error; err != nil {
		return nil, err
	}

	checkTypes, err := s.checkTypesFor(ctx, open)
	if err != nil {
		return nil, err
	}

	inbox := &Inbox{
		NeedsAttention: []models.Alert{},
		AutoFixable:    []models.Alert{},
		Informational:  []models.Alert{},
		AutoResolved:   []models.Alert{},
	}

	for _, alert := range open {
		switch {
		case alert.Severity == types.SeverityCritical:
			inbox.NeedsAttention = append(inbox.NeedsAttention, alert)
		case autoFixableTypes[checkTypes[alert.CheckID]]:
			inbox.AutoFixable = append(inbox.AutoFixable, alert)
		default:
			inbox.Informational = append(inbox.Informational, alert)
		}
	}

	cutoff := s.now().Add(-autoResolvedWindow)
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND resolved = ? AND resolved_by = ? AND resolved_at >= ?",
			tenantID, true, types.ResolvedByAutoRecovery, cutoff).
		Order("resolved_at DESC").
		Find(&inbox.AutoResolved).Error; err != nil {
		return nil, err
	}

	return inbox, nil
}

func (s *Service) checkTypesFor(ctx context.Context, alerts []models.Alert) (map[string]string, error) {
	out := make(map[string]string, len(alerts))
	if len(alerts) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.CheckID)
	}

	var checks []models.MonitorCheck
	if err := s.db.WithContext(ctx).Select("id, check_type").Where("id IN ?", ids).Find(&checks).Error; err != nil {
		return nil, err
	}
	for _, c := range checks {
		out[c.ID] = c.CheckType
	}
	return out, nil
}
