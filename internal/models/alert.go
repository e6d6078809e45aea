package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert is derived from sustained check failures. At most one open
// (resolved=false) alert may exist per check; repeat threshold crossings
// bump OccurrenceCount instead of creating a new row.
type Alert struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        string     `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CheckID         string     `gorm:"type:uuid;not null;index:idx_alert_check_resolved" json:"check_id"`
	Severity        string     `gorm:"not null" json:"severity"` // "warning" or "critical"
	Title           string     `gorm:"not null" json:"title"`
	Message         string     `json:"message"`
	Acknowledged    bool       `gorm:"not null;default:false" json:"acknowledged"`
	AcknowledgedBy  string     `json:"acknowledged_by,omitempty"`
	Resolved        bool       `gorm:"not null;default:false;index:idx_alert_check_resolved" json:"resolved"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolutionNote  string     `json:"resolution_note,omitempty"`
	OccurrenceCount int        `gorm:"not null;default:1" json:"occurrence_count"`
	LastSeenAt      time.Time  `json:"last_seen_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relationships
	Check MonitorCheck `gorm:"foreignKey:CheckID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
