package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MonitorResult is append-only; rows are never updated after creation.
type MonitorResult struct {
	ID         string         `gorm:"type:uuid;primaryKey" json:"id"`
	CheckID    string         `gorm:"type:uuid;not null;index:idx_result_check_created" json:"check_id"`
	TenantID   string         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Status     string         `gorm:"not null" json:"status"`
	ResponseMs int            `json:"response_ms"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `gorm:"index:idx_result_check_created" json:"created_at"`

	// Relationships
	Check MonitorCheck `gorm:"foreignKey:CheckID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func (r *MonitorResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
