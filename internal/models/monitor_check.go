package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MonitorCheck struct {
	ID                  string         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID            string         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CheckType           string         `gorm:"not null;index" json:"check_type"` // "uptime", "ssl", "dns", etc.
	Target              string         `gorm:"not null" json:"target"`
	IntervalMinutes     int            `gorm:"not null;default:5" json:"interval_minutes"`
	Enabled             bool           `gorm:"not null;default:true" json:"enabled"`
	Config              datatypes.JSON `gorm:"type:jsonb" json:"config"`
	LastStatus          string         `json:"last_status"`
	LastCheckedAt       *time.Time     `json:"last_checked_at"`
	LastResponseMs      int            `json:"last_response_ms"`
	ConsecutiveFailures int            `gorm:"not null;default:0" json:"consecutive_failures"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`

	// Relationships
	Results []MonitorResult `gorm:"foreignKey:CheckID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Alerts  []Alert         `gorm:"foreignKey:CheckID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func (c *MonitorCheck) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
