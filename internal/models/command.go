package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Command is one asynchronous work order for a tenant's remote agent.
// Lifecycle: pending -> processing -> completed|failed, with
// failed -> pending on retry up to the retry ceiling.
type Command struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     string         `gorm:"type:uuid;not null;index:idx_command_dedup" json:"tenant_id"`
	CommandType  string         `gorm:"not null;index:idx_command_dedup" json:"command_type"`
	Payload      datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Priority     int            `gorm:"not null;default:5" json:"priority"` // lower = more urgent
	Status       string         `gorm:"not null;default:'pending';index:idx_command_dedup" json:"status"`
	ScheduledAt  time.Time      `gorm:"not null;index" json:"scheduled_at"`
	ExecutedAt   *time.Time     `json:"executed_at"`
	RetryCount   int            `gorm:"not null;default:0" json:"retry_count"`
	Result       datatypes.JSON `gorm:"type:jsonb" json:"result"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (c *Command) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
