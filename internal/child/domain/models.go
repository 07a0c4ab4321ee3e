// Package domain contains persistence models for enrolled children.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Child is a care recipient enrolled with an organization and linked to
// the guardian who receives its invoices.
type Child struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID      `gorm:"not null;index" json:"org_id"`
	GuardianID snowflake.ID      `gorm:"not null;index" json:"guardian_id"`
	Name       string            `gorm:"type:text;not null" json:"name"`
	BirthDate  *time.Time        `json:"birth_date,omitempty"`
	EnrolledAt time.Time         `gorm:"not null" json:"enrolled_at"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Child) TableName() string { return "children" }
