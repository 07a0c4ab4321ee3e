// Package domain contains persistence models for guardian accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Guardian is the billed party for one or more children's care.
type Guardian struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null;index" json:"email"`
	Phone     string       `gorm:"type:text" json:"phone"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Guardian) TableName() string { return "guardians" }
