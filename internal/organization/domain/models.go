// Package domain contains persistence models for the org service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Organization represents a childcare business tenant.
type Organization struct {
	ID                    snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                  string            `gorm:"type:text;not null" json:"name"`
	Slug                  string            `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	SupportEmail          string            `gorm:"type:text;column:support_email" json:"support_email"`
	IsDefault             bool              `gorm:"column:is_default" json:"is_default"`
	InvoiceNumberTemplate string            `gorm:"type:text;not null" json:"invoice_number_template"`
	DefaultTaxRate        decimal.Decimal   `gorm:"type:decimal(6,3);not null" json:"default_tax_rate"`
	Currency              string            `gorm:"type:text;not null;default:'USD'" json:"currency"`
	Metadata              datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt             time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }
