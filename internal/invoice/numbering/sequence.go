// Package numbering reserves per-organization invoice sequence numbers.
package numbering

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceSequence tracks the last reserved invoice number per organization.
type InvoiceSequence struct {
	OrgID     snowflake.ID `gorm:"primaryKey"`
	NextValue int64        `gorm:"not null;default:0"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }

// seedConflict makes the sequence-row insert idempotent. gorm renders it
// per dialect: ON CONFLICT DO NOTHING on postgres/sqlite, ON DUPLICATE KEY
// UPDATE on mysql.
var seedConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "org_id"}},
	DoNothing: true,
}

// Reserve atomically claims the next sequence number for the organization.
// Callers must run it inside the transaction that inserts the invoice so an
// aborted insert never burns a visible gap. The increment-then-read pair is
// atomic on every supported dialect; two concurrent transactions serialize
// on the row update.
func Reserve(ctx context.Context, tx *gorm.DB, orgID snowflake.ID) (int64, error) {
	seed := InvoiceSequence{OrgID: orgID, NextValue: 0, UpdatedAt: time.Now().UTC()}
	if err := tx.WithContext(ctx).Clauses(seedConflict).Create(&seed).Error; err != nil {
		return 0, err
	}

	if err := tx.WithContext(ctx).Exec(
		`UPDATE invoice_sequences
		 SET next_value = next_value + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE org_id = ?`,
		orgID,
	).Error; err != nil {
		return 0, err
	}

	var next int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT next_value FROM invoice_sequences WHERE org_id = ?`,
		orgID,
	).Scan(&next).Error; err != nil {
		return 0, err
	}

	return next, nil
}
