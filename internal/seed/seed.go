// Package seed bootstraps the default organization for first startup.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/nestbill/nestbill/internal/invoice/format"
	"github.com/nestbill/nestbill/internal/invoice/numbering"
	organizationdomain "github.com/nestbill/nestbill/internal/organization/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultOrgName = "Main"
	defaultOrgSlug = "main"
)

// EnsureDefaultOrg seeds the default organization for startup bootstrap.
func EnsureDefaultOrg(db *gorm.DB) error {
	return ensure(db, 0)
}

// EnsureDefaultOrgWithID seeds the default organization under a fixed ID so
// deployments can pin DEFAULT_ORG across environments.
func EnsureDefaultOrgWithID(db *gorm.DB, orgID int64) error {
	return ensure(db, snowflake.ID(orgID))
}

func ensure(db *gorm.DB, orgID snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureOrgTx(ctx, tx, node, orgID)
		if err != nil {
			return err
		}
		return ensureSequenceTx(ctx, tx, org.ID)
	})
}

func ensureOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) (organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).
		Where("slug = ?", defaultOrgSlug).
		First(&org).Error
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return organizationdomain.Organization{}, err
	}

	if orgID == 0 {
		orgID = node.Generate()
	}
	org = organizationdomain.Organization{
		ID:                    orgID,
		Name:                  defaultOrgName,
		Slug:                  defaultOrgSlug,
		IsDefault:             true,
		InvoiceNumberTemplate: format.DefaultInvoiceNumberTemplate,
		DefaultTaxRate:        decimal.Zero,
		Currency:              "USD",
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return organizationdomain.Organization{}, err
	}
	return org, nil
}

func ensureSequenceTx(ctx context.Context, tx *gorm.DB, orgID snowflake.ID) error {
	var seq numbering.InvoiceSequence
	err := tx.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&seq).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	seq = numbering.InvoiceSequence{OrgID: orgID, NextValue: 0}
	return tx.WithContext(ctx).Create(&seq).Error
}
