// Package migration creates the billing schema on startup so local and
// self-hosted deployments are usable out of the box.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/nestbill/nestbill/internal/audit/domain"
	childdomain "github.com/nestbill/nestbill/internal/child/domain"
	guardiandomain "github.com/nestbill/nestbill/internal/guardian/domain"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"github.com/nestbill/nestbill/internal/invoice/numbering"
	organizationdomain "github.com/nestbill/nestbill/internal/organization/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded SQL migrations against postgres.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema from the gorm models. Used for sqlite and
// mysql where the embedded SQL files target postgres syntax.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&organizationdomain.Organization{},
		&guardiandomain.Guardian{},
		&childdomain.Child{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&invoicedomain.ReconciledInvoice{},
		&numbering.InvoiceSequence{},
		&auditdomain.AuditLog{},
	)
}
