package numbering

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&InvoiceSequence{}))
	return db
}

func TestReserve_Monotonic(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	orgID := snowflake.ID(1001)

	for want := int64(1); want <= 5; want++ {
		got, err := Reserve(ctx, db, orgID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReserve_PerOrgIsolation(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	first, err := Reserve(ctx, db, snowflake.ID(1))
	require.NoError(t, err)
	second, err := Reserve(ctx, db, snowflake.ID(2))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(1), second, "each organization counts from 1")
}

func TestReserve_SeedInsertRendersPerDialect(t *testing.T) {
	// sqlite (and postgres) take the standard conflict clause.
	db := setupDB(t)
	dry := db.Session(&gorm.Session{DryRun: true}).
		Clauses(seedConflict).
		Create(&InvoiceSequence{OrgID: snowflake.ID(42)})
	require.NoError(t, dry.Error)
	assert.Contains(t, dry.Statement.SQL.String(), "ON CONFLICT")

	// mysql has no ON CONFLICT; the clause must render its native form.
	mysqlDB, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "nestbill:nestbill@tcp(127.0.0.1:3306)/nestbill?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)

	dry = mysqlDB.Clauses(seedConflict).Create(&InvoiceSequence{OrgID: snowflake.ID(42)})
	require.NoError(t, dry.Error)
	assert.Contains(t, dry.Statement.SQL.String(), "ON DUPLICATE KEY UPDATE")
	assert.NotContains(t, dry.Statement.SQL.String(), "ON CONFLICT")
}

func TestReserve_RollbackLeavesNoGapVisible(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	orgID := snowflake.ID(7)

	_ = db.Transaction(func(tx *gorm.DB) error {
		seq, err := Reserve(ctx, tx, orgID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), seq)
		return fmt.Errorf("force rollback")
	})

	// The aborted reservation rolled back with its transaction, so the
	// number is handed out again.
	seq, err := Reserve(ctx, db, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}
