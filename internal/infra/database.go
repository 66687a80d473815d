package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"poscore/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies the idempotent SQL patches GORM cannot express (partial
// indexes in particular).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the schema. Shared with the integration
// tests so they migrate exactly what the server migrates.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.CashSession{},
		&model.CashWithdrawal{},
		&model.SaleRecord{},
		&model.DebtAccount{},
		&model.DebtPayment{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on an already-patched schema is a
// no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// One open session per operator per calendar day. The service checks
		// before inserting; this index backstops concurrent opens.
		{"unique open session per operator per day", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uidx_open_session_per_operator_day') THEN
    CREATE UNIQUE INDEX uidx_open_session_per_operator_day
        ON cash_sessions (operator_id, (date(opened_at)))
        WHERE status = 'open';
  END IF;
END $$`},
		// The orphan-repair sweep scans sales without a session.
		{"orphan sales partial index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sale_records_orphan') THEN
    CREATE INDEX idx_sale_records_orphan
        ON sale_records (created_at)
        WHERE session_id IS NULL;
  END IF;
END $$`},
		// Credit recomputation resums a customer's non-paid receivables.
		{"open receivables per counterparty index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_debt_accounts_open_receivables') THEN
    CREATE INDEX idx_debt_accounts_open_receivables
        ON debt_accounts (counterparty_id)
        WHERE side = 'receivable' AND status <> 'paid';
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("schema patch %q: %w", p.descr, err)
		}
	}
	return nil
}
