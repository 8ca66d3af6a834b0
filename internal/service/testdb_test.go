package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/jobpay/internal/config"
	"github.com/nurpe/jobpay/internal/model"
	"github.com/nurpe/jobpay/internal/repository"
)

// The tests run against an in-memory SQLite ledger carrying the same schema
// as the Postgres migrations. A single connection keeps transactions from
// different goroutines strictly ordered.
var testSchema = []string{
	`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		profession TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		balance NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0)
	);`,
	`CREATE TABLE contracts (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES profiles(id),
		contractor_id TEXT NOT NULL REFERENCES profiles(id),
		terms TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'new'
	);`,
	`CREATE TABLE jobs (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL CHECK (price > 0),
		paid BOOLEAN,
		payment_date TIMESTAMP
	);`,
}

func newTestDB(t *testing.T) (*gorm.DB, *repository.LedgerRepository) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range testSchema {
		require.NoError(t, database.Exec(stmt).Error)
	}
	return database, repository.NewLedgerRepository(database)
}

func testConfig() *config.Config {
	return &config.Config{
		Billing: config.BillingConfig{
			DepositCapRatio:  0.25,
			BestClientsLimit: 2,
			PayMaxRetries:    3,
		},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func createProfile(t *testing.T, db *gorm.DB, profileType model.ProfileType, firstName, lastName, profession string, balance float64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(`
		INSERT INTO profiles (id, first_name, last_name, profession, type, balance)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, firstName, lastName, profession, string(profileType), balance).Error)
	return id
}

func createContract(t *testing.T, db *gorm.DB, clientID, contractorID uuid.UUID, status model.ContractStatus) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(`
		INSERT INTO contracts (id, client_id, contractor_id, terms, status)
		VALUES (?, ?, ?, '', ?)
	`, id, clientID, contractorID, string(status)).Error)
	return id
}

func createJob(t *testing.T, db *gorm.DB, contractID uuid.UUID, price float64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(`
		INSERT INTO jobs (id, contract_id, description, price)
		VALUES (?, ?, 'work', ?)
	`, id, contractID, price).Error)
	return id
}

func createPaidJob(t *testing.T, db *gorm.DB, contractID uuid.UUID, price float64, paidAt time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(`
		INSERT INTO jobs (id, contract_id, description, price, paid, payment_date)
		VALUES (?, ?, 'work', ?, TRUE, ?)
	`, id, contractID, price, paidAt).Error)
	return id
}

func profileBalance(t *testing.T, repo *repository.LedgerRepository, id uuid.UUID) float64 {
	t.Helper()
	profile, err := repo.GetProfile(context.Background(), id)
	require.NoError(t, err)
	return profile.Balance
}

func clientPrincipal(id uuid.UUID) model.Principal {
	return model.Principal{ProfileID: id, Type: model.ProfileTypeClient}
}

func contractorPrincipal(id uuid.UUID) model.Principal {
	return model.Principal{ProfileID: id, Type: model.ProfileTypeContractor}
}
