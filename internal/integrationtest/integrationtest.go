// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/cmd/httpserver"
	"github.com/go-petr/pet-wallet/internal/accountrepo"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/randompkg"

	_ "github.com/lib/pq"
)

// ConfigPath is the configs directory as seen from a package two levels below the module root.
const ConfigPath = "../../configs"

const migrationURL = "file://../../configs/db/migration"

// LoadConfig loads the test configuration.
func LoadConfig(t *testing.T) configpkg.Config {
	t.Helper()

	config, err := configpkg.Load(ConfigPath)
	if err != nil {
		t.Fatalf(`configpkg.Load(%q) returned error: %v`, ConfigPath, err)
	}

	return config
}

// SetupServer returns test server that cleans up database after each integration test.
func SetupServer(t *testing.T) *httpserver.Server {
	config := LoadConfig(t)

	zerolog.SetGlobalLevel(zerolog.FatalLevel)

	logger := middleware.CreateLogger(config)

	db := SetupDB(t, config.DBDriver, config.DBSource)

	gin.SetMode(gin.ReleaseMode)

	server, err := httpserver.New(db, logger, config)
	if err != nil {
		t.Fatalf(`httpserver.New(db, logger, config) returned error: %v`, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = server.Dispatcher.Run(logger.WithContext(ctx))
	}()

	// Registered after SetupDB, so the dispatcher stops before the tables are flushed.
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return server
}

// Flush flushes all db tables without droping.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	var tables string

	const query = `
	SELECT string_agg(table_name, ', ')
	FROM information_schema.tables 
	WHERE table_schema='public' AND table_name <> 'schema_migrations';`

	row := db.QueryRow(query)

	err := row.Scan(&tables)
	if err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}

	if _, err := db.Exec(`TRUNCATE TABLE ` + tables + " CASCADE"); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}

// SetupDB sets up connection with a migrated database for testing and then cleans it.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	if err := dbpkg.Migrate(migrationURL, source); err != nil {
		t.Fatalf("dbpkg.Migrate(%q) returned error: %v", migrationURL, err)
	}

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// SetupTX sets up a database transaction to be used in tests.
//
// Once the tests are done it will rollback the transaction.
func SetupTX(t *testing.T, driver, source string) *sql.Tx {
	t.Helper()

	if err := dbpkg.Migrate(migrationURL, source); err != nil {
		t.Fatalf("dbpkg.Migrate(%q) returned error: %v", migrationURL, err)
	}

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("db.Begin() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Fatalf("tx.Rollback() failed: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("db.Close() failed: %v", err)
		}
	})

	return tx
}

// SeedWallet creates a principal with a random name and email holding balance in the wallet.
func SeedWallet(t *testing.T, db dbpkg.SQLInterface, balance domain.Money) domain.Wallet {
	t.Helper()

	arg := domain.CreateWalletParams{
		Username: randompkg.Owner(),
		FullName: randompkg.FullName(),
		Email:    randompkg.Email(),
		Balance:  balance,
	}

	w, err := accountrepo.NewRepoPGS(db).CreateWallet(context.Background(), arg)
	if err != nil {
		t.Fatalf("CreateWallet(ctx, %+v) returned error: %v", arg, err)
	}

	return w
}

// SeedBankAccount creates a savings sub-account of owner holding balance.
func SeedBankAccount(t *testing.T, db dbpkg.SQLInterface, owner string, balance domain.Money) domain.BankAccount {
	t.Helper()

	arg := domain.CreateBankAccountParams{
		Owner:         owner,
		AccountNumber: randompkg.AccountNumber(),
		RoutingCode:   randompkg.RoutingCode(),
		AccountType:   domain.AccountSavings,
		Balance:       balance,
	}

	a, err := accountrepo.NewRepoPGS(db).CreateBankAccount(context.Background(), arg)
	if err != nil {
		t.Fatalf("CreateBankAccount(ctx, %+v) returned error: %v", arg, err)
	}

	return a
}
