// Package mock provides in-memory stand-ins for the database, Redis and the clock in tests.
package mock

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finance-tracker/recurring/config"
	"github.com/finance-tracker/recurring/internal/infra/db"
	"github.com/finance-tracker/recurring/internal/integration/persistence/model"
)

var once sync.Once
var shared *Db

// Db is an in-memory SQLite database migrated with every service model.
type Db struct {
	DbConn   *gorm.DB
	database *db.Database
	models   map[string]any
}

// NewDb returns the process-wide database used by the feature suite.
func NewDb(name string) *Db {
	once.Do(func() {
		d, err := open(name)
		if err != nil {
			panic(err)
		}
		shared = d
	})
	return shared
}

// NewTestDb opens a database private to one test and closes it on cleanup.
func NewTestDb(tb testing.TB) *Db {
	tb.Helper()

	d, err := open("test_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}
	tb.Cleanup(func() {
		_ = d.database.Close()
	})
	return d
}

func open(name string) (*Db, error) {
	database, err := db.NewConnection(&config.DatabaseConfig{
		Driver: db.DriverSQLite,
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.AutoMigrate(model.All()...); err != nil {
		return nil, err
	}

	d := &Db{
		DbConn:   database.DB(),
		database: database,
		models:   make(map[string]any),
	}
	for _, m := range model.All() {
		stmt := &gorm.Statement{DB: d.DbConn}
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		d.models[stmt.Schema.Table] = m
	}
	return d, nil
}

// ClearDB deletes every row, soft-deleted ones included.
func (d *Db) ClearDB() error {
	for table, m := range d.models {
		err := d.DbConn.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// GetModel returns the model mapped to a table name.
func (d *Db) GetModel(table string) (any, bool) {
	m, ok := d.models[table]
	return m, ok
}
