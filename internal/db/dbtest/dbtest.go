// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	mydb "productos/internal/db"
)

// New returns a migrated sqlite database in a temp dir, closed on cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "productos.db")
	db, err := mydb.Open(mydb.DriverSQLite, dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := mydb.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
