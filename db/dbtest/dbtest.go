// Package dbtest opens throwaway SQLite databases with the registry schema for package tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bnb-chain/keys-hub/db"
)

// NewDB returns a migrated database file under t.TempDir(). WAL journaling lets a reader keep its
// snapshot open while a writer commits, the same way the production MySQL setup behaves.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=10000", path)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	db.AutoMigrateDB(gdb)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return gdb
}

// NewDao wraps NewDB into the registry DAO.
func NewDao(t testing.TB) *db.RegistrySvcDB {
	return db.NewRegistrySvcDB(NewDB(t))
}
