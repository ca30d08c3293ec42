// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"estate-listings/internal/core/database"
	"estate-listings/internal/feature/account"
	"estate-listings/internal/feature/listing"
)

// NewDB opens a migrated sqlite database in a per-test temp dir and returns it with its file path.
func NewDB(t testing.TB) (*gorm.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          path,
		MaxOpenConns: 1,
		LogLevel:     "silent",
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(append(account.Models(), listing.Models()...)...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db, path
}
