// Package testutil provides fakes and fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/atmosgear/skate-league/internal/database"
	"github.com/atmosgear/skate-league/internal/model"
	"github.com/atmosgear/skate-league/internal/repository"
)

// NewStore opens a migrated SQLite participant store in t.TempDir().
// The returned *gorm.DB lets tests adjust rows the repository never writes,
// such as a canceled status.
func NewStore(t *testing.T) (*repository.GormParticipantRepository, *gorm.DB) {
	t.Helper()

	gdb, err := database.OpenSQLite(filepath.Join(t.TempDir(), "league.db"), false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := repository.NewGormParticipantRepository(gdb)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return repo, gdb
}

// Cancel flips a participant to the canceled status.
func Cancel(t *testing.T, gdb *gorm.DB, id string) {
	t.Helper()
	err := gdb.Table("participants").Where("id = ?", id).Update("status", model.StatusCanceled).Error
	if err != nil {
		t.Fatalf("cancel %s: %v", id, err)
	}
}
