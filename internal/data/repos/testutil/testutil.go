package testutil

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB opens a fresh in-memory SQLite database with every service table and an
// attached "auth" schema holding a minimal users table. The pool is pinned to
// one connection so the in-memory database and the attachment survive.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.AutoMigrate(types.Models()...); err != nil {
		tb.Fatalf("automigrate: %v", err)
	}
	if err := gdb.Exec(`ATTACH DATABASE ':memory:' AS auth`).Error; err != nil {
		tb.Fatalf("attach auth schema: %v", err)
	}
	if err := gdb.Exec(`CREATE TABLE auth.users (id TEXT PRIMARY KEY, raw_user_meta_data TEXT)`).Error; err != nil {
		tb.Fatalf("create auth.users: %v", err)
	}
	return gdb
}

func DBC() dbctx.Context {
	return dbctx.New(context.Background())
}
