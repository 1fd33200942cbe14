package database

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"os"
	"strings"
)

// SQLite is the live records database. A fresh connection is opened for
// every operation so a restore that replaces the file is picked up.
type SQLite struct {
	path string
}

func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

func (s *SQLite) Path() string {
	return s.path
}

// SnapshotTo writes a transactionally consistent copy of the live database
// to dst using VACUUM INTO. dst must not exist.
func (s *SQLite) SnapshotTo(ctx context.Context, dst string) error {
	if _, err := os.Stat(s.path); err != nil {
		return errors.Wrap(err, "failed to stat live database")
	}

	db, err := Open(s.path, true)
	if err != nil {
		return err
	}
	defer closeDB(db)

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying SQL database")
	}

	escaped := strings.ReplaceAll(dst, "'", "''")
	if _, err := sqlDB.ExecContext(ctx, "VACUUM INTO '"+escaped+"'"); err != nil {
		return errors.Wrap(err, "failed to snapshot database via VACUUM INTO")
	}
	return nil
}

// Verify runs PRAGMA quick_check against the database file at path.
func Verify(ctx context.Context, path string) error {
	db, err := Open(path, true)
	if err != nil {
		return err
	}
	defer closeDB(db)

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying SQL database")
	}

	var result string
	if err := sqlDB.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return errors.Wrap(err, "integrity check query failed")
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

func Open(path string, readOnly bool) (*gorm.DB, error) {
	dsn := path
	if readOnly {
		dsn = "file:" + path + "?mode=ro"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open DB: "+path)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
