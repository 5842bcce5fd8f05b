package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by the DSN. PostgreSQL DSNs use the
// usual postgres:// (or key=value) forms; anything prefixed with sqlite://
// or ending in .db opens an embedded SQLite database.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if sqlitePath, ok := sqliteDSN(dsn); ok {
		conn, err := gorm.Open(sqlite.Open(sqlitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite: %w", err)
		}
		return conn, nil
	}

	conn, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("db: open postgres: %w", err)
	}
	return conn, nil
}

// sqliteDSN reports whether the DSN targets SQLite and returns the file path.
func sqliteDSN(dsn string) (string, bool) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return strings.TrimPrefix(dsn, "sqlite://"), true
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), dsn == ":memory:":
		return dsn, true
	default:
		return "", false
	}
}
