package utils

import (
	"database/sql"
	"fmt"

	"winter-dragon/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// OpenDatabase connects with the given driver and migrates the schema.
// It also returns the transaction options the engine should use: PostgreSQL
// runs serializable, SQLite already serializes writers.
func OpenDatabase(driver, dsn string, log *zap.Logger) (*gorm.DB, *sql.TxOptions, error) {
	gormCfg := &gorm.Config{Logger: NewGormLogger(log)}

	var (
		db   *gorm.DB
		opts *sql.TxOptions
		err  error
	)
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, opts, nil
}

// NewGormLogger routes gorm's query log through zap. Lookup misses are
// expected in the get-or-create paths and are not logged.
func NewGormLogger(log *zap.Logger) gormlogger.Interface {
	l := zapgorm2.New(log.Named("gorm"))
	l.IgnoreRecordNotFoundError = true
	return l.LogMode(gormlogger.Warn)
}
