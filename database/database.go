package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recipe-restful/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver for driver ("mysql", "postgres" or "sqlite").
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "sqlite", "sqlite3", "":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects with gorm. SQL logging goes through zap; duplicate-key
// violations are translated into gorm.ErrDuplicatedKey.
func Open(driver, dsn string, zapLogger *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if zapLogger.Core().Enabled(zap.DebugLevel) {
		level = logger.Info
	}
	gormLogger := logger.New(
		zap.NewStdLog(zapLogger.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true, // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables, join tables included.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Tag{}, &models.Ingredient{}, &models.Recipe{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WaitForDB pings the database until it answers, up to attempts tries spaced
// interval apart. It gives up early when ctx is cancelled.
func WaitForDB(ctx context.Context, db *gorm.DB, attempts int, interval time.Duration, zapLogger *zap.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(attempts-1)),
		ctx,
	)

	tries := 0
	err := backoff.RetryNotify(func() error {
		tries++
		return Ping(ctx, db)
	}, policy, func(err error, next time.Duration) {
		zapLogger.Warn("Database unavailable, waiting",
			zap.Error(err),
			zap.Int("attempt", tries),
			zap.Duration("retry_in", next))
	})
	if err != nil {
		return fmt.Errorf("database not available after %d attempts: %w", tries, err)
	}
	zapLogger.Info("Database available", zap.Int("attempts", tries))
	return nil
}
