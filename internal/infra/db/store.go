package db

import (
	"context"
	"errors"
	"fmt"

	"voteaudit/internal/config"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var errDBUnavailable = errors.New("db unavailable")

type Store struct {
	DB *gorm.DB
}

// NewStore connects to PostgreSQL. Without POSTGRES_DSN it returns a store
// with a nil DB and the daemon runs in no-db mode.
func NewStore(cfg config.Config, logger logrus.FieldLogger) (*Store, error) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set; starting in no-db mode, verification history is kept in memory")
		return &Store{DB: nil}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{DB: gdb}, nil
}

func (s *Store) Enabled() bool {
	return s != nil && s.DB != nil
}

// Migrate creates the history tables.
func (s *Store) Migrate(ctx context.Context) error {
	if !s.Enabled() {
		return errDBUnavailable
	}
	return s.DB.WithContext(ctx).AutoMigrate(&VerificationRecordModel{}, &HistorySeqModel{})
}

func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
