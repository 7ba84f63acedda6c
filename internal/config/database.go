package config

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mutual_aid/internal/models"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// InitDB opens the Postgres connection described by s.
func InitDB(s *Settings) (*gorm.DB, error) {
	level := gormlogger.Warn
	if s.LogLevel == "debug" || s.LogLevel == "trace" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(s.DSN()), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema. Repeat calls in one process are
// no-ops returning the first result.
func Migrate(db *gorm.DB) error {
	migrateOnce.Do(func() {
		migrateErr = migrate(db)
	})
	return migrateErr
}

func migrate(db *gorm.DB) error {
	// users first: every other table references it
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	err := db.AutoMigrate(
		&models.Post{},
		&models.Donation{},
		&models.Event{},
		&models.Incident{},
		&models.IncidentUpdate{},
		&models.LearningSession{},
		&models.EmergencyContact{},
		&models.Conversation{},
		&models.Message{},
		&models.HistoryLog{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	logrus.Info("database schema up to date")
	return nil
}
