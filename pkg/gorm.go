package pkg

import (
	"fmt"

	"github.com/evalytics-ai/assessment-service/internal/config"
	"github.com/evalytics-ai/assessment-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Assessment{},
		&models.Question{},
		&models.TestCase{},
		&models.AssessmentSession{},
		&models.ProctoringFlag{},
		&models.AssessmentResult{},
		&models.Certification{},
		&models.Interview{},
		&models.InterviewQuestion{},
		&models.InterviewSession{},
		&models.InterviewResult{},
	)
}
