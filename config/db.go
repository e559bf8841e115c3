package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ReynaldiRP/test-backend-dmc/models"
)

// ConnectDatabase opens the PostgreSQL connection pool and migrates the
// schema. Error translation is enabled so a duplicate-key insert surfaces
// as gorm.ErrDuplicatedKey instead of a driver-specific error string.
func ConnectDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.SensorReading{}, &models.DeviceCommand{}); err != nil {
		return nil, fmt.Errorf("migrate models: %w", err)
	}

	return db, nil
}
