// db/db.go
package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/apipatb/earning-sub014/config"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
)

var DB *gorm.DB

func InitPostgres() error {
	var err error
	dsn := config.GetString("postgres.dsn")
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := DB.AutoMigrate(&model.PermissionGrant{}, &model.Ticket{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("Successfully connected to Postgres")
	return nil
}

func ClosePostgres() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		logger.Error("Error retrieving underlying database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing Postgres connection", zap.Error(err))
	} else {
		logger.Info("Postgres connection closed successfully")
	}
}
