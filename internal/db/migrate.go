package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/compasshq/compass/internal/models"
)

// AllModels returns every GORM model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.Task{},
		&models.Comment{},
		&models.Insight{},
	}
}

// AutoMigrate creates or updates all Compass tables.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
