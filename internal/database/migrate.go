package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/pageza/recipehome/internal/model"
)

// RunMigrations creates or updates the stand-in API schema
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Recipe{},
		&model.RecipeFavorite{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Printf("Schema migrated (%s)", db.Dialector.Name())
	return nil
}
