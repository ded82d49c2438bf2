package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecipeFavorite struct {
	ID        string    `gorm:"type:varchar(36);primarykey"`
	CreatedAt time.Time
	RecipeID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_user_recipe"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_user_recipe"`
}

func (RecipeFavorite) TableName() string {
	return "recipe_favorites"
}

// BeforeCreate assigns an id when the caller did not
func (f *RecipeFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
