package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/recipehome/internal/types"
)

// StringList stores an ordered list of strings as a JSON text column
type StringList []string

// Value implements the driver.Valuer interface
func (a StringList) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *StringList) Scan(value interface{}) error {
	if value == nil {
		*a = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported StringList source %T", value)
	}

	return json.Unmarshal(bytes, a)
}

type Recipe struct {
	ID           string     `gorm:"type:varchar(36);primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Name         string     `gorm:"size:255;not null"`
	Description  string     `gorm:"type:text"`
	MealType     string     `gorm:"size:50;index"`
	ImageURL     string     `gorm:"size:512"`
	Ingredients  StringList `gorm:"type:text;not null"`
	Instructions StringList `gorm:"type:text;not null"`
	UserID       string     `gorm:"type:varchar(36);index"`
}

// BeforeCreate assigns an id when the caller did not
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ToType converts the row into its wire representation
func (r Recipe) ToType() types.Recipe {
	ingredients := []string(r.Ingredients)
	if ingredients == nil {
		ingredients = []string{}
	}
	instructions := []string(r.Instructions)
	if instructions == nil {
		instructions = []string{}
	}
	return types.Recipe{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		MealType:     r.MealType,
		Ingredients:  ingredients,
		Instructions: instructions,
		ImageURL:     r.ImageURL,
	}
}

// RecipeFromRequest builds a row owned by userID
func RecipeFromRequest(req types.CreateRecipeRequest, userID string) Recipe {
	return Recipe{
		Name:         req.Name,
		Description:  req.Description,
		MealType:     req.MealType,
		ImageURL:     req.ImageURL,
		Ingredients:  StringList(req.Ingredients),
		Instructions: StringList(req.Instructions),
		UserID:       userID,
	}
}
