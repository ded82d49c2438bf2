package stubapi

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/pageza/recipehome/internal/model"
	"github.com/pageza/recipehome/internal/types"
)

// DemoUser is the account created by Seed
type DemoUser struct {
	Username string
	Email    string
	Password string
}

// SampleRecipes returns the recipes inserted by Seed
func SampleRecipes() []types.CreateRecipeRequest {
	return []types.CreateRecipeRequest{
		{
			Name:         "Spaghetti Carbonara",
			Description:  "Roman pasta with eggs, pecorino and guanciale",
			MealType:     "Dinner",
			Ingredients:  []string{"400g spaghetti", "150g guanciale", "4 egg yolks", "60g pecorino romano", "black pepper"},
			Instructions: []string{"Boil the pasta", "Crisp the guanciale", "Whisk yolks with cheese", "Toss everything off the heat"},
		},
		{
			Name:         "Greek Salad",
			Description:  "Tomatoes, cucumber and feta with oregano",
			MealType:     "Lunch",
			Ingredients:  []string{"3 tomatoes", "1 cucumber", "200g feta", "kalamata olives", "olive oil"},
			Instructions: []string{"Chop the vegetables", "Top with feta and olives", "Dress with oil and oregano"},
		},
		{
			Name:         "Overnight Oats",
			Description:  "No-cook oats soaked in milk with berries",
			MealType:     "Breakfast",
			Ingredients:  []string{"80g rolled oats", "200ml milk", "1 tbsp honey", "berries"},
			Instructions: []string{"Mix oats, milk and honey", "Refrigerate overnight", "Top with berries"},
		},
		{
			Name:         "Chicken Tikka Masala",
			Description:  "Charred chicken in a spiced tomato cream sauce",
			MealType:     "Dinner",
			Ingredients:  []string{"600g chicken thighs", "200g yogurt", "garam masala", "400g tomatoes", "100ml cream"},
			Instructions: []string{"Marinate the chicken", "Grill until charred", "Simmer the sauce", "Add chicken and cream"},
		},
		{
			Name:         "Banana Bread",
			Description:  "Moist loaf made with overripe bananas",
			MealType:     "Dessert",
			Ingredients:  []string{"3 ripe bananas", "250g flour", "100g butter", "150g sugar", "2 eggs"},
			Instructions: []string{"Mash the bananas", "Mix in the remaining ingredients", "Bake for 60 minutes at 175C"},
		},
	}
}

// Seed creates the demo user and inserts recipes it does not own yet.
// It is safe to run repeatedly and returns the number of recipes created.
func Seed(db *gorm.DB, auth *AuthService, demo DemoUser, recipes []types.CreateRecipeRequest) (int, error) {
	user, _, err := auth.Register(demo.Username, demo.Email, demo.Password)
	if errors.Is(err, ErrUserExists) {
		user = &model.User{}
		if err := db.Where("username = ?", demo.Username).First(user).Error; err != nil {
			return 0, fmt.Errorf("find demo user: %w", err)
		}
	} else if err != nil {
		return 0, fmt.Errorf("create demo user: %w", err)
	}

	created := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, req := range recipes {
			var count int64
			if err := tx.Model(&model.Recipe{}).
				Where("name = ? AND user_id = ?", req.Name, user.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			recipe := model.RecipeFromRequest(req, user.ID)
			if err := tx.Create(&recipe).Error; err != nil {
				return fmt.Errorf("create recipe %q: %w", req.Name, err)
			}
			created++
			log.Printf("Seeded recipe %s (%s)", recipe.Name, recipe.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
