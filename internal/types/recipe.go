package types

// Recipe represents a recipe as served by the remote recipe API
type Recipe struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	MealType     string   `json:"mealType"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ImageURL     string   `json:"imageUrl"`
}

// AllRecipesResponse is the body of GET /api/recipe/getAllRecipes
type AllRecipesResponse struct {
	AllRecipes []Recipe `json:"allRecipes"`
}

// FavoriteRecipesResponse is the body of GET /api/user/favoriteRecipes/{userId}
// and of the add/remove favorite writes
type FavoriteRecipesResponse struct {
	FavoriteRecipes []string `json:"favoriteRecipes"`
}

// CreateRecipeRequest is the body of POST /api/recipe/createRecipe
type CreateRecipeRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	MealType     string   `json:"mealType"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ImageURL     string   `json:"imageUrl"`
}
