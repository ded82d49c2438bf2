package service

import (
	"context"

	"github.com/pageza/recipehome/internal/types"
)

// RecipeAPI is the remote recipe API consumed by the synchronizer
type RecipeAPI interface {
	GetAllRecipes(ctx context.Context, credential string) ([]types.Recipe, error)
	FavoriteRecipes(ctx context.Context, credential, userID string) ([]string, error)
	AddFavorite(ctx context.Context, credential, recipeID string) error
	RemoveFavorite(ctx context.Context, credential, recipeID string) error
	DeleteRecipe(ctx context.Context, credential, recipeID string) error
}
