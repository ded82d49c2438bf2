package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipehome/internal/types"
)

// MockRecipeAPI is a mock implementation of the remote recipe API
type MockRecipeAPI struct {
	mock.Mock
}

// GetAllRecipes mocks the GetAllRecipes method
func (m *MockRecipeAPI) GetAllRecipes(ctx context.Context, credential string) ([]types.Recipe, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}

// FavoriteRecipes mocks the FavoriteRecipes method
func (m *MockRecipeAPI) FavoriteRecipes(ctx context.Context, credential, userID string) ([]string, error) {
	args := m.Called(ctx, credential, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// AddFavorite mocks the AddFavorite method
func (m *MockRecipeAPI) AddFavorite(ctx context.Context, credential, recipeID string) error {
	args := m.Called(ctx, credential, recipeID)
	return args.Error(0)
}

// RemoveFavorite mocks the RemoveFavorite method
func (m *MockRecipeAPI) RemoveFavorite(ctx context.Context, credential, recipeID string) error {
	args := m.Called(ctx, credential, recipeID)
	return args.Error(0)
}

// DeleteRecipe mocks the DeleteRecipe method
func (m *MockRecipeAPI) DeleteRecipe(ctx context.Context, credential, recipeID string) error {
	args := m.Called(ctx, credential, recipeID)
	return args.Error(0)
}
