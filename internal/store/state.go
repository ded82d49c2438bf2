// Package store holds the recipe view state: the loaded recipes, the favorite
// set and the search query. Transitions are pure functions over State; Store
// serializes their application.
package store

import (
	"strings"

	"github.com/pageza/recipehome/internal/types"
)

// State is the local view of the remote recipe collection
type State struct {
	Recipes   []types.Recipe
	Favorites FavoriteSet
	Query     string
}

// Load replaces the recipe collection and the favorite set
func Load(s State, recipes []types.Recipe, favorites FavoriteSet) State {
	s.Recipes = recipes
	s.Favorites = favorites
	return s
}

// LoadRecipes replaces only the recipe collection
func LoadRecipes(s State, recipes []types.Recipe) State {
	s.Recipes = recipes
	return s
}

// LoadFavorites replaces only the favorite set
func LoadFavorites(s State, favorites FavoriteSet) State {
	s.Favorites = favorites
	return s
}

// ToggleFavorite records a confirmed favorite write for id
func ToggleFavorite(s State, id string, favorite bool) State {
	if favorite {
		s.Favorites = s.Favorites.Add(id)
	} else {
		s.Favorites = s.Favorites.Remove(id)
	}
	return s
}

// DeleteConfirmed installs the collection re-fetched after a confirmed delete
func DeleteConfirmed(s State, recipes []types.Recipe) State {
	s.Recipes = recipes
	return s
}

// SetQuery replaces the search query
func SetQuery(s State, query string) State {
	s.Query = query
	return s
}

// Visible returns the recipes matching the current query
func Visible(s State) []types.Recipe {
	return Filter(s.Recipes, s.Query)
}

// Filter returns the recipes whose name, description or meal type contains
// query, ignoring case. An empty query returns recipes itself.
func Filter(recipes []types.Recipe, query string) []types.Recipe {
	if query == "" {
		return recipes
	}
	q := strings.ToLower(query)
	out := make([]types.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.Description), q) ||
			strings.Contains(strings.ToLower(r.MealType), q) {
			out = append(out, r)
		}
	}
	return out
}
