// Package client talks to the remote recipe API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pageza/recipehome/internal/types"
)

// ErrNetwork wraps transport failures (the request never got a response)
var ErrNetwork = errors.New("network failure")

// APIError is returned for non-2xx responses
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Unauthorized reports whether the API rejected the credential
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Client is a recipe API client. The zero HTTP client timeout is kept on
// purpose, cancellation comes from the request context.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the API rooted at baseURL
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

// GetAllRecipes fetches the full recipe collection
func (c *Client) GetAllRecipes(ctx context.Context, credential string) ([]types.Recipe, error) {
	var body types.AllRecipesResponse
	if err := c.do(ctx, "list recipes", http.MethodGet, "/api/recipe/getAllRecipes", credential, nil, &body); err != nil {
		return nil, err
	}
	if body.AllRecipes == nil {
		return []types.Recipe{}, nil
	}
	return body.AllRecipes, nil
}

// FavoriteRecipes fetches the favorite recipe ids of userID
func (c *Client) FavoriteRecipes(ctx context.Context, credential, userID string) ([]string, error) {
	var body types.FavoriteRecipesResponse
	path := "/api/user/favoriteRecipes/" + url.PathEscape(userID)
	if err := c.do(ctx, "list favorites", http.MethodGet, path, credential, nil, &body); err != nil {
		return nil, err
	}
	if body.FavoriteRecipes == nil {
		return []string{}, nil
	}
	return body.FavoriteRecipes, nil
}

// AddFavorite marks recipeID as a favorite of the session's user
func (c *Client) AddFavorite(ctx context.Context, credential, recipeID string) error {
	path := "/api/user/addFavRecipe/" + url.PathEscape(recipeID)
	return c.do(ctx, "add favorite", http.MethodPut, path, credential, struct{}{}, nil)
}

// RemoveFavorite unmarks recipeID as a favorite of the session's user
func (c *Client) RemoveFavorite(ctx context.Context, credential, recipeID string) error {
	path := "/api/user/removeFavRecipe/" + url.PathEscape(recipeID)
	return c.do(ctx, "remove favorite", http.MethodPut, path, credential, struct{}{}, nil)
}

// DeleteRecipe deletes recipeID
func (c *Client) DeleteRecipe(ctx context.Context, credential, recipeID string) error {
	path := "/api/recipe/deleteRecipe/" + url.PathEscape(recipeID)
	return c.do(ctx, "delete recipe", http.MethodDelete, path, credential, nil, nil)
}

// Login exchanges email and password for a credential and identity
func (c *Client) Login(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	var body types.AuthResponse
	req := types.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", "", req, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (c *Client) do(ctx context.Context, op, method, path, credential string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", credential)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return fmt.Errorf("%s: %w: %v", op, ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}
		var body types.ErrorResponse
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
			if json.Unmarshal(data, &body) == nil && body.Error != "" {
				apiErr.Message = body.Error
			} else {
				apiErr.Message = strings.TrimSpace(string(data))
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
