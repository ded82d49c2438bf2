package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipehome/internal/client"
	"github.com/pageza/recipehome/internal/middleware"
	"github.com/pageza/recipehome/internal/mocks"
	"github.com/pageza/recipehome/internal/service"
	"github.com/pageza/recipehome/internal/session"
	"github.com/pageza/recipehome/internal/types"
)

const testToken = "tok"

var testCookies = Cookies{Credential: "access_token", Identity: "userID"}

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AuthResponse), args.Error(1)
}

func testRecipes() []types.Recipe {
	return []types.Recipe{
		{ID: "a", Name: "Pasta", Description: "Italian dish", MealType: "Dinner"},
		{ID: "b", Name: "Salad", Description: "Light meal", MealType: "Lunch"},
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *mocks.MockRecipeAPI, *mockAuth, *service.Views) {
	return setupRouterWithLimiter(t, nil)
}

func setupRouterWithLimiter(t *testing.T, limiter *middleware.RateLimiter) (*gin.Engine, *mocks.MockRecipeAPI, *mockAuth, *service.Views) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := log.New(io.Discard, "", 0)
	api := new(mocks.MockRecipeAPI)
	auth := new(mockAuth)
	views := service.NewViews(api, logger)

	router := NewRouter(views, auth, Options{
		Cookies:    testCookies,
		SignInPath: "/signin",
		Limiter:    limiter,
		Logger:     logger,
	})
	return router, api, auth, views
}

func signedIn(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	identity, err := session.EncodeIdentity(types.Identity{ID: "u1"})
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: testCookies.Credential, Value: testToken})
	req.AddCookie(&http.Cookie{Name: testCookies.Identity, Value: identity})
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func homeJSON(t *testing.T, router *gin.Engine, req *http.Request) HomeResponse {
	t.Helper()
	w := serve(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp HomeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	router, _, _, _ := setupRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHomeAnonymous(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, "").Return(testRecipes(), nil)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Pasta")
	assert.Contains(t, body, "Salad")
	assert.Contains(t, body, `class="trash-off"`)
	assert.NotContains(t, body, `class="trash-on"`)
	assert.Contains(t, body, "Sign in")
	api.AssertNotCalled(t, "FavoriteRecipes", mock.Anything, mock.Anything, mock.Anything)
}

func TestHomeSignedIn(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil).Once()
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{"a"}, nil).Once()

	w := serve(router, signedIn(t, httptest.NewRequest(http.MethodGet, "/", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `class="trash-on"`)
	assert.Contains(t, body, `class="fav"`)
	assert.Contains(t, body, `class="nofav"`)
	assert.Contains(t, body, "Sign out")
}

func TestHomeQueryIsPerRequest(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil)
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil)

	resp := homeJSON(t, router, signedIn(t, httptest.NewRequest(http.MethodGet, "/api/home?q=LUNCH", nil)))
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "b", resp.Recipes[0].ID)
	assert.Equal(t, "LUNCH", resp.Query)

	// another tab of the same session searches independently
	resp = homeJSON(t, router, signedIn(t, httptest.NewRequest(http.MethodGet, "/api/home?q=pasta", nil)))
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "a", resp.Recipes[0].ID)

	resp = homeJSON(t, router, signedIn(t, httptest.NewRequest(http.MethodGet, "/api/home", nil)))
	assert.Len(t, resp.Recipes, 2)
	assert.Empty(t, resp.Query)

	w := serve(router, signedIn(t, httptest.NewRequest(http.MethodGet, "/?q=salad", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Salad")
	assert.NotContains(t, w.Body.String(), "Pasta")
	assert.Contains(t, w.Body.String(), `name="q" value="salad"`)
}

func TestHomeReloadsEachRender(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(nil, fmt.Errorf("get all recipes: %w", client.ErrNetwork)).Once()
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil)
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil)

	w := serve(router, signedIn(t, httptest.NewRequest(http.MethodGet, "/", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Some recipes could not be loaded")
	assert.NotContains(t, w.Body.String(), "Pasta")

	w = serve(router, signedIn(t, httptest.NewRequest(http.MethodGet, "/", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Some recipes could not be loaded")
	assert.Contains(t, w.Body.String(), "Pasta")
	api.AssertNumberOfCalls(t, "GetAllRecipes", 2)
}

func TestHomeRejectedCredentialSignsOut(t *testing.T) {
	router, api, _, views := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil)
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").
		Return(nil, &client.APIError{Op: "favorite recipes", StatusCode: http.StatusUnauthorized})

	w := serve(router, signedIn(t, httptest.NewRequest(http.MethodGet, "/", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Your session has expired")
	assert.Contains(t, body, `class="trash-off"`)
	assert.Contains(t, body, "Pasta")
	assert.Equal(t, 0, views.Len())
	assertCleared(t, w)
}

func TestHomeLoadFailureShowsNotice(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, "").Return(nil, fmt.Errorf("get all recipes: %w", client.ErrNetwork))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Some recipes could not be loaded")
}

func TestHomeJSONSignedIn(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil).Once()
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{"a"}, nil).Once()

	resp := homeJSON(t, router, signedIn(t, httptest.NewRequest(http.MethodGet, "/api/home", nil)))

	assert.True(t, resp.LoggedIn)
	assert.Equal(t, []string{"a"}, resp.Favorites)
	assert.Len(t, resp.Recipes, 2)
	assert.Empty(t, resp.Error)
}

func TestMutationsWithoutSession(t *testing.T) {
	for _, path := range []string{"/recipes/a/favorite", "/recipes/a/delete"} {
		t.Run(path, func(t *testing.T) {
			router, api, _, _ := setupRouter(t)

			w := serve(router, httptest.NewRequest(http.MethodPost, path, nil))
			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/signin", w.Header().Get("Location"))

			w = serve(router, jsonRequest(http.MethodPost, path))
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			api.AssertNotCalled(t, "AddFavorite", mock.Anything, mock.Anything, mock.Anything)
			api.AssertNotCalled(t, "DeleteRecipe", mock.Anything, mock.Anything, mock.Anything)
			api.AssertNotCalled(t, "GetAllRecipes", mock.Anything, mock.Anything)
		})
	}
}

func TestToggleFavorite(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil)
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil)
	api.On("AddFavorite", mock.Anything, testToken, "a").Return(nil).Once()
	api.On("RemoveFavorite", mock.Anything, testToken, "a").Return(nil).Once()

	w := serve(router, signedIn(t, jsonRequest(http.MethodPost, "/recipes/a/favorite")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"a","favorite":true}`, w.Body.String())

	w = serve(router, signedIn(t, httptest.NewRequest(http.MethodPost, "/recipes/a/favorite", nil)))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	resp := homeJSON(t, router, signedIn(t, httptest.NewRequest(http.MethodGet, "/api/home", nil)))
	assert.Empty(t, resp.Favorites)
	api.AssertExpectations(t)
}

func TestToggleFailureKeepsState(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil)
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil)
	api.On("AddFavorite", mock.Anything, testToken, "a").Return(fmt.Errorf("add favorite: %w", client.ErrNetwork))

	w := serve(router, signedIn(t, httptest.NewRequest(http.MethodPost, "/recipes/a/favorite", nil)))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?notice="+NoticeFavoriteFailed, w.Header().Get("Location"))

	w = serve(router, signedIn(t, jsonRequest(http.MethodPost, "/recipes/a/favorite")))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	resp := homeJSON(t, router, signedIn(t, httptest.NewRequest(http.MethodGet, "/api/home", nil)))
	assert.Empty(t, resp.Favorites)
}

func TestDeleteRecipe(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil).Once()
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil)
	api.On("DeleteRecipe", mock.Anything, testToken, "a").Return(nil).Once()
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes()[1:], nil)

	w := serve(router, signedIn(t, jsonRequest(http.MethodPost, "/recipes/a/delete")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"a","deleted":true}`, w.Body.String())
	// one load for the view, one re-fetch after the delete
	api.AssertNumberOfCalls(t, "GetAllRecipes", 2)

	resp := homeJSON(t, router, signedIn(t, httptest.NewRequest(http.MethodGet, "/api/home", nil)))
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "b", resp.Recipes[0].ID)
}

func TestMutationRedirectKeepsQuery(t *testing.T) {
	router, api, _, _ := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil)
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil)
	api.On("AddFavorite", mock.Anything, testToken, "a").Return(nil).Once()
	api.On("AddFavorite", mock.Anything, testToken, "b").Return(fmt.Errorf("add favorite: %w", client.ErrNetwork))

	post := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(url.Values{"q": {"light meal"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(router, signedIn(t, req))
	}

	w := post("/recipes/a/favorite")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?q=light+meal", w.Header().Get("Location"))

	w = post("/recipes/b/favorite")
	assert.Equal(t, "/?notice="+NoticeFavoriteFailed+"&q=light+meal", w.Header().Get("Location"))
}

func TestDeleteRejectedCredentialSignsOut(t *testing.T) {
	router, api, _, views := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil).Once()
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil).Once()
	api.On("DeleteRecipe", mock.Anything, testToken, "a").
		Return(&client.APIError{Op: "delete recipe", StatusCode: http.StatusUnauthorized})

	w := serve(router, signedIn(t, httptest.NewRequest(http.MethodPost, "/recipes/a/delete", nil)))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?notice="+NoticeExpired, w.Header().Get("Location"))
	assert.Equal(t, 0, views.Len())
	assertCleared(t, w)
	api.AssertNumberOfCalls(t, "GetAllRecipes", 1)
}

func TestWriteStopsWhenLoadRejectsCredential(t *testing.T) {
	router, api, _, views := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil)
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").
		Return(nil, &client.APIError{Op: "favorite recipes", StatusCode: http.StatusForbidden})

	w := serve(router, signedIn(t, httptest.NewRequest(http.MethodPost, "/recipes/a/favorite", nil)))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?notice="+NoticeExpired, w.Header().Get("Location"))
	assert.Equal(t, 0, views.Len())
	assertCleared(t, w)
	api.AssertNotCalled(t, "AddFavorite", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignInForm(t *testing.T) {
	router, _, _, _ := setupRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/signin?notice="+NoticeExpired, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/signin"`)
	assert.Contains(t, w.Body.String(), "Your session has expired")
}

func signInRequest(email, password string) *http.Request {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSignIn(t *testing.T) {
	router, api, auth, _ := setupRouter(t)
	auth.On("Login", mock.Anything, "cook@example.com", "secret1").
		Return(&types.AuthResponse{Token: testToken, User: types.Identity{ID: "u1", Username: "cook"}}, nil)

	w := serve(router, signInRequest("cook@example.com", "secret1"))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// the issued cookies form a session the home page accepts
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil).Once()
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{"b"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/home", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	resp := homeJSON(t, router, req)
	assert.True(t, resp.LoggedIn)
	assert.Equal(t, []string{"b"}, resp.Favorites)
}

func TestSignInRejected(t *testing.T) {
	router, _, auth, _ := setupRouter(t)
	auth.On("Login", mock.Anything, "cook@example.com", "wrong1").
		Return(nil, &client.APIError{Op: "login", StatusCode: http.StatusUnauthorized})

	w := serve(router, signInRequest("cook@example.com", "wrong1"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password.")
	assert.Empty(t, w.Result().Cookies())
}

func TestSignInUnavailable(t *testing.T) {
	router, _, auth, _ := setupRouter(t)
	auth.On("Login", mock.Anything, "cook@example.com", "secret1").
		Return(nil, fmt.Errorf("login: %w", client.ErrNetwork))

	w := serve(router, signInRequest("cook@example.com", "secret1"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Sign-in is unavailable")
}

func TestSignInMissingFields(t *testing.T) {
	router, _, auth, _ := setupRouter(t)

	w := serve(router, signInRequest("", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignOut(t *testing.T) {
	router, api, _, views := setupRouter(t)
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil).Once()
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil).Once()

	serve(router, signedIn(t, httptest.NewRequest(http.MethodGet, "/api/home", nil)))
	require.Equal(t, 1, views.Len())

	w := serve(router, signedIn(t, httptest.NewRequest(http.MethodPost, "/signout", nil)))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?notice="+NoticeSignedOut, w.Header().Get("Location"))
	assert.Equal(t, 0, views.Len())
	assertCleared(t, w)
}

func assertCleared(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	cleared := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared[c.Name] = true
		}
	}
	assert.True(t, cleared[testCookies.Credential])
	assert.True(t, cleared[testCookies.Identity])
}

func TestMutationLimiterFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	router, api, _, _ := setupRouterWithLimiter(t, middleware.NewMutationRateLimiter(rdb, 5, time.Minute))
	api.On("GetAllRecipes", mock.Anything, testToken).Return(testRecipes(), nil).Once()
	api.On("FavoriteRecipes", mock.Anything, testToken, "u1").Return([]string{}, nil).Once()
	api.On("AddFavorite", mock.Anything, testToken, "a").Return(nil).Once()

	w := serve(router, signedIn(t, jsonRequest(http.MethodPost, "/recipes/a/favorite")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Error"))
}
