// Package stubapi is a development stand-in for the remote recipe API. It
// serves the routes the recipe home consumes, backed by gorm.
package stubapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipehome/internal/middleware"
	"github.com/pageza/recipehome/internal/model"
	"github.com/pageza/recipehome/internal/types"
)

type Handler struct {
	db   *gorm.DB
	auth *AuthService
}

func NewHandler(db *gorm.DB, auth *AuthService) *Handler {
	return &Handler{db: db, auth: auth}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.auth)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	recipe := router.Group("/recipe")
	{
		recipe.GET("/getAllRecipes", h.GetAllRecipes)
		recipe.POST("/createRecipe", requireAuth, h.CreateRecipe)
		recipe.DELETE("/deleteRecipe/:id", requireAuth, h.DeleteRecipe)
	}

	user := router.Group("/user", requireAuth)
	{
		user.GET("/favoriteRecipes/:userId", h.FavoriteRecipes)
		user.PUT("/addFavRecipe/:id", h.AddFavorite)
		user.PUT("/removeFavRecipe/:id", h.RemoveFavorite)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.Register(req.Username, req.Email, req.Password)
	if errors.Is(err, ErrUserExists) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("register %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, types.AuthResponse{
		Token: token,
		User:  types.Identity{ID: user.ID, Username: user.Username},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, types.AuthResponse{
		Token: token,
		User:  types.Identity{ID: user.ID, Username: user.Username},
	})
}

func (h *Handler) GetAllRecipes(c *gin.Context) {
	var rows []model.Recipe
	if err := h.db.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	recipes := make([]types.Recipe, len(rows))
	for i, r := range rows {
		recipes[i] = r.ToType()
	}
	c.JSON(http.StatusOK, types.AllRecipesResponse{AllRecipes: recipes})
}

func (h *Handler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe := model.RecipeFromRequest(req, c.GetString("user_id"))
	if err := h.db.Create(&recipe).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recipe": recipe.ToType()})
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	id := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Recipe{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("recipe_id = ?", id).Delete(&model.RecipeFavorite{}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe deleted successfully",
		"id":      id,
	})
}

func (h *Handler) FavoriteRecipes(c *gin.Context) {
	userID := c.Param("userId")
	if userID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot read another user's favorites"})
		return
	}

	ids, err := h.favoriteIDs(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}
	c.JSON(http.StatusOK, types.FavoriteRecipesResponse{FavoriteRecipes: ids})
}

func (h *Handler) AddFavorite(c *gin.Context) {
	recipeID := c.Param("id")
	userID := c.GetString("user_id")

	var recipe model.Recipe
	if err := h.db.First(&recipe, "id = ?", recipeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}

	fav := model.RecipeFavorite{RecipeID: recipeID, UserID: userID}
	if err := h.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to favorite recipe"})
		return
	}

	h.respondFavorites(c, userID)
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	recipeID := c.Param("id")
	userID := c.GetString("user_id")

	if err := h.db.Where("recipe_id = ? AND user_id = ?", recipeID, userID).Delete(&model.RecipeFavorite{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfavorite recipe"})
		return
	}

	h.respondFavorites(c, userID)
}

func (h *Handler) respondFavorites(c *gin.Context, userID string) {
	ids, err := h.favoriteIDs(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}
	c.JSON(http.StatusOK, types.FavoriteRecipesResponse{FavoriteRecipes: ids})
}

func (h *Handler) favoriteIDs(userID string) ([]string, error) {
	ids := []string{}
	err := h.db.Model(&model.RecipeFavorite{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("recipe_id", &ids).Error
	return ids, err
}
