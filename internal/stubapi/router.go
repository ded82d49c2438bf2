package stubapi

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/recipehome/internal/middleware"
)

// NewRouter wires the stand-in API routes under /api
func NewRouter(db *gorm.DB, auth *AuthService, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.ErrorHandler())
	router.Use(middleware.CORS(origins))

	NewHandler(db, auth).RegisterRoutes(router.Group("/api"))

	return router
}
