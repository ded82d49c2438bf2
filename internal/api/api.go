package api

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipehome/internal/middleware"
	"github.com/pageza/recipehome/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Options configures the UI router
type Options struct {
	Cookies    Cookies
	SignInPath string
	// Limiter throttles favorite and delete posts; nil disables it
	Limiter *middleware.RateLimiter
	Logger  *log.Logger
}

// NewRouter builds the browser UI on top of views
func NewRouter(views *service.Views, auth Authenticator, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.ErrorHandler())
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.tmpl")))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	NewHomeHandler(views, opts.Cookies, opts.SignInPath, opts.Limiter, opts.Logger).RegisterRoutes(router)
	NewAuthHandler(auth, views, opts.Cookies, opts.Logger).RegisterRoutes(router)

	return router
}
