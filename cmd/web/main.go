package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pageza/recipehome/config"
	"github.com/pageza/recipehome/internal/api"
	"github.com/pageza/recipehome/internal/client"
	"github.com/pageza/recipehome/internal/database"
	"github.com/pageza/recipehome/internal/middleware"
	"github.com/pageza/recipehome/internal/server"
	"github.com/pageza/recipehome/internal/service"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := log.New(os.Stderr, "[web] ", log.LstdFlags)

	recipeAPI := client.New(cfg.APIBaseURL)
	views := service.NewViewsWithLimits(recipeAPI, logger, cfg.ViewLimit, cfg.ViewIdleTTL)

	// Drop idle session views in the background
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweepEvery := cfg.ViewIdleTTL / 2
	if sweepEvery < time.Second {
		sweepEvery = time.Second
	}
	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := views.Sweep(); n > 0 {
					logger.Printf("Dropped %d idle session views", n)
				}
			}
		}
	}()

	var limiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg)
		if err != nil {
			logger.Printf("Rate limiting disabled: %v", err)
		} else {
			defer redisClient.Close()
			limiter = middleware.NewMutationRateLimiter(redisClient, cfg.RateLimit, cfg.RateWindow)
		}
	}

	router := api.NewRouter(views, recipeAPI, api.Options{
		Cookies: api.Cookies{
			Credential: cfg.SessionCookie,
			Identity:   cfg.IdentityCookie,
		},
		SignInPath: cfg.SignInPath,
		Limiter:    limiter,
		Logger:     logger,
	})

	srv := server.New(cfg.Addr(), router, logger)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		logger.Printf("Starting UI server against %s", cfg.APIBaseURL)
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		logger.Printf("Received signal: %v", sig)
	}

	logger.Println("Shutting down server...")
	stopSweep()
	views.Close()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Fatalf("Server shutdown error: %v", err)
	}
	logger.Println("Server stopped")
}
