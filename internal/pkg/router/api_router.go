package router

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/inkstone-app/inkstone-api/app/controllers"
	"github.com/inkstone-app/inkstone-api/internal/pkg/env"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Storage: newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	v1.Post("/subscription/change", controllers.HandleChangeSubscription)
	v1.Get("/account/:userID", controllers.HandleGetAccount)
	v1.Put("/account/:userID/theme", controllers.HandleUpdateAccountTheme)
	v1.Put("/account/:userID/notifications", controllers.HandleUpdateAccountNotifications)
}

// newLimiterStorage backs the rate limiter with Redis so limits survive
// restarts and hold across replicas.
func newLimiterStorage() fiber.Storage {
	port := 6379
	if v, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379")); err == nil {
		port = v
	}
	return redis.New(redis.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: 1,
		Reset:    false,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
