package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inkstone-app/inkstone-api/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Webhooks stay outside the rate-limited API group: the payment platform
	// retries on anything but a timely 2xx.
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
