package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/inkstone-app/inkstone-api/internal/pkg/billing"
	"github.com/inkstone-app/inkstone-api/internal/pkg/database"
)

type changeSubscriptionRequest struct {
	NewSubscription string `json:"newSubscription" validate:"required"`
	UserID          string `json:"userId" validate:"required"`
}

// HandleChangeSubscription creates, upgrades, downgrades or cancels the
// account's subscription. For new paid subscriptions the response carries the
// payment-confirmation material the mobile payment sheet needs; everything
// else responds with a success/message payload.
func HandleChangeSubscription(c *fiber.Ctx) error {
	var req changeSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: newSubscription and userId",
		})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: newSubscription and userId",
		})
	}

	svc := billing.NewServiceFromDB(database.GetDB(), billing.NewStripePlatformFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := svc.ChangeSubscription(ctx, req.UserID, req.NewSubscription)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrUnknownTier):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid subscription plan. Must be one of: free, basic_monthly, basic_yearly, pro_monthly, pro_yearly",
			})
		case errors.Is(err, billing.ErrPriceNotConfigured):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid subscription plan",
			})
		case errors.Is(err, billing.ErrAccountNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		case errors.Is(err, billing.ErrAlreadySubscribed):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "You are already subscribed to this plan.",
			})
		default:
			log.Printf("[subscription] change failed for user %s: %v", req.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "An error occurred while processing your subscription change",
				"details": err.Error(),
			})
		}
	}

	switch result.Kind {
	case billing.ChangePaymentRequired:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"clientSecret":   result.Payment.ClientSecret,
			"customerId":     result.Payment.CustomerID,
			"ephemeralKey":   result.Payment.EphemeralKey,
			"subscriptionId": result.Payment.SubscriptionID,
		})
	case billing.ChangeUpdated:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":             true,
			"changedSubscription": true,
			"message":             result.Message,
		})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": result.Message,
		})
	}
}
