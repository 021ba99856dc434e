package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v79"

	"github.com/inkstone-app/inkstone-api/app/models"
	"github.com/inkstone-app/inkstone-api/internal/pkg/billing"
	"github.com/inkstone-app/inkstone-api/internal/pkg/database"
	"github.com/inkstone-app/inkstone-api/internal/pkg/env"
)

var errInvalidSignature = errors.New("invalid webhook signature")

// webhookRecorder is the slice of the billing service the webhook flow uses.
type webhookRecorder interface {
	RecordWebhookEvent(ctx context.Context, in billing.WebhookEventInput) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error
}

// eventProcessor is the reconciler surface the webhook flow uses.
type eventProcessor interface {
	Process(ctx context.Context, event stripe.Event) error
}

// HandleStripeWebhook receives payment-platform events, records them
// idempotently and hands verified events to the reconciler. Recognized but
// no-op events still acknowledge with 200 so the sender stops redelivering;
// only internal failures return 500.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	db := database.GetDB()
	platform := billing.NewStripePlatformFromEnv()
	svc := billing.NewServiceFromDB(db, platform)
	reconciler := billing.NewReconciler(billing.NewRepository(db), platform, billing.NewPlanCatalogFromEnv())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	status, body := processStripeWebhook(ctx, svc, reconciler, rawBody, signature, secret)
	return c.Status(status).JSON(body)
}

// processStripeWebhook records the event, gates it on signature verification
// and hands verified first deliveries to the reconciler. Unverified events are
// persisted with signature_valid=false and rejected before any reconciliation.
func processStripeWebhook(ctx context.Context, svc webhookRecorder, reconciler eventProcessor, rawBody []byte, signature, secret string) (int, fiber.Map) {
	event, signatureValid := billing.VerifyStripeWebhookEvent(rawBody, signature, secret)
	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		EventID:        event.ID,
		EventType:      string(event.Type),
		PayloadJSON:    string(rawBody),
		SignatureValid: signatureValid,
	})
	if err != nil {
		return fiber.StatusInternalServerError, fiber.Map{
			"error":   "Webhook processing failed",
			"details": "event could not be persisted",
		}
	}
	if !created {
		return fiber.StatusOK, fiber.Map{
			"received":  true,
			"eventType": string(event.Type),
			"processed": false,
			"duplicate": true,
		}
	}
	if !signatureValid {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errInvalidSignature)
		return fiber.StatusUnauthorized, fiber.Map{"error": "invalid_signature"}
	}

	processErr := reconciler.Process(ctx, event)
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, processErr)
	if processErr != nil {
		return fiber.StatusInternalServerError, fiber.Map{
			"error":   "Webhook processing failed",
			"details": processErr.Error(),
		}
	}

	return fiber.StatusOK, fiber.Map{
		"received":  true,
		"eventType": string(event.Type),
		"processed": true,
	}
}
