package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/inkstone-app/inkstone-api/app/models"
	"gorm.io/gorm"
)

// Sentinel errors mapped to HTTP failure classes by the controllers.
var (
	ErrUnknownTier        = errors.New("unknown subscription tier")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAlreadySubscribed  = errors.New("already subscribed to this tier")
	ErrPriceNotConfigured = errors.New("no price configured for tier")
)

// Service implements the synchronous subscription change flow against the
// payment platform and the accounts store.
type Service struct {
	repo     Repository
	platform PaymentPlatform
	catalog  *PlanCatalog
}

// NewService creates a subscription service from injected collaborators.
func NewService(repo Repository, platform PaymentPlatform, catalog *PlanCatalog) *Service {
	return &Service{repo: repo, platform: platform, catalog: catalog}
}

// NewServiceFromDB creates a subscription service from a GORM DB handle with
// the env-configured plan catalog.
func NewServiceFromDB(db *gorm.DB, platform PaymentPlatform) *Service {
	return NewService(NewRepository(db), platform, NewPlanCatalogFromEnv())
}

// ChangeSubscription creates, upgrades, downgrades or cancels the account's
// subscription. The stored tier only advances to a paid value through the
// reconciler's payment-succeeded path; this flow records identifiers and
// downgrades, and hands back payment material for new paid subscriptions.
func (s *Service) ChangeSubscription(ctx context.Context, userID, targetTier string) (*ChangeResult, error) {
	target := normalizeTier(targetTier)
	if userID == "" || target == "" || !IsValidTier(target) {
		return nil, ErrUnknownTier
	}

	acct, err := s.repo.GetAccountByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if acct.SubscriptionTier == target {
		return nil, ErrAlreadySubscribed
	}

	customerID := acct.CustomerID
	if customerID == "" {
		customerID, err = s.platform.CreateCustomer(ctx, userID, acct.Email)
		if err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		if err := s.repo.SaveCustomerID(userID, customerID); err != nil {
			return nil, fmt.Errorf("save customer id: %w", err)
		}
	}

	if acct.PlatformSubscriptionID != "" {
		return s.changeExisting(ctx, acct, customerID, target)
	}
	return s.createNew(ctx, acct, customerID, target)
}

// changeExisting mutates the live platform subscription. Cancellation writes
// the free tier immediately; the platform keeps the subscription until period
// end and the deleted webhook converges the row either way.
func (s *Service) changeExisting(ctx context.Context, acct *models.Account, customerID, target string) (*ChangeResult, error) {
	if target == models.TierFree {
		if err := s.platform.CancelAtPeriodEnd(ctx, acct.PlatformSubscriptionID); err != nil {
			return nil, fmt.Errorf("cancel subscription: %w", err)
		}
		if err := s.repo.UpdateTierByUserID(acct.UserID, models.TierFree); err != nil {
			return nil, fmt.Errorf("update tier: %w", err)
		}
		return &ChangeResult{
			Kind:    ChangeUpdated,
			Message: "Subscription set to cancel at period end",
		}, nil
	}

	priceID := s.catalog.PriceIDForTier(target)
	if priceID == "" {
		return nil, ErrPriceNotConfigured
	}

	current, err := s.platform.RetrieveSubscription(ctx, acct.PlatformSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription: %w", err)
	}
	if err := s.platform.UpdateSubscriptionPrice(ctx, current.ID, current.ItemID, priceID); err != nil {
		return nil, fmt.Errorf("update subscription price: %w", err)
	}
	if err := s.repo.UpdateTierByUserID(acct.UserID, target); err != nil {
		return nil, fmt.Errorf("update tier: %w", err)
	}
	return &ChangeResult{
		Kind:    ChangeUpdated,
		Message: "Subscription updated successfully",
	}, nil
}

func (s *Service) createNew(ctx context.Context, acct *models.Account, customerID, target string) (*ChangeResult, error) {
	if target == models.TierFree {
		if err := s.repo.UpdateTierByUserID(acct.UserID, models.TierFree); err != nil {
			return nil, fmt.Errorf("update tier: %w", err)
		}
		return &ChangeResult{
			Kind:    ChangeFreeActivated,
			Message: "Free subscription activated",
		}, nil
	}

	priceID := s.catalog.PriceIDForTier(target)
	if priceID == "" {
		return nil, ErrPriceNotConfigured
	}

	ephemeralKey, err := s.platform.CreateEphemeralKey(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("create ephemeral key: %w", err)
	}

	subscriptionID, clientSecret, err := s.platform.CreateIncompleteSubscription(ctx, customerID, priceID)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	// The platform subscription exists at this point; a failed save leaves it
	// recoverable through the platform's own records, so the caller can still
	// complete payment.
	if err := s.repo.SavePlatformSubscriptionID(acct.UserID, subscriptionID); err != nil {
		log.Printf("[billing] failed to save platform subscription id for user %s: %v", acct.UserID, err)
	}

	return &ChangeResult{
		Kind: ChangePaymentRequired,
		Payment: &PaymentSetup{
			ClientSecret:   clientSecret,
			CustomerID:     customerID,
			EphemeralKey:   ephemeralKey,
			SubscriptionID: subscriptionID,
		},
	}, nil
}

// RecordWebhookEvent persists webhook payloads idempotently. Events without a
// provider id are keyed by a payload hash.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		EventID:        eventID,
		EventType:      strings.TrimSpace(in.EventType),
		PayloadJSON:    in.PayloadJSON,
		SignatureValid: in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
