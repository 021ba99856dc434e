package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v79"

	"github.com/inkstone-app/inkstone-api/app/models"
)

// Event tags the reconciler acts on. Everything else is acknowledged without
// a mutation.
const (
	eventCheckoutSessionCompleted = "checkout.session.completed"
	eventSubscriptionCreated      = "customer.subscription.created"
	eventSubscriptionUpdated      = "customer.subscription.updated"
	eventSubscriptionDeleted      = "customer.subscription.deleted"
	eventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	eventInvoicePaymentFailed     = "invoice.payment_failed"
)

// Payment attempts after which the account should be flagged for dunning
// notification.
const dunningAttemptThreshold = 3

// Reconciler maps inbound payment-platform events to account mutations.
//
// The stored tier only advances to a paid value on invoice.payment_succeeded;
// subscription creation and updates record identifiers but never grant
// entitlement, so out-of-order delivery of the non-payment events converges
// to the same row state.
type Reconciler struct {
	repo     Repository
	platform PaymentPlatform
	catalog  *PlanCatalog
}

// NewReconciler creates a webhook reconciler from injected collaborators.
func NewReconciler(repo Repository, platform PaymentPlatform, catalog *PlanCatalog) *Reconciler {
	return &Reconciler{repo: repo, platform: platform, catalog: catalog}
}

// Process applies a single verified event. A nil return means the event was
// handled or deliberately ignored and must be acknowledged to the sender; an
// error means internal processing failed and the sender should redeliver.
func (r *Reconciler) Process(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case eventCheckoutSessionCompleted:
		return r.handleCheckoutCompleted(event)
	case eventSubscriptionCreated:
		return r.handleSubscriptionCreated(event)
	case eventSubscriptionUpdated:
		return r.handleSubscriptionUpdated(event)
	case eventSubscriptionDeleted:
		return r.handleSubscriptionDeleted(event)
	case eventInvoicePaymentSucceeded:
		return r.handlePaymentSucceeded(ctx, event)
	case eventInvoicePaymentFailed:
		return r.handlePaymentFailed(event)
	default:
		log.Printf("[webhook] unhandled event type %s", event.Type)
		return nil
	}
}

func (r *Reconciler) handleCheckoutCompleted(event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}
	if session.Mode != stripe.CheckoutSessionModeSubscription {
		return nil
	}
	if session.Customer == nil || session.Subscription == nil {
		log.Printf("[webhook] checkout session %s without customer or subscription", session.ID)
		return nil
	}
	// Record identifiers only; the tier stays unchanged until payment is
	// confirmed by invoice.payment_succeeded.
	return r.recordIdentifiers(session.Customer.ID, session.Subscription.ID)
}

func (r *Reconciler) handleSubscriptionCreated(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	if sub.Customer == nil {
		log.Printf("[webhook] subscription %s without customer", sub.ID)
		return nil
	}
	return r.recordIdentifiers(sub.Customer.ID, sub.ID)
}

func (r *Reconciler) handleSubscriptionUpdated(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	if sub.Customer == nil {
		log.Printf("[webhook] subscription %s without customer", sub.ID)
		return nil
	}

	switch sub.Status {
	case stripe.SubscriptionStatusCanceled:
		return r.updateTierByCustomer(sub.Customer.ID, models.TierFree)
	case stripe.SubscriptionStatusActive:
		priceID := firstItemPriceID(&sub)
		tier := r.catalog.TierForPriceID(priceID)
		if tier == "" {
			// Unmapped price: do not write an out-of-enum tier. The next
			// payment-succeeded event converges the row.
			log.Printf("[webhook] subscription %s active with unmapped price %q", sub.ID, priceID)
			return nil
		}
		return r.updateTierByCustomer(sub.Customer.ID, tier)
	default:
		log.Printf("[webhook] subscription %s updated, status %s - waiting for activation", sub.ID, sub.Status)
		return nil
	}
}

func (r *Reconciler) handleSubscriptionDeleted(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	if sub.Customer == nil {
		log.Printf("[webhook] deleted subscription %s without customer", sub.ID)
		return nil
	}
	// Tier reverts to free; customer and subscription identifiers are kept
	// for reactivation.
	return r.updateTierByCustomer(sub.Customer.ID, models.TierFree)
}

// handlePaymentSucceeded is the only path that may move the tier to a paid
// value. The current price is resolved from the platform rather than trusted
// from the invoice payload.
func (r *Reconciler) handlePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}
	if invoice.Customer == nil || invoice.Subscription == nil {
		log.Printf("[webhook] paid invoice %s without subscription", invoice.ID)
		return nil
	}

	sub, err := r.platform.RetrieveSubscription(ctx, invoice.Subscription.ID)
	if err != nil {
		return fmt.Errorf("retrieve subscription %s: %w", invoice.Subscription.ID, err)
	}
	tier := r.catalog.TierForPriceID(sub.PriceID)
	if tier == "" {
		log.Printf("[webhook] paid subscription %s with unmapped price %q", sub.ID, sub.PriceID)
		return nil
	}
	return r.updateTierByCustomer(invoice.Customer.ID, tier)
}

func (r *Reconciler) handlePaymentFailed(event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}
	// No mutation: the account keeps its current tier until payment succeeds
	// or the platform cancels the subscription.
	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	log.Printf("[webhook] payment failed for customer %s, attempt %d", customerID, invoice.AttemptCount)
	if invoice.AttemptCount >= dunningAttemptThreshold {
		// TODO: hand off to the notification service once it exists.
		log.Printf("[webhook] customer %s flagged for dunning notification after %d failed attempts", customerID, invoice.AttemptCount)
	}
	return nil
}

func (r *Reconciler) recordIdentifiers(customerID, subscriptionID string) error {
	rows, err := r.repo.UpdateByCustomerID(customerID, map[string]interface{}{
		"customer_id":              customerID,
		"platform_subscription_id": subscriptionID,
	})
	if err != nil {
		return fmt.Errorf("record identifiers for customer %s: %w", customerID, err)
	}
	if rows == 0 {
		log.Printf("[webhook] no local account for customer %s", customerID)
	}
	return nil
}

func (r *Reconciler) updateTierByCustomer(customerID, tier string) error {
	rows, err := r.repo.UpdateByCustomerID(customerID, map[string]interface{}{
		"subscription_tier": tier,
	})
	if err != nil {
		return fmt.Errorf("update tier for customer %s: %w", customerID, err)
	}
	if rows == 0 {
		log.Printf("[webhook] no local account for customer %s", customerID)
	}
	return nil
}

func firstItemPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}
