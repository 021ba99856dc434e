package billing

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/inkstone-app/inkstone-api/internal/pkg/env"
)

// Pinned API version handed to the mobile payment sheet via ephemeral keys.
const stripeMobileAPIVersion = "2024-06-20"

// PaymentPlatform is the narrow payment-processor surface used by the
// subscription service and the webhook reconciler. Implementations must be
// safe for concurrent use.
type PaymentPlatform interface {
	CreateCustomer(ctx context.Context, userID, email string) (string, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*PlatformSubscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) error
	CreateIncompleteSubscription(ctx context.Context, customerID, priceID string) (subscriptionID, clientSecret string, err error)
	CreateEphemeralKey(ctx context.Context, customerID string) (string, error)
}

type stripePlatform struct {
	api *client.API
}

// NewStripePlatform creates a Stripe-backed payment platform client.
func NewStripePlatform(secretKey string) PaymentPlatform {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripePlatform{api: api}
}

// NewStripePlatformFromEnv creates a Stripe client from STRIPE_SECRET_KEY.
func NewStripePlatformFromEnv() PaymentPlatform {
	return NewStripePlatform(env.GetEnv("STRIPE_SECRET_KEY", ""))
}

func (p *stripePlatform) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.AddMetadata("userId", userID)

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (p *stripePlatform) RetrieveSubscription(ctx context.Context, subscriptionID string) (*PlatformSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, err
	}
	return platformSubscriptionFromStripe(sub), nil
}

func (p *stripePlatform) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	_, err := p.api.Subscriptions.Update(subscriptionID, params)
	return err
}

func (p *stripePlatform) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) error {
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{{
			ID:    stripe.String(itemID),
			Price: stripe.String(priceID),
		}},
		ProrationBehavior: stripe.String("always_invoice"),
	}
	params.Context = ctx

	_, err := p.api.Subscriptions.Update(subscriptionID, params)
	return err
}

func (p *stripePlatform) CreateIncompleteSubscription(ctx context.Context, customerID, priceID string) (string, string, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{{
			Price: stripe.String(priceID),
		}},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return "", "", err
	}
	if sub.LatestInvoice == nil || sub.LatestInvoice.PaymentIntent == nil {
		return sub.ID, "", errors.New("subscription created without payment intent")
	}
	return sub.ID, sub.LatestInvoice.PaymentIntent.ClientSecret, nil
}

func (p *stripePlatform) CreateEphemeralKey(ctx context.Context, customerID string) (string, error) {
	params := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(customerID),
		StripeVersion: stripe.String(stripeMobileAPIVersion),
	}
	params.Context = ctx

	ek, err := p.api.EphemeralKeys.New(params)
	if err != nil {
		return "", err
	}
	return ek.Secret, nil
}

func platformSubscriptionFromStripe(sub *stripe.Subscription) *PlatformSubscription {
	ps := &PlatformSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		ps.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		ps.ItemID = item.ID
		if item.Price != nil {
			ps.PriceID = item.Price.ID
		}
	}
	return ps
}
