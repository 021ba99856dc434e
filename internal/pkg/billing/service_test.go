package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkstone-app/inkstone-api/app/models"
)

// fakeRepository keeps accounts in memory, keyed by user id, and records the
// mutations the service performs.
type fakeRepository struct {
	accounts map[string]*models.Account
	events   map[string]*models.WebhookEvent
	nextID   uint

	saveSubscriptionErr error
	processedIDs        []uint
	processedErrs       []string
}

func newFakeRepository(accounts ...*models.Account) *fakeRepository {
	r := &fakeRepository{
		accounts: make(map[string]*models.Account),
		events:   make(map[string]*models.WebhookEvent),
	}
	for _, a := range accounts {
		r.accounts[a.UserID] = a
	}
	return r
}

func (r *fakeRepository) GetAccountByUserID(userID string) (*models.Account, error) {
	a, ok := r.accounts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeRepository) SaveCustomerID(userID, customerID string) error {
	a, ok := r.accounts[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.CustomerID = customerID
	return nil
}

func (r *fakeRepository) SavePlatformSubscriptionID(userID, subscriptionID string) error {
	if r.saveSubscriptionErr != nil {
		return r.saveSubscriptionErr
	}
	a, ok := r.accounts[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.PlatformSubscriptionID = subscriptionID
	return nil
}

func (r *fakeRepository) UpdateTierByUserID(userID, tier string) error {
	a, ok := r.accounts[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.SubscriptionTier = tier
	return nil
}

func (r *fakeRepository) UpdateByCustomerID(customerID string, updates map[string]interface{}) (int64, error) {
	var rows int64
	for _, a := range r.accounts {
		if a.CustomerID != customerID {
			continue
		}
		rows++
		if v, ok := updates["customer_id"].(string); ok {
			a.CustomerID = v
		}
		if v, ok := updates["platform_subscription_id"].(string); ok {
			a.PlatformSubscriptionID = v
		}
		if v, ok := updates["subscription_tier"].(string); ok {
			a.SubscriptionTier = v
		}
	}
	return rows, nil
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if existing, ok := r.events[event.EventID]; ok {
		copied := *existing
		return false, &copied, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[event.EventID] = event
	copied := *event
	return true, &copied, nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	r.processedIDs = append(r.processedIDs, id)
	r.processedErrs = append(r.processedErrs, processingError)
	return nil
}

// fakePlatform records every call and hands back canned identifiers.
type fakePlatform struct {
	calls []string

	subscription *PlatformSubscription
	retrieveErr  error
	createSubErr error
}

func (p *fakePlatform) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	p.calls = append(p.calls, "CreateCustomer")
	return "cus_new", nil
}

func (p *fakePlatform) RetrieveSubscription(ctx context.Context, subscriptionID string) (*PlatformSubscription, error) {
	p.calls = append(p.calls, "RetrieveSubscription")
	if p.retrieveErr != nil {
		return nil, p.retrieveErr
	}
	if p.subscription != nil {
		return p.subscription, nil
	}
	return &PlatformSubscription{ID: subscriptionID, ItemID: "si_1", PriceID: "price_basic_m", Status: "active"}, nil
}

func (p *fakePlatform) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	p.calls = append(p.calls, "CancelAtPeriodEnd")
	return nil
}

func (p *fakePlatform) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) error {
	p.calls = append(p.calls, fmt.Sprintf("UpdateSubscriptionPrice:%s:%s", itemID, priceID))
	return nil
}

func (p *fakePlatform) CreateIncompleteSubscription(ctx context.Context, customerID, priceID string) (string, string, error) {
	p.calls = append(p.calls, "CreateIncompleteSubscription:"+priceID)
	if p.createSubErr != nil {
		return "", "", p.createSubErr
	}
	return "sub_new", "pi_secret_123", nil
}

func (p *fakePlatform) CreateEphemeralKey(ctx context.Context, customerID string) (string, error) {
	p.calls = append(p.calls, "CreateEphemeralKey")
	return "ek_secret_123", nil
}

func freeAccount(userID string) *models.Account {
	return &models.Account{
		UserID:               userID,
		Email:                userID + "@example.com",
		ThemeName:            models.ThemeDefault,
		NotificationsEnabled: true,
		SubscriptionTier:     models.TierFree,
	}
}

func TestChangeSubscriptionUnknownTier(t *testing.T) {
	repo := newFakeRepository(freeAccount("user-1"))
	platform := &fakePlatform{}
	svc := NewService(repo, platform, testCatalog())

	for _, tier := range []string{"premium", "", "free_monthly"} {
		_, err := svc.ChangeSubscription(context.Background(), "user-1", tier)
		assert.ErrorIs(t, err, ErrUnknownTier, "tier %q", tier)
	}

	// Validation failures never touch the platform or the stored row.
	assert.Empty(t, platform.calls)
	assert.Equal(t, models.TierFree, repo.accounts["user-1"].SubscriptionTier)
}

func TestChangeSubscriptionAccountNotFound(t *testing.T) {
	repo := newFakeRepository()
	platform := &fakePlatform{}
	svc := NewService(repo, platform, testCatalog())

	_, err := svc.ChangeSubscription(context.Background(), "ghost", models.TierProMonthly)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Empty(t, platform.calls)
}

func TestChangeSubscriptionAlreadySubscribed(t *testing.T) {
	acct := freeAccount("user-1")
	acct.SubscriptionTier = models.TierProMonthly
	acct.CustomerID = "cus_1"
	acct.PlatformSubscriptionID = "sub_1"
	repo := newFakeRepository(acct)
	platform := &fakePlatform{}
	svc := NewService(repo, platform, testCatalog())

	_, err := svc.ChangeSubscription(context.Background(), "user-1", models.TierProMonthly)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.Empty(t, platform.calls)
}

func TestChangeSubscriptionNewPaid(t *testing.T) {
	repo := newFakeRepository(freeAccount("user-1"))
	platform := &fakePlatform{}
	svc := NewService(repo, platform, testCatalog())

	result, err := svc.ChangeSubscription(context.Background(), "user-1", models.TierProMonthly)
	require.NoError(t, err)
	require.Equal(t, ChangePaymentRequired, result.Kind)
	require.NotNil(t, result.Payment)

	assert.Equal(t, "pi_secret_123", result.Payment.ClientSecret)
	assert.Equal(t, "cus_new", result.Payment.CustomerID)
	assert.Equal(t, "ek_secret_123", result.Payment.EphemeralKey)
	assert.Equal(t, "sub_new", result.Payment.SubscriptionID)

	// The ephemeral key is created before the subscription so the payment
	// sheet can be presented as soon as the secret arrives.
	assert.Equal(t, []string{
		"CreateCustomer",
		"CreateEphemeralKey",
		"CreateIncompleteSubscription:price_pro_m",
	}, platform.calls)

	// Identifiers are recorded but the tier stays free until payment is
	// confirmed through the webhook path.
	acct := repo.accounts["user-1"]
	assert.Equal(t, "cus_new", acct.CustomerID)
	assert.Equal(t, "sub_new", acct.PlatformSubscriptionID)
	assert.Equal(t, models.TierFree, acct.SubscriptionTier)
}

func TestChangeSubscriptionNewPaidSaveFailureStillReturnsPayment(t *testing.T) {
	repo := newFakeRepository(freeAccount("user-1"))
	repo.saveSubscriptionErr = errors.New("db gone")
	platform := &fakePlatform{}
	svc := NewService(repo, platform, testCatalog())

	result, err := svc.ChangeSubscription(context.Background(), "user-1", models.TierBasicMonthly)
	require.NoError(t, err)
	require.Equal(t, ChangePaymentRequired, result.Kind)
	assert.Equal(t, "sub_new", result.Payment.SubscriptionID)
}

func TestChangeSubscriptionNewFree(t *testing.T) {
	acct := freeAccount("user-1")
	acct.SubscriptionTier = models.TierBasicMonthly
	repo := newFakeRepository(acct)
	platform := &fakePlatform{}
	svc := NewService(repo, platform, testCatalog())

	result, err := svc.ChangeSubscription(context.Background(), "user-1", models.TierFree)
	require.NoError(t, err)
	assert.Equal(t, ChangeFreeActivated, result.Kind)
	assert.Equal(t, "Free subscription activated", result.Message)
	assert.Equal(t, models.TierFree, repo.accounts["user-1"].SubscriptionTier)
}

func TestChangeSubscriptionCancelExisting(t *testing.T) {
	acct := freeAccount("user-1")
	acct.SubscriptionTier = models.TierProYearly
	acct.CustomerID = "cus_1"
	acct.PlatformSubscriptionID = "sub_1"
	repo := newFakeRepository(acct)
	platform := &fakePlatform{}
	svc := NewService(repo, platform, testCatalog())

	result, err := svc.ChangeSubscription(context.Background(), "user-1", models.TierFree)
	require.NoError(t, err)
	assert.Equal(t, ChangeUpdated, result.Kind)
	assert.Equal(t, "Subscription set to cancel at period end", result.Message)
	assert.Equal(t, []string{"CancelAtPeriodEnd"}, platform.calls)

	// The tier reverts immediately; identifiers survive for reactivation.
	stored := repo.accounts["user-1"]
	assert.Equal(t, models.TierFree, stored.SubscriptionTier)
	assert.Equal(t, "cus_1", stored.CustomerID)
	assert.Equal(t, "sub_1", stored.PlatformSubscriptionID)
}

func TestChangeSubscriptionUpgradeExisting(t *testing.T) {
	acct := freeAccount("user-1")
	acct.SubscriptionTier = models.TierBasicMonthly
	acct.CustomerID = "cus_1"
	acct.PlatformSubscriptionID = "sub_1"
	repo := newFakeRepository(acct)
	platform := &fakePlatform{
		subscription: &PlatformSubscription{ID: "sub_1", ItemID: "si_9", PriceID: "price_basic_m", Status: "active"},
	}
	svc := NewService(repo, platform, testCatalog())

	result, err := svc.ChangeSubscription(context.Background(), "user-1", models.TierProYearly)
	require.NoError(t, err)
	assert.Equal(t, ChangeUpdated, result.Kind)
	assert.Equal(t, "Subscription updated successfully", result.Message)
	assert.Equal(t, []string{
		"RetrieveSubscription",
		"UpdateSubscriptionPrice:si_9:price_pro_y",
	}, platform.calls)
	assert.Equal(t, models.TierProYearly, repo.accounts["user-1"].SubscriptionTier)
}

func TestChangeSubscriptionPriceNotConfigured(t *testing.T) {
	repo := newFakeRepository(freeAccount("user-1"))
	platform := &fakePlatform{}
	svc := NewService(repo, platform, NewPlanCatalog(nil))

	_, err := svc.ChangeSubscription(context.Background(), "user-1", models.TierProMonthly)
	assert.ErrorIs(t, err, ErrPriceNotConfigured)
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, &fakePlatform{}, testCatalog())

	in := WebhookEventInput{
		EventID:        "evt_1",
		EventType:      "invoice.payment_succeeded",
		PayloadJSON:    `{"id":"evt_1"}`,
		SignatureValid: true,
	}

	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first)

	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestRecordWebhookEventHashesMissingID(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, &fakePlatform{}, testCatalog())

	created, event, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		PayloadJSON: `{"some":"payload"}`,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, event.EventID, "hash:")

	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		PayloadJSON: `{"some":"payload"}`,
	})
	require.NoError(t, err)
	assert.False(t, created, "identical payload should dedupe on the hash key")
}

func TestMarkWebhookProcessed(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, &fakePlatform{}, testCatalog())

	require.Error(t, svc.MarkWebhookProcessed(context.Background(), 0, nil))

	require.NoError(t, svc.MarkWebhookProcessed(context.Background(), 7, errors.New("boom")))
	require.NoError(t, svc.MarkWebhookProcessed(context.Background(), 8, nil))
	assert.Equal(t, []uint{7, 8}, repo.processedIDs)
	assert.Equal(t, []string{"boom", ""}, repo.processedErrs)
}
