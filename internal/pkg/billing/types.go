package billing

// Change result kinds returned by Service.ChangeSubscription.
const (
	ChangeUpdated         = "updated"
	ChangeFreeActivated   = "free_activated"
	ChangePaymentRequired = "payment_required"
)

// PaymentSetup carries the material the mobile payment sheet needs to collect
// payment for a newly created incomplete subscription.
type PaymentSetup struct {
	ClientSecret   string
	CustomerID     string
	EphemeralKey   string
	SubscriptionID string
}

// ChangeResult is the outcome of a subscription change request. Payment is
// set only for ChangePaymentRequired.
type ChangeResult struct {
	Kind    string
	Message string
	Payment *PaymentSetup
}

// PlatformSubscription is the narrow projection of a payment-platform
// subscription object used by the service and reconciler.
type PlatformSubscription struct {
	ID                string
	CustomerID        string
	ItemID            string
	PriceID           string
	Status            string
	CancelAtPeriodEnd bool
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	EventID        string
	EventType      string
	PayloadJSON    string
	SignatureValid bool
}
