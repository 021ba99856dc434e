package billing

import (
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// VerifyStripeWebhookEvent checks the Stripe-Signature header against the
// configured webhook secret and returns the parsed event. When verification
// fails the payload is still parsed best-effort so the event can be recorded
// with signature_valid=false, but the second return value is false and the
// event must not be processed.
func VerifyStripeWebhookEvent(payload []byte, signatureHeader, webhookSecret string) (stripe.Event, bool) {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig != "" && secret != "" {
		if event, err := webhook.ConstructEvent(payload, sig, secret); err == nil {
			return event, true
		}
	}

	var event stripe.Event
	_ = json.Unmarshal(payload, &event)
	return event, false
}
