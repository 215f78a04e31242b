package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

// PaddleConfig holds the Paddle webhook ingress configuration.
type PaddleConfig struct {
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
}

// PaddleWebhook verifies and normalizes Paddle webhook deliveries. Checkout
// sessions seed custom_data.email with the account's billing email, which
// comes back on every event as the account reference.
type PaddleWebhook struct {
	verifier *paddle.WebhookVerifier
	catalog  *entitlement.Catalog
}

// NewPaddleWebhook creates the webhook ingress. The catalog decides whether
// a completed transaction is a credit pack or a plan purchase.
func NewPaddleWebhook(cfg PaddleConfig, catalog *entitlement.Catalog) (*PaddleWebhook, error) {
	if cfg.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}
	if catalog == nil {
		panic("billing: entitlement.Catalog is required")
	}
	return &PaddleWebhook{
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		catalog:  catalog,
	}, nil
}

// Parse verifies the request signature and maps the payload to an Event.
// Provider events outside the reconciled set return ErrUnsupportedEvent;
// the handler acknowledges those so Paddle stops redelivering them.
func (w *PaddleWebhook) Parse(r *http.Request) (Event, error) {
	valid, err := w.verifier.Verify(r)
	if err != nil {
		return Event{}, errors.Join(ErrVerificationFailed, err)
	}
	if !valid {
		return Event{}, ErrVerificationFailed
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return Event{}, fmt.Errorf("failed to read webhook body: %w", err)
	}

	return MapPaddleEvent(w.catalog, payload)
}

// paddlePayload is the subset of Paddle's webhook envelope the mapper reads.
type paddlePayload struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       struct {
		ID             string `json:"id"`
		SubscriptionID string `json:"subscription_id"`
		TransactionID  string `json:"transaction_id"`
		CustomData     struct {
			Email string `json:"email"`
		} `json:"custom_data"`
		Items []struct {
			Price struct {
				ID        string `json:"id"`
				ProductID string `json:"product_id"`
			} `json:"price"`
		} `json:"items"`
	} `json:"data"`
}

// MapPaddleEvent normalizes a verified Paddle payload into an Event.
// Exported separately from Parse so mapping is testable without signatures.
func MapPaddleEvent(catalog *entitlement.Catalog, payload []byte) (Event, error) {
	var p paddlePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Event{}, fmt.Errorf("failed to parse paddle payload: %w", err)
	}

	ev := Event{
		AccountRef: p.Data.CustomData.Email,
		ProductID:  paddleProductID(p),
		OccurredAt: p.OccurredAt,
	}

	switch p.EventType {
	case "subscription.activated", "subscription.created":
		ev.Type = EventSubscriptionActivated
		ev.TransactionID = p.Data.TransactionID
	case "subscription.updated", "subscription.resumed":
		ev.Type = EventSubscriptionUpdated
		ev.TransactionID = p.Data.TransactionID
	case "subscription.canceled":
		ev.Type = EventSubscriptionCancelled
	case "transaction.completed":
		ev.TransactionID = p.Data.ID
		if _, isPack := catalog.CreditPack(ev.ProductID); isPack {
			ev.Type = EventCreditPackPurchased
			break
		}
		// A completed plan transaction duplicates the subscription event
		// stream; only standalone purchases are reconciled from here.
		if p.Data.SubscriptionID != "" {
			return Event{}, fmt.Errorf("%w: %s for subscription %s",
				ErrUnsupportedEvent, p.EventType, p.Data.SubscriptionID)
		}
		ev.Type = EventSubscriptionActivated
	default:
		return Event{}, fmt.Errorf("%w: %s", ErrUnsupportedEvent, p.EventType)
	}

	return ev, nil
}

func paddleProductID(p paddlePayload) string {
	if len(p.Data.Items) == 0 {
		return ""
	}
	price := p.Data.Items[0].Price
	if price.ProductID != "" {
		return price.ProductID
	}
	return price.ID
}
