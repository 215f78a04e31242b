// Package billing reconciles payment provider events into account tier and
// credit state. Provider payloads are normalized into Event values first;
// the reconciler never sees provider-specific structure.
package billing

import "time"

// EventType is the normalized billing event kind.
type EventType string

const (
	EventSubscriptionActivated EventType = "subscription_activated"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventCreditPackPurchased   EventType = "credit_pack_purchased"
)

// Event is a normalized plan change notification.
type Event struct {
	Type EventType

	// AccountRef is the external account reference carried by the provider,
	// the billing email address.
	AccountRef string

	// ProductID identifies what was purchased: a subscription plan for the
	// subscription events, a credit pack for EventCreditPackPurchased.
	ProductID string

	// TransactionID is the provider's unique transaction identifier, used to
	// deduplicate additive events on redelivery.
	TransactionID string

	OccurredAt time.Time
}
