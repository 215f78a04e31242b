package dashboard

import (
	"errors"
	"net/http"

	"github.com/sublimeanger/vintifi/pkg/billing"
)

// handlePaymentWebhook ingests Paddle deliveries. Events outside the
// reconciled set are acknowledged so the provider stops redelivering them;
// reconciliation failures return 5xx to request a redelivery.
func (m *Module) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ev, err := m.webhook.Parse(r)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrUnsupportedEvent):
			m.writeJSON(w, http.StatusOK, envelope{Data: map[string]string{"status": "ignored"}})
		case errors.Is(err, billing.ErrVerificationFailed):
			m.writeError(r.Context(), w, err)
		default:
			m.writeBadRequest(w, "malformed webhook payload")
		}
		return
	}

	if err := m.reconciler.Apply(r.Context(), ev); err != nil {
		m.log.ErrorContext(r.Context(), "webhook reconciliation failed",
			"event_type", ev.Type, "transaction_id", ev.TransactionID, "error", err)
		m.writeJSON(w, http.StatusInternalServerError, envelope{
			Error: &apiError{Code: "reconciliation_failed", Message: err.Error()},
		})
		return
	}

	m.writeJSON(w, http.StatusOK, envelope{Data: map[string]string{"status": "applied"}})
}
