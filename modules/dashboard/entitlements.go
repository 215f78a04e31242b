package dashboard

import (
	"net/http"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

type featureState struct {
	Key     entitlement.FeatureKey `json:"key"`
	Label   string                 `json:"label"`
	Allowed bool                   `json:"allowed"`
	Reason  string                 `json:"reason,omitempty"`
}

type entitlementsBody struct {
	Tier                entitlement.Tier `json:"tier"`
	Remaining           int64            `json:"remaining"`
	Unlimited           bool             `json:"unlimited"`
	FirstItemPassActive bool             `json:"first_item_pass_active"`
	Features            []featureState   `json:"features"`
}

// handleEntitlements evaluates every feature speculatively so the UI can
// render disabled states and upgrade prompts. It never mutates the ledger.
func (m *Module) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())
	catalog := m.meter.Catalog()

	body := entitlementsBody{Tier: acct.Tier}
	for _, key := range catalog.FeatureKeys() {
		dec, err := m.meter.Preview(r.Context(), acct.ID, acct.Tier, key)
		if err != nil {
			m.writeError(r.Context(), w, err)
			return
		}

		cfg, err := catalog.Feature(key)
		if err != nil {
			m.writeError(r.Context(), w, err)
			return
		}

		body.Remaining = dec.Remaining
		body.Unlimited = dec.Unlimited
		if dec.FirstItemPassActive {
			body.FirstItemPassActive = true
		}
		body.Features = append(body.Features, featureState{
			Key:     key,
			Label:   cfg.Label,
			Allowed: dec.Allowed,
			Reason:  dec.Reason,
		})
	}

	m.writeJSON(w, http.StatusOK, envelope{Data: body})
}
