package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
	"github.com/sublimeanger/vintifi/pkg/metering"
)

// handleSellWizard composes a first-draft listing. Free-tier accounts get
// one wizard run without a debit; the pass is consumed when the run
// delivers, so a failed run keeps it.
func (m *Module) handleSellWizard(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())

	var draft ListingDraft
	if err := decodeBody(r, &draft); err != nil {
		m.writeBadRequest(w, "malformed listing payload")
		return
	}
	if draft.Title == "" {
		m.writeBadRequest(w, "listing title is required")
		return
	}

	preview, err := m.meter.Preview(r.Context(), acct.ID, acct.Tier, entitlement.FeatureSellWizard)
	if err != nil {
		m.writeError(r.Context(), w, err)
		return
	}

	if preview.FirstItemPassActive {
		m.handleFirstItemWizard(w, r, draft)
		return
	}

	var result WizardListing
	dec, err := m.meter.Charge(r.Context(), acct.ID, acct.Tier, entitlement.FeatureSellWizard, 1,
		func(ctx context.Context) error { return m.composeWizard(ctx, draft, &result) })
	if err != nil {
		if errors.Is(err, metering.ErrEntitlementDenied) {
			m.writeDenial(w, dec)
			return
		}
		m.writeError(r.Context(), w, err)
		return
	}

	m.writeJSON(w, http.StatusOK, envelope{Data: struct {
		Wizard    WizardListing `json:"wizard"`
		Remaining int64         `json:"remaining"`
		FirstItem bool          `json:"first_item_pass_used"`
	}{Wizard: result, Remaining: dec.Remaining}})
}

// handleFirstItemWizard runs the one-shot free pass: no tier gate, no debit,
// flag marked only after delivered work.
func (m *Module) handleFirstItemWizard(w http.ResponseWriter, r *http.Request, draft ListingDraft) {
	acct := accountFrom(r.Context())

	var result WizardListing
	if err := m.composeWizard(r.Context(), draft, &result); err != nil {
		m.writeError(r.Context(), w, err)
		return
	}

	if err := m.ledgers.MarkFirstItemPassUsed(r.Context(), acct.ID); err != nil {
		// Same posture as a failed debit: the seller got their listing, the
		// inconsistent flag is an anomaly to reconcile, not a failure.
		m.log.ErrorContext(r.Context(), "failed to mark first item pass",
			"account_id", acct.ID, "error", err)
	}

	m.writeJSON(w, http.StatusOK, envelope{Data: struct {
		Wizard    WizardListing `json:"wizard"`
		FirstItem bool          `json:"first_item_pass_used"`
	}{Wizard: result, FirstItem: true}})
}

func (m *Module) composeWizard(ctx context.Context, draft ListingDraft, out *WizardListing) error {
	optimized, err := m.optimizer.Optimize(ctx, draft)
	if err != nil {
		return err
	}
	price, err := m.prices.Check(ctx, draft)
	if err != nil {
		return err
	}
	out.Listing = optimized
	out.Price = price
	return nil
}
