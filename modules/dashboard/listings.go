package dashboard

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/text/language"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
	"github.com/sublimeanger/vintifi/pkg/metering"
)

func (m *Module) handlePriceCheck(w http.ResponseWriter, r *http.Request) {
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

	var result PriceCheckResult
	dec, err := m.meter.Charge(r.Context(), acct.ID, acct.Tier, entitlement.FeaturePriceCheck, 1,
		func(ctx context.Context) error {
			var workErr error
			result, workErr = m.prices.Check(ctx, draft)
			return workErr
		})
	if err != nil {
		if errors.Is(err, metering.ErrEntitlementDenied) {
			m.writeDenial(w, dec)
			return
		}
		m.writeError(r.Context(), w, err)
		return
	}

	m.writeJSON(w, http.StatusOK, envelope{Data: struct {
		Result    PriceCheckResult `json:"result"`
		Remaining int64            `json:"remaining"`
	}{Result: result, Remaining: dec.Remaining}})
}

func (m *Module) handleOptimizeListing(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())

	var draft ListingDraft
	if err := decodeBody(r, &draft); err != nil {
		m.writeBadRequest(w, "malformed listing payload")
		return
	}
	if draft.Title == "" && draft.Description == "" {
		m.writeBadRequest(w, "listing title or description is required")
		return
	}

	var result OptimizedListing
	dec, err := m.meter.Charge(r.Context(), acct.ID, acct.Tier, entitlement.FeatureListingOptimize, 1,
		func(ctx context.Context) error {
			var workErr error
			result, workErr = m.optimizer.Optimize(ctx, draft)
			return workErr
		})
	if err != nil {
		if errors.Is(err, metering.ErrEntitlementDenied) {
			m.writeDenial(w, dec)
			return
		}
		m.writeError(r.Context(), w, err)
		return
	}

	m.writeJSON(w, http.StatusOK, envelope{Data: struct {
		Listing   OptimizedListing `json:"listing"`
		Remaining int64            `json:"remaining"`
	}{Listing: result, Remaining: dec.Remaining}})
}

type translateRequest struct {
	Listing ListingDraft `json:"listing"`
	Targets []string     `json:"targets"`
}

// handleTranslateListing debits one credit per target language; the debit
// multiplier is the parsed target count.
func (m *Module) handleTranslateListing(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())

	var req translateRequest
	if err := decodeBody(r, &req); err != nil {
		m.writeBadRequest(w, "malformed translation payload")
		return
	}
	if len(req.Targets) == 0 {
		m.writeBadRequest(w, "at least one target language is required")
		return
	}

	targets := make([]language.Tag, 0, len(req.Targets))
	for _, raw := range req.Targets {
		tag, err := language.Parse(raw)
		if err != nil {
			m.writeBadRequest(w, "invalid target language: "+raw)
			return
		}
		targets = append(targets, tag)
	}

	var translations []TranslatedListing
	dec, err := m.meter.Charge(r.Context(), acct.ID, acct.Tier, entitlement.FeatureTranslateListing, int64(len(targets)),
		func(ctx context.Context) error {
			var workErr error
			translations, workErr = m.translator.Translate(ctx, req.Listing, targets)
			return workErr
		})
	if err != nil {
		if errors.Is(err, metering.ErrEntitlementDenied) {
			m.writeDenial(w, dec)
			return
		}
		m.writeError(r.Context(), w, err)
		return
	}

	m.writeJSON(w, http.StatusOK, envelope{Data: struct {
		Translations []TranslatedListing `json:"translations"`
		Remaining    int64               `json:"remaining"`
	}{Translations: translations, Remaining: dec.Remaining}})
}
