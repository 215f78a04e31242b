package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sublimeanger/vintifi/pkg/account"
	"github.com/sublimeanger/vintifi/pkg/billing"
	"github.com/sublimeanger/vintifi/pkg/entitlement"
	"github.com/sublimeanger/vintifi/pkg/ledger"
	"github.com/sublimeanger/vintifi/pkg/metering"
)

// envelope is the standard JSON response body.
type envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (m *Module) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		m.log.Error("failed to encode response", "error", err)
	}
}

// denialBody carries the structured reason plus the state the UI needs for
// an upgrade prompt.
type denialBody struct {
	Reason    string `json:"reason"`
	Remaining int64  `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

func (m *Module) writeDenial(w http.ResponseWriter, dec entitlement.Decision) {
	m.writeJSON(w, http.StatusPaymentRequired, envelope{
		Data:  denialBody{Reason: dec.Reason, Remaining: dec.Remaining, Unlimited: dec.Unlimited},
		Error: &apiError{Code: "entitlement_denied", Message: dec.Reason},
	})
}

// writeError maps domain errors to HTTP statuses. Config mismatches surface
// as 500 and are logged loudly; upstream failure kinds keep their retry
// semantics distinct for the caller.
func (m *Module) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, metering.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "upstream_rate_limited"
	case errors.Is(err, metering.ErrQuotaExhausted):
		status, code = http.StatusServiceUnavailable, "upstream_quota_exhausted"
	case errors.Is(err, metering.ErrNotDelivered):
		status, code = http.StatusGatewayTimeout, "request_deadline_exceeded"
	case errors.Is(err, metering.ErrUpstreamFailure), errors.Is(err, metering.ErrMalformedPayload):
		status, code = http.StatusBadGateway, "upstream_failure"
	case errors.Is(err, entitlement.ErrUnknownFeature):
		status, code = http.StatusInternalServerError, "feature_config_mismatch"
		m.log.ErrorContext(ctx, "feature configuration mismatch", "error", err)
	case errors.Is(err, account.ErrAccountNotFound), errors.Is(err, ledger.ErrLedgerNotFound):
		status, code = http.StatusNotFound, "account_not_found"
	case errors.Is(err, billing.ErrVerificationFailed):
		status, code = http.StatusUnauthorized, "invalid_signature"
	case errors.Is(err, metering.ErrInvalidUnits):
		status, code = http.StatusBadRequest, "invalid_request"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
		m.log.ErrorContext(ctx, "unhandled request error", "error", err)
	}

	m.writeJSON(w, status, envelope{Error: &apiError{Code: code, Message: err.Error()}})
}

func (m *Module) writeBadRequest(w http.ResponseWriter, msg string) {
	m.writeJSON(w, http.StatusBadRequest, envelope{
		Error: &apiError{Code: "invalid_request", Message: msg},
	})
}

func decodeBody(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
