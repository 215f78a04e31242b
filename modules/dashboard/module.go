// Package dashboard exposes the seller-facing HTTP API: metered feature
// endpoints, the entitlement overview, and the payment webhook ingress.
package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sublimeanger/vintifi/pkg/account"
	"github.com/sublimeanger/vintifi/pkg/artifact"
	"github.com/sublimeanger/vintifi/pkg/billing"
	"github.com/sublimeanger/vintifi/pkg/ledger"
	"github.com/sublimeanger/vintifi/pkg/metering"
)

// Module wires the dashboard handlers to their collaborators.
type Module struct {
	meter      *metering.Meter
	accounts   account.Store
	ledgers    ledger.Store
	reconciler *billing.Reconciler
	webhook    *billing.PaddleWebhook
	artifacts  *artifact.Store

	prices     PriceChecker
	optimizer  ListingOptimizer
	translator Translator
	studio     PhotoStudio

	log *slog.Logger
}

// Deps carries the module's collaborators. All fields are required except
// Log, which falls back to slog.Default.
type Deps struct {
	Meter      *metering.Meter
	Accounts   account.Store
	Ledgers    ledger.Store
	Reconciler *billing.Reconciler
	Webhook    *billing.PaddleWebhook
	Artifacts  *artifact.Store

	Prices     PriceChecker
	Optimizer  ListingOptimizer
	Translator Translator
	Studio     PhotoStudio

	Log *slog.Logger
}

// New creates the dashboard module. Panics on missing dependencies to fail
// fast during initialization.
func New(deps Deps) *Module {
	switch {
	case deps.Meter == nil:
		panic("dashboard: metering.Meter is required")
	case deps.Accounts == nil:
		panic("dashboard: account.Store is required")
	case deps.Ledgers == nil:
		panic("dashboard: ledger.Store is required")
	case deps.Reconciler == nil:
		panic("dashboard: billing.Reconciler is required")
	case deps.Webhook == nil:
		panic("dashboard: billing.PaddleWebhook is required")
	case deps.Artifacts == nil:
		panic("dashboard: artifact.Store is required")
	case deps.Prices == nil || deps.Optimizer == nil || deps.Translator == nil || deps.Studio == nil:
		panic("dashboard: upstream clients are required")
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	return &Module{
		meter:      deps.Meter,
		accounts:   deps.Accounts,
		ledgers:    deps.Ledgers,
		reconciler: deps.Reconciler,
		webhook:    deps.Webhook,
		artifacts:  deps.Artifacts,
		prices:     deps.Prices,
		optimizer:  deps.Optimizer,
		translator: deps.Translator,
		studio:     deps.Studio,
		log:        log,
	}
}

// Router mounts all dashboard routes.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// The webhook authenticates by signature, not by account session.
	r.Post("/webhooks/payments", m.handlePaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(m.withAccount)

		r.Post("/price-check", m.handlePriceCheck)
		r.Post("/listings/optimize", m.handleOptimizeListing)
		r.Post("/listings/translate", m.handleTranslateListing)
		r.Post("/photos/enhance", m.handleEnhancePhoto)
		r.Post("/wizard", m.handleSellWizard)
		r.Get("/entitlements", m.handleEntitlements)
	})

	return r
}

// Handle implements the Mountable shape used by the application router.
func (m *Module) Handle() http.Handler {
	return m.Router()
}
