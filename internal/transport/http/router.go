// Package httptransport is the thin HTTP collaborator over the compliance
// core. Handlers parse JSON, delegate to the services, and translate domain
// error codes to statuses - no business logic lives here.
package httptransport

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"canopy/internal/airlock"
	"canopy/internal/audit"
	"canopy/internal/graph"
	"canopy/internal/lifecycle"
	"canopy/internal/platform/metrics"
	"canopy/internal/portfolio"
)

// Handler bundles the core services behind the HTTP surface.
type Handler struct {
	graph     *graph.Service
	machine   *lifecycle.Machine
	gate      *airlock.Gate
	portfolio *portfolio.Service
	trail     *audit.Service
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewHandler(
	graphSvc *graph.Service,
	machine *lifecycle.Machine,
	gate *airlock.Gate,
	portfolioSvc *portfolio.Service,
	trail *audit.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		graph:     graphSvc,
		machine:   machine,
		gate:      gate,
		portfolio: portfolioSvc,
		trail:     trail,
		metrics:   m,
		logger:    logger,
	}
}

// NewRouter wires all public endpoints.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.handleHealth)

	r.Route("/assets", func(r chi.Router) {
		r.Post("/", h.handleCreateAsset)
		r.Get("/{id}", h.handleGetAsset)
		r.Post("/{id}/status", h.handleUpdateAssetStatus)
		r.Get("/{id}/liabilities", h.handleListLiabilities)
		r.Get("/{id}/interventions", h.handleListInterventions)
		r.Get("/{id}/verifications", h.handleListAssetVerifications)
		r.Get("/{id}/release-check", h.handleCheckRelease)
		r.Get("/{id}/audit", h.handleListAuditTrail)
	})

	r.Route("/liabilities", func(r chi.Router) {
		r.Post("/", h.handleCreateLiability)
		r.Get("/{id}", h.handleGetLiability)
		r.Post("/{id}/satisfy", h.handleSatisfyLiability)
	})

	r.Route("/interventions", func(r chi.Router) {
		r.Post("/", h.handleCreateIntervention)
		r.Get("/{id}", h.handleGetIntervention)
		r.Post("/{id}/status", h.handleUpdateInterventionStatus)
		r.Get("/{id}/verifications", h.handleListInterventionVerifications)
	})

	r.Route("/verifications", func(r chi.Router) {
		r.Post("/", h.handleCreateVerification)
		r.Get("/{id}", h.handleGetVerification)
		r.Post("/{id}/advance", h.handleAdvance)
		r.Post("/{id}/signature", h.handleRecordSignature)
	})

	r.Route("/deliverables", func(r chi.Router) {
		r.Post("/", h.handleRegisterDeliverable)
		r.Post("/{id}/release", h.handleAttemptRelease)
	})

	r.Get("/portfolio/summary", h.handlePortfolioSummary)

	return r
}
