package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Document intake
		r.Post("/verification/verify-document", h.VerifyDocument)
		r.Get("/verification/health", h.ScoringHealth)

		// Review queue
		r.Get("/queue", h.ListQueue)

		// Cases
		r.Get("/cases/{id}", h.GetCase)
		r.Post("/cases/{id}/approve", h.ApproveCase)
		r.Post("/cases/{id}/reject", h.RejectCase)
		r.Get("/cases/{id}/audit", h.CaseAudit)

		// Audit trail
		r.Get("/audit", h.RecentAudit)
	})

	r.Get("/ws", h.HandleWS)
	r.Get("/health", h.Health)
}
