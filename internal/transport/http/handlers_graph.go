package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"canopy/internal/domain"
	"canopy/internal/graph"
)

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	asset, err := h.graph.CreateAsset(r.Context(), graph.CreateAssetParams{
		ID:                     req.ID,
		ProjectName:            req.ProjectName,
		Jurisdiction:           req.Jurisdiction,
		Biome:                  req.Biome,
		Hectares:               req.Hectares,
		Coordinates:            req.Coordinates,
		Status:                 req.Status,
		BiodiversityScore:      req.BiodiversityScore,
		CarbonSequesteredTCO2e: req.CarbonSequesteredTCO2e,
		CreditsPipelineUSD:     req.CreditsPipelineUSD,
		ComplianceFrameworks:   req.ComplianceFrameworks,
		Metadata:               req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.IncrementEntitiesCreated("asset")
	h.logger.InfoContext(r.Context(), "asset created", "asset_id", asset.ID)
	writeJSON(w, http.StatusCreated, asset)
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.graph.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) handleUpdateAssetStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	asset, err := h.graph.UpdateAssetStatus(r.Context(), chi.URLParam(r, "id"), domain.AssetStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *Handler) handleListLiabilities(w http.ResponseWriter, r *http.Request) {
	liabilities, err := h.graph.ListLiabilitiesForAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liabilities": liabilities})
}

func (h *Handler) handleListInterventions(w http.ResponseWriter, r *http.Request) {
	interventions, err := h.graph.ListInterventionsForAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interventions": interventions})
}

func (h *Handler) handleListAssetVerifications(w http.ResponseWriter, r *http.Request) {
	verifications, err := h.graph.ListVerificationsForAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verifications": verifications})
}

func (h *Handler) handleListAuditTrail(w http.ResponseWriter, r *http.Request) {
	events, err := h.trail.ListByAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleCreateLiability(w http.ResponseWriter, r *http.Request) {
	var req createLiabilityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	liability, err := h.graph.CreateLiability(r.Context(), graph.CreateLiabilityParams{
		ID:           req.ID,
		AssetID:      req.AssetID,
		Type:         req.Type,
		Framework:    req.Framework,
		Requirement:  req.Requirement,
		LegalBasis:   req.LegalBasis,
		Jurisdiction: req.Jurisdiction,
		Deadline:     req.Deadline,
		Metadata:     req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.IncrementEntitiesCreated("liability")
	writeJSON(w, http.StatusCreated, liability)
}

func (h *Handler) handleGetLiability(w http.ResponseWriter, r *http.Request) {
	liability, err := h.graph.GetLiability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, liability)
}

func (h *Handler) handleSatisfyLiability(w http.ResponseWriter, r *http.Request) {
	var req satisfyLiabilityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	liability, err := h.graph.SatisfyLiability(r.Context(), chi.URLParam(r, "id"), req.VerificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, liability)
}

func (h *Handler) handleCreateIntervention(w http.ResponseWriter, r *http.Request) {
	var req createInterventionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	intervention, err := h.graph.CreateIntervention(r.Context(), graph.CreateInterventionParams{
		ID:                 req.ID,
		AssetID:            req.AssetID,
		Type:               req.Type,
		Description:        req.Description,
		AssignedRole:       req.AssignedRole,
		DeliverableID:      req.DeliverableID,
		Status:             req.Status,
		CostUSD:            req.CostUSD,
		LinkedLiabilityIDs: req.LinkedLiabilityIDs,
		Metadata:           req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.IncrementEntitiesCreated("intervention")
	writeJSON(w, http.StatusCreated, intervention)
}

func (h *Handler) handleGetIntervention(w http.ResponseWriter, r *http.Request) {
	intervention, err := h.graph.GetIntervention(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intervention)
}

func (h *Handler) handleUpdateInterventionStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	intervention, err := h.graph.UpdateInterventionStatus(r.Context(), chi.URLParam(r, "id"), domain.InterventionStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intervention)
}

func (h *Handler) handleListInterventionVerifications(w http.ResponseWriter, r *http.Request) {
	verifications, err := h.graph.ListVerificationsForIntervention(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verifications": verifications})
}

func (h *Handler) handleCreateVerification(w http.ResponseWriter, r *http.Request) {
	var req createVerificationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	verification, err := h.graph.CreateVerification(r.Context(), graph.CreateVerificationParams{
		ID:             req.ID,
		InterventionID: req.InterventionID,
		RoleTitle:      req.RoleTitle,
		Jurisdiction:   req.Jurisdiction,
		LegalBasis:     req.LegalBasis,
		Metadata:       req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.IncrementEntitiesCreated("verification")
	writeJSON(w, http.StatusCreated, verification)
}

func (h *Handler) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	verification, err := h.graph.GetVerification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verification)
}
