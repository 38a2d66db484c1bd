package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	verification, err := h.machine.Advance(r.Context(), chi.URLParam(r, "id"), req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verification)
}

func (h *Handler) handleRecordSignature(w http.ResponseWriter, r *http.Request) {
	var req signatureRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	verification, err := h.machine.RecordSignature(
		r.Context(), chi.URLParam(r, "id"),
		req.SignerName, req.SignerCredentials, req.DocumentHash,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	h.metrics.IncrementSignaturesRecorded()
	h.logger.InfoContext(r.Context(), "signature recorded",
		"verification_id", verification.ID, "signer", req.SignerName)
	writeJSON(w, http.StatusOK, verification)
}

func (h *Handler) handleCheckRelease(w http.ResponseWriter, r *http.Request) {
	result, err := h.gate.CheckRelease(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRegisterDeliverable(w http.ResponseWriter, r *http.Request) {
	var req registerDeliverableRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.gate.RegisterDeliverable(r.Context(), req.DeliverableID, req.VerificationIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"deliverable_id":   req.DeliverableID,
		"verification_ids": req.VerificationIDs,
	})
}

func (h *Handler) handleAttemptRelease(w http.ResponseWriter, r *http.Request) {
	var req attemptReleaseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.gate.AttemptRelease(r.Context(), req.AssetID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolio.Summarize(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
