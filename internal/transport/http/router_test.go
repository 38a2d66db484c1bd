package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"canopy/internal/airlock"
	"canopy/internal/audit"
	"canopy/internal/graph"
	"canopy/internal/lifecycle"
	"canopy/internal/portfolio"
	"canopy/internal/storage"
)

type HandlerSuite struct {
	suite.Suite

	router chi.Router
	now    time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

// SetupTest wires the full service stack over in-memory stores so handler
// tests exercise real domain semantics, not mocks.
func (s *HandlerSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assets := storage.NewInMemoryAssetStore()
	liabilities := storage.NewInMemoryLiabilityStore()
	interventions := storage.NewInMemoryInterventionStore()
	verifications := storage.NewInMemoryVerificationStore()
	links := storage.NewInMemoryDeliverableLinkStore()
	trail := audit.NewService(audit.NewInMemoryStore()).WithClock(clock)

	seq := 0
	graphSvc := graph.NewService(assets, liabilities, interventions, verifications, trail, logger,
		graph.WithClock(clock),
		graph.WithIDFunc(func(prefix string) string {
			seq++
			return fmt.Sprintf("%s-%04d", prefix, seq)
		}),
	)
	machine := lifecycle.NewMachine(verifications, lifecycle.Config{}, trail, logger, lifecycle.WithClock(clock))
	gate := airlock.NewGate(assets, verifications, links, nil, trail, logger, airlock.WithClock(clock))
	portfolioSvc := portfolio.NewService(assets)

	s.router = NewRouter(NewHandler(graphSvc, machine, gate, portfolioSvc, trail, nil, logger))
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, dest any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dest))
}

func (s *HandlerSuite) createAsset() string {
	rec := s.do(http.MethodPost, "/assets", map[string]any{
		"project_name": "Sinaloa Mangrove Restoration",
		"jurisdiction": "Mexico (Sinaloa)",
		"hectares":     12400,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var asset struct {
		ID string `json:"id"`
	}
	s.decode(rec, &asset)
	return asset.ID
}

func (s *HandlerSuite) createVerification(assetID string) string {
	rec := s.do(http.MethodPost, "/interventions", map[string]any{
		"asset_id": assetID,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var intervention struct {
		ID string `json:"id"`
	}
	s.decode(rec, &intervention)

	rec = s.do(http.MethodPost, "/verifications", map[string]any{
		"intervention_id": intervention.ID,
		"role_title":      "Licensed Biologist",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var verification struct {
		ID string `json:"id"`
	}
	s.decode(rec, &verification)
	return verification.ID
}

func (s *HandlerSuite) advanceToStamped(verificationID string) {
	for _, target := range []string{"awaiting_upload", "under_review"} {
		rec := s.do(http.MethodPost, "/verifications/"+verificationID+"/advance",
			map[string]any{"target": target})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := s.do(http.MethodPost, "/verifications/"+verificationID+"/signature", map[string]any{
		"signer_name":        "Dr. Elena Sosa",
		"signer_credentials": "Col. de Biologos #4417",
		"document_hash":      "sha256:ab12",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestAssetRoundTrip() {
	id := s.createAsset()

	rec := s.do(http.MethodGet, "/assets/"+id, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var asset struct {
		ProjectName string `json:"project_name"`
		Status      string `json:"status"`
	}
	s.decode(rec, &asset)
	s.Equal("Sinaloa Mangrove Restoration", asset.ProjectName)
	s.Equal("pipeline", asset.Status)

	rec = s.do(http.MethodPost, "/assets/"+id+"/status", map[string]any{"status": "active"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &asset)
	s.Equal("active", asset.Status)
}

func (s *HandlerSuite) TestErrorTranslation() {
	s.Run("missing asset is 404", func() {
		rec := s.do(http.MethodGet, "/assets/AST-GHOST", nil)
		s.Equal(http.StatusNotFound, rec.Code)
		var body map[string]string
		s.decode(rec, &body)
		s.Equal("not_found", body["error"])
	})

	s.Run("orphan reference is 422", func() {
		rec := s.do(http.MethodPost, "/liabilities", map[string]any{"asset_id": "AST-GHOST"})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		var body map[string]string
		s.decode(rec, &body)
		s.Equal("orphan_reference", body["error"])
	})

	s.Run("unknown JSON field is 400", func() {
		rec := s.do(http.MethodPost, "/assets", map[string]any{"projcet_name": "typo"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("illegal transition is 409", func() {
		assetID := s.createAsset()
		verificationID := s.createVerification(assetID)
		rec := s.do(http.MethodPost, "/verifications/"+verificationID+"/advance",
			map[string]any{"target": "stamped"})
		s.Equal(http.StatusConflict, rec.Code)
		var body map[string]string
		s.decode(rec, &body)
		s.Equal("invalid_transition", body["error"])
	})
}

func (s *HandlerSuite) TestReleaseFlow() {
	assetID := s.createAsset()
	verificationID := s.createVerification(assetID)

	rec := s.do(http.MethodGet, "/assets/"+assetID+"/release-check", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var result struct {
		Authorized bool   `json:"authorized"`
		ReasonCode string `json:"reason_code"`
		Total      int    `json:"total"`
	}
	s.decode(rec, &result)
	s.False(result.Authorized)
	s.Equal("requirements_outstanding", result.ReasonCode)

	s.advanceToStamped(verificationID)

	rec = s.do(http.MethodGet, "/assets/"+assetID+"/release-check", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &result)
	s.True(result.Authorized)
	s.Equal("authorized", result.ReasonCode)
	s.Equal(1, result.Total)
}

func (s *HandlerSuite) TestDeliverableRelease() {
	assetID := s.createAsset()
	verificationID := s.createVerification(assetID)
	s.advanceToStamped(verificationID)

	rec := s.do(http.MethodPost, "/deliverables", map[string]any{
		"deliverable_id":   "DELIV-EIA",
		"verification_ids": []string{verificationID},
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/deliverables/DELIV-EIA/release",
		map[string]any{"asset_id": assetID})
	s.Require().Equal(http.StatusOK, rec.Code)
	var result struct {
		Authorized    bool   `json:"authorized"`
		DeliverableID string `json:"deliverable_id"`
	}
	s.decode(rec, &result)
	s.True(result.Authorized)
	s.Equal("DELIV-EIA", result.DeliverableID)

	rec = s.do(http.MethodPost, "/deliverables/DELIV-UNKNOWN/release",
		map[string]any{"asset_id": assetID})
	s.Require().Equal(http.StatusOK, rec.Code)
	var unlinked struct {
		Authorized bool   `json:"authorized"`
		ReasonCode string `json:"reason_code"`
	}
	s.decode(rec, &unlinked)
	s.False(unlinked.Authorized)
	s.Equal("no_requirements", unlinked.ReasonCode)
}

func (s *HandlerSuite) TestSatisfyLiability() {
	assetID := s.createAsset()
	verificationID := s.createVerification(assetID)

	rec := s.do(http.MethodPost, "/liabilities", map[string]any{
		"asset_id":  assetID,
		"framework": "LGEEPA",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var liability struct {
		ID string `json:"id"`
	}
	s.decode(rec, &liability)

	rec = s.do(http.MethodPost, "/liabilities/"+liability.ID+"/satisfy",
		map[string]any{"verification_id": verificationID})
	s.Equal(http.StatusConflict, rec.Code)

	s.advanceToStamped(verificationID)

	rec = s.do(http.MethodPost, "/liabilities/"+liability.ID+"/satisfy",
		map[string]any{"verification_id": verificationID})
	s.Require().Equal(http.StatusOK, rec.Code)
	var satisfied struct {
		Satisfied            bool   `json:"satisfied"`
		LinkedVerificationID string `json:"linked_verification_id"`
	}
	s.decode(rec, &satisfied)
	s.True(satisfied.Satisfied)
	s.Equal(verificationID, satisfied.LinkedVerificationID)
}

func (s *HandlerSuite) TestPortfolioSummary() {
	s.createAsset()
	s.createAsset()

	rec := s.do(http.MethodGet, "/portfolio/summary", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var summary struct {
		TotalAssets   int     `json:"total_assets"`
		TotalHectares float64 `json:"total_hectares"`
	}
	s.decode(rec, &summary)
	s.Equal(2, summary.TotalAssets)
	s.InDelta(24800, summary.TotalHectares, 1e-9)
}

func (s *HandlerSuite) TestAuditTrailEndpoint() {
	assetID := s.createAsset()
	verificationID := s.createVerification(assetID)
	s.advanceToStamped(verificationID)

	rec := s.do(http.MethodGet, "/assets/"+assetID+"/audit", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var body struct {
		Events []struct {
			Action string `json:"action"`
		} `json:"events"`
	}
	s.decode(rec, &body)
	s.Require().NotEmpty(body.Events)
	actions := make([]string, 0, len(body.Events))
	for _, e := range body.Events {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, audit.ActionAssetCreated)
	s.Contains(actions, audit.ActionSignatureRecorded)
}
