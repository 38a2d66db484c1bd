package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"canopy/internal/domain"
	"canopy/internal/storage"
)

type PortfolioSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *PortfolioSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestPortfolioSuite(t *testing.T) {
	suite.Run(t, new(PortfolioSuite))
}

func (s *PortfolioSuite) TestEmptyPortfolio() {
	svc := NewService(storage.NewInMemoryAssetStore())

	summary, err := svc.Summarize(s.ctx)
	s.Require().NoError(err)
	s.Zero(summary.TotalAssets)
	s.Zero(summary.TotalHectares)
	s.Zero(summary.AvgBiodiversityScore)
	s.Empty(summary.DistinctJurisdictions)
	s.NotNil(summary.DistinctJurisdictions)

	// Every known status appears with a zero count even with no assets.
	s.Len(summary.AssetsByStatus, len(domain.AssetStatuses))
	for _, status := range domain.AssetStatuses {
		s.Contains(summary.AssetsByStatus, status)
	}
}

func (s *PortfolioSuite) TestAggregation() {
	assets := storage.NewInMemoryAssetStore()
	svc := NewService(assets)

	seed := []domain.Asset{
		{
			ID: "AST-0001", Status: domain.AssetStatusActive,
			Jurisdiction: "Mexico (Sinaloa)", Hectares: 1000,
			CarbonSequesteredTCO2e: 500, CreditsPipelineUSD: 250000,
			BiodiversityScore: 0.8,
		},
		{
			ID: "AST-0002", Status: domain.AssetStatusActive,
			Jurisdiction: "Indonesia (West Papua)", Hectares: 3000,
			CarbonSequesteredTCO2e: 1500, CreditsPipelineUSD: 750000,
			BiodiversityScore: 0.6,
		},
		{
			ID: "AST-0003", Status: domain.AssetStatusPipeline,
			Jurisdiction: "Mexico (Sinaloa)", Hectares: 500,
			BiodiversityScore: 0.4,
		},
	}
	for _, a := range seed {
		s.Require().NoError(assets.Insert(s.ctx, a))
	}

	summary, err := svc.Summarize(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, summary.TotalAssets)
	s.InDelta(4500, summary.TotalHectares, 1e-9)
	s.InDelta(2000, summary.TotalCarbonTCO2e, 1e-9)
	s.InDelta(1000000, summary.TotalCreditsUSD, 1e-9)
	s.InDelta(0.6, summary.AvgBiodiversityScore, 1e-9)
	s.Equal(2, summary.AssetsByStatus[domain.AssetStatusActive])
	s.Equal(1, summary.AssetsByStatus[domain.AssetStatusPipeline])
	s.Equal(0, summary.AssetsByStatus[domain.AssetStatusArchived])

	// Jurisdictions are deduped in first-seen order.
	s.Equal([]string{"Mexico (Sinaloa)", "Indonesia (West Papua)"}, summary.DistinctJurisdictions)
}

func (s *PortfolioSuite) TestBlankJurisdictionExcluded() {
	assets := storage.NewInMemoryAssetStore()
	svc := NewService(assets)
	s.Require().NoError(assets.Insert(s.ctx, domain.Asset{ID: "AST-0001", Status: domain.AssetStatusPipeline}))

	summary, err := svc.Summarize(s.ctx)
	s.Require().NoError(err)
	s.Empty(summary.DistinctJurisdictions)
}
