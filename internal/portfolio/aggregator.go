// Package portfolio rolls up read-only statistics across all assets - the
// nature balance sheet. It is a pure function of graph state: no mutation, no
// errors on an empty portfolio.
package portfolio

import (
	"context"

	"canopy/internal/domain"
	"canopy/internal/storage"
)

// Summary aggregates the whole portfolio. An empty portfolio yields zeros and
// empty collections, never a failure.
type Summary struct {
	TotalAssets           int                        `json:"total_assets"`
	TotalHectares         float64                    `json:"total_hectares"`
	TotalCarbonTCO2e      float64                    `json:"total_carbon_tco2e"`
	TotalCreditsUSD       float64                    `json:"total_credits_pipeline_usd"`
	AvgBiodiversityScore  float64                    `json:"avg_biodiversity_score"`
	AssetsByStatus        map[domain.AssetStatus]int `json:"assets_by_status"`
	DistinctJurisdictions []string                   `json:"jurisdictions"`
}

type Service struct {
	assets storage.AssetStore
}

func NewService(assets storage.AssetStore) *Service {
	return &Service{assets: assets}
}

func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	assets, err := s.assets.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		AssetsByStatus:        make(map[domain.AssetStatus]int, len(domain.AssetStatuses)),
		DistinctJurisdictions: []string{},
	}
	for _, status := range domain.AssetStatuses {
		summary.AssetsByStatus[status] = 0
	}

	seen := map[string]bool{}
	var scoreSum float64
	for _, a := range assets {
		summary.TotalAssets++
		summary.TotalHectares += a.Hectares
		summary.TotalCarbonTCO2e += a.CarbonSequesteredTCO2e
		summary.TotalCreditsUSD += a.CreditsPipelineUSD
		scoreSum += a.BiodiversityScore
		summary.AssetsByStatus[a.Status]++
		if a.Jurisdiction != "" && !seen[a.Jurisdiction] {
			seen[a.Jurisdiction] = true
			summary.DistinctJurisdictions = append(summary.DistinctJurisdictions, a.Jurisdiction)
		}
	}
	if summary.TotalAssets > 0 {
		summary.AvgBiodiversityScore = scoreSum / float64(summary.TotalAssets)
	}
	return summary, nil
}
