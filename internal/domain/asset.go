package domain

import "time"

// AssetStatus enumerates the caller-directed lifecycle of an asset. There is
// no machine behind it; release checks report on it without changing it.
type AssetStatus string

const (
	AssetStatusPipeline AssetStatus = "pipeline"
	AssetStatusActive   AssetStatus = "active"
	AssetStatusVerified AssetStatus = "verified"
	AssetStatusArchived AssetStatus = "archived"
)

// AssetStatuses lists every status in a stable order for rollups.
var AssetStatuses = []AssetStatus{
	AssetStatusPipeline,
	AssetStatusActive,
	AssetStatusVerified,
	AssetStatusArchived,
}

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusPipeline, AssetStatusActive, AssetStatusVerified, AssetStatusArchived:
		return true
	}
	return false
}

// Coordinates locates the site polygon centroid.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Asset is the managed site/project record. Ids are opaque, globally unique,
// assigned at creation and never reused or mutated.
type Asset struct {
	ID                     string            `json:"id"`
	ProjectName            string            `json:"project_name"`
	Jurisdiction           string            `json:"jurisdiction"`
	Biome                  string            `json:"biome"`
	Hectares               float64           `json:"hectares"`
	Coordinates            Coordinates       `json:"coordinates"`
	Status                 AssetStatus       `json:"status"`
	BiodiversityScore      float64           `json:"biodiversity_score"`
	CarbonSequesteredTCO2e float64           `json:"carbon_sequestered_tco2e"`
	CreditsPipelineUSD     float64           `json:"credits_pipeline_usd"`
	ComplianceFrameworks   []string          `json:"compliance_frameworks,omitempty"`
	Metadata               map[string]string `json:"metadata,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}
