package httptransport

import (
	"time"

	"canopy/internal/domain"
)

type createAssetRequest struct {
	ID                     string              `json:"id,omitempty"`
	ProjectName            string              `json:"project_name"`
	Jurisdiction           string              `json:"jurisdiction"`
	Biome                  string              `json:"biome"`
	Hectares               float64             `json:"hectares"`
	Coordinates            domain.Coordinates  `json:"coordinates"`
	Status                 domain.AssetStatus  `json:"status,omitempty"`
	BiodiversityScore      float64             `json:"biodiversity_score"`
	CarbonSequesteredTCO2e float64             `json:"carbon_sequestered_tco2e"`
	CreditsPipelineUSD     float64             `json:"credits_pipeline_usd"`
	ComplianceFrameworks   []string            `json:"compliance_frameworks,omitempty"`
	Metadata               map[string]string   `json:"metadata,omitempty"`
}

type createLiabilityRequest struct {
	ID           string               `json:"id,omitempty"`
	AssetID      string               `json:"asset_id"`
	Type         domain.LiabilityType `json:"type,omitempty"`
	Framework    string               `json:"framework"`
	Requirement  string               `json:"requirement"`
	LegalBasis   string               `json:"legal_basis"`
	Jurisdiction string               `json:"jurisdiction"`
	Deadline     *time.Time           `json:"deadline,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
}

type createInterventionRequest struct {
	ID                 string                    `json:"id,omitempty"`
	AssetID            string                    `json:"asset_id"`
	Type               domain.InterventionType   `json:"type,omitempty"`
	Description        string                    `json:"description"`
	AssignedRole       string                    `json:"assigned_role"`
	DeliverableID      string                    `json:"deliverable_id"`
	Status             domain.InterventionStatus `json:"status,omitempty"`
	CostUSD            float64                   `json:"cost_usd"`
	LinkedLiabilityIDs []string                  `json:"linked_liability_ids,omitempty"`
	Metadata           map[string]string         `json:"metadata,omitempty"`
}

type createVerificationRequest struct {
	ID             string            `json:"id,omitempty"`
	InterventionID string            `json:"intervention_id"`
	RoleTitle      string            `json:"role_title"`
	Jurisdiction   string            `json:"jurisdiction"`
	LegalBasis     string            `json:"legal_basis"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type satisfyLiabilityRequest struct {
	VerificationID string `json:"verification_id"`
}

type advanceRequest struct {
	Target domain.VerificationStatus `json:"target"`
}

type signatureRequest struct {
	SignerName        string `json:"signer_name"`
	SignerCredentials string `json:"signer_credentials"`
	DocumentHash      string `json:"document_hash"`
}

type registerDeliverableRequest struct {
	DeliverableID   string   `json:"deliverable_id"`
	VerificationIDs []string `json:"verification_ids"`
}

type attemptReleaseRequest struct {
	AssetID string `json:"asset_id"`
}
