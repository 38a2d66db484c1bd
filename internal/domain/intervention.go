package domain

import "time"

// InterventionType enumerates the work categories performed on an asset.
type InterventionType string

const (
	InterventionBaselineAssessment   InterventionType = "baseline_assessment"
	InterventionNBSDesign            InterventionType = "nbs_design"
	InterventionRestoration          InterventionType = "restoration"
	InterventionMonitoring           InterventionType = "monitoring"
	InterventionCreditIssuance       InterventionType = "credit_issuance"
	InterventionEIA                  InterventionType = "eia"
	InterventionFinancialStructuring InterventionType = "financial_structuring"
)

func (t InterventionType) Valid() bool {
	switch t {
	case InterventionBaselineAssessment, InterventionNBSDesign, InterventionRestoration,
		InterventionMonitoring, InterventionCreditIssuance, InterventionEIA,
		InterventionFinancialStructuring:
		return true
	}
	return false
}

// InterventionStatus is a simple caller-directed status flag.
type InterventionStatus string

const (
	InterventionStatusPlanned    InterventionStatus = "planned"
	InterventionStatusInProgress InterventionStatus = "in_progress"
	InterventionStatusCompleted  InterventionStatus = "completed"
	InterventionStatusBlocked    InterventionStatus = "blocked"
)

func (s InterventionStatus) Valid() bool {
	switch s {
	case InterventionStatusPlanned, InterventionStatusInProgress,
		InterventionStatusCompleted, InterventionStatusBlocked:
		return true
	}
	return false
}

// Intervention is a unit of project work producing a deliverable.
type Intervention struct {
	ID                 string             `json:"id"`
	AssetID            string             `json:"asset_id"`
	Type               InterventionType   `json:"type"`
	Description        string             `json:"description"`
	AssignedRole       string             `json:"assigned_role"`
	DeliverableID      string             `json:"deliverable_id"`
	Status             InterventionStatus `json:"status"`
	CostUSD            float64            `json:"cost_usd"`
	LinkedLiabilityIDs []string           `json:"linked_liability_ids,omitempty"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}
