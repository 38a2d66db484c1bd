package domain

import "time"

// LiabilityType classifies the origin of a requirement.
type LiabilityType string

const (
	LiabilityTypeRegulatory     LiabilityType = "regulatory"
	LiabilityTypeCreditStandard LiabilityType = "credit_standard"
	LiabilityTypeContractual    LiabilityType = "contractual"
)

func (t LiabilityType) Valid() bool {
	switch t {
	case LiabilityTypeRegulatory, LiabilityTypeCreditStandard, LiabilityTypeContractual:
		return true
	}
	return false
}

// Liability is a regulatory or contractual requirement bound to an asset.
// AssetID is a back-reference only; the graph owns the records.
type Liability struct {
	ID                   string            `json:"id"`
	AssetID              string            `json:"asset_id"`
	Type                 LiabilityType     `json:"type"`
	Framework            string            `json:"framework"`
	Requirement          string            `json:"requirement"`
	LegalBasis           string            `json:"legal_basis"`
	Jurisdiction         string            `json:"jurisdiction"`
	Deadline             *time.Time        `json:"deadline,omitempty"`
	Satisfied            bool              `json:"satisfied"`
	LinkedVerificationID string            `json:"linked_verification_id,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}
