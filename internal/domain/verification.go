package domain

import "time"

// VerificationStatus is the lifecycle state of a human stamp. Transitions are
// governed by the lifecycle package; nothing else writes this field except the
// release gate's lazy expiry flip.
type VerificationStatus string

const (
	VerificationPending        VerificationStatus = "pending"
	VerificationAwaitingUpload VerificationStatus = "awaiting_upload"
	VerificationUnderReview    VerificationStatus = "under_review"
	VerificationStamped        VerificationStatus = "stamped"
	VerificationRejected       VerificationStatus = "rejected"
	VerificationExpired        VerificationStatus = "expired"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationAwaitingUpload, VerificationUnderReview,
		VerificationStamped, VerificationRejected, VerificationExpired:
		return true
	}
	return false
}

// Verification is the human stamp: the authorization record that makes a
// deliverable legally real. Signer fields stay unset until a signature is
// recorded; ExpiresAt is always SignedAt + validity period once set.
type Verification struct {
	ID                string             `json:"id"`
	InterventionID    string             `json:"intervention_id"`
	AssetID           string             `json:"asset_id"`
	RoleTitle         string             `json:"role_title"`
	Jurisdiction      string             `json:"jurisdiction"`
	LegalBasis        string             `json:"legal_basis"`
	Status            VerificationStatus `json:"status"`
	SignerName        string             `json:"signer_name,omitempty"`
	SignerCredentials string             `json:"signer_credentials,omitempty"`
	DocumentHash      string             `json:"document_hash,omitempty"`
	SignedAt          *time.Time         `json:"signed_at,omitempty"`
	ExpiresAt         *time.Time         `json:"expires_at,omitempty"`
	RevisionCount     int                `json:"revision_count"`
	Metadata          map[string]string  `json:"metadata,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
