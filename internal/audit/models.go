package audit

import "time"

// Actions recorded against the trail. One event per mutating core operation.
const (
	ActionAssetCreated        = "asset.created"
	ActionAssetStatusChanged  = "asset.status_changed"
	ActionLiabilityCreated    = "liability.created"
	ActionLiabilitySatisfied  = "liability.satisfied"
	ActionInterventionCreated = "intervention.created"
	ActionInterventionUpdated = "intervention.status_changed"
	ActionVerificationCreated = "verification.created"
	ActionStatusAdvanced      = "verification.advanced"
	ActionSignatureRecorded   = "verification.signed"
	ActionStampExpired        = "verification.expired"
	ActionReleaseChecked      = "release.checked"
	ActionReleaseAttempted    = "release.attempted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	AssetID    string    `json:"asset_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}
