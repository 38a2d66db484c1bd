// Package graph is the entity graph: the single source of truth for assets,
// liabilities, interventions, and verifications. It owns every creation and
// lookup path so referential integrity is checked on each mutation - no
// caller ever touches the record maps directly.
package graph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"canopy/internal/audit"
	"canopy/internal/domain"
	"canopy/internal/storage"
	pkgerrors "canopy/pkg/errors"
)

// Auditor records trail events; failures are logged, never fatal to the
// operation that emitted them.
type Auditor interface {
	Record(ctx context.Context, event audit.Event) error
}

// Service validates and creates records, assigns ids, and stamps timestamps
// from the injected clock. It carries no release or lifecycle logic.
type Service struct {
	assets        storage.AssetStore
	liabilities   storage.LiabilityStore
	interventions storage.InterventionStore
	verifications storage.VerificationStore

	auditor Auditor
	logger  *slog.Logger
	now     func() time.Time
	newID   domain.IDFunc
}

// Option configures a Service.
type Option func(*Service)

// WithClock substitutes the time source. Required for deterministic
// expiry/ordering in tests; production uses time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDFunc substitutes id generation, e.g. a sequential counter in tests.
func WithIDFunc(fn domain.IDFunc) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(
	assets storage.AssetStore,
	liabilities storage.LiabilityStore,
	interventions storage.InterventionStore,
	verifications storage.VerificationStore,
	auditor Auditor,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		assets:        assets,
		liabilities:   liabilities,
		interventions: interventions,
		verifications: verifications,
		auditor:       auditor,
		logger:        logger,
		now:           time.Now,
		newID:         domain.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Clock exposes the injected time source so sibling services (lifecycle,
// airlock) share one notion of "now".
func (s *Service) Clock() func() time.Time {
	return s.now
}

// CreateAssetParams carries caller-supplied asset fields. ID is optional; a
// fresh one is assigned when empty.
type CreateAssetParams struct {
	ID                     string
	ProjectName            string
	Jurisdiction           string
	Biome                  string
	Hectares               float64
	Coordinates            domain.Coordinates
	Status                 domain.AssetStatus
	BiodiversityScore      float64
	CarbonSequesteredTCO2e float64
	CreditsPipelineUSD     float64
	ComplianceFrameworks   []string
	Metadata               map[string]string
}

func (s *Service) CreateAsset(ctx context.Context, params CreateAssetParams) (domain.Asset, error) {
	if params.Status == "" {
		params.Status = domain.AssetStatusPipeline
	}
	if !params.Status.Valid() {
		return domain.Asset{}, pkgerrors.Newf(pkgerrors.CodeMalformedInput, "unknown asset status %q", params.Status)
	}
	if params.Hectares < 0 {
		return domain.Asset{}, pkgerrors.New(pkgerrors.CodeMalformedInput, "hectares must not be negative")
	}

	now := s.now()
	asset := domain.Asset{
		ID:                     params.ID,
		ProjectName:            params.ProjectName,
		Jurisdiction:           params.Jurisdiction,
		Biome:                  params.Biome,
		Hectares:               params.Hectares,
		Coordinates:            params.Coordinates,
		Status:                 params.Status,
		BiodiversityScore:      params.BiodiversityScore,
		CarbonSequesteredTCO2e: params.CarbonSequesteredTCO2e,
		CreditsPipelineUSD:     params.CreditsPipelineUSD,
		ComplianceFrameworks:   params.ComplianceFrameworks,
		Metadata:               params.Metadata,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if asset.ID == "" {
		asset.ID = s.newID(domain.IDPrefixAsset)
	}
	if err := s.assets.Insert(ctx, asset); err != nil {
		return domain.Asset{}, s.translateInsert(err, "asset", asset.ID)
	}
	s.recordAudit(ctx, audit.Event{
		Action: audit.ActionAssetCreated, EntityKind: "asset",
		EntityID: asset.ID, AssetID: asset.ID, Detail: asset.ProjectName,
	})
	return asset, nil
}

func (s *Service) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	asset, err := s.assets.FindByID(ctx, id)
	if err != nil {
		return domain.Asset{}, s.translateLookup(err, "asset", id)
	}
	return asset, nil
}

// UpdateAssetStatus applies a caller-directed status change. There is no
// machine behind asset status; only the enum is validated.
func (s *Service) UpdateAssetStatus(ctx context.Context, id string, status domain.AssetStatus) (domain.Asset, error) {
	if !status.Valid() {
		return domain.Asset{}, pkgerrors.Newf(pkgerrors.CodeMalformedInput, "unknown asset status %q", status)
	}
	asset, err := s.assets.Update(ctx, id, func(a *domain.Asset) error {
		a.Status = status
		a.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return domain.Asset{}, s.translateLookup(err, "asset", id)
	}
	s.recordAudit(ctx, audit.Event{
		Action: audit.ActionAssetStatusChanged, EntityKind: "asset",
		EntityID: id, AssetID: id, Detail: string(status),
	})
	return asset, nil
}

// CreateLiabilityParams carries caller-supplied liability fields.
type CreateLiabilityParams struct {
	ID           string
	AssetID      string
	Type         domain.LiabilityType
	Framework    string
	Requirement  string
	LegalBasis   string
	Jurisdiction string
	Deadline     *time.Time
	Metadata     map[string]string
}

func (s *Service) CreateLiability(ctx context.Context, params CreateLiabilityParams) (domain.Liability, error) {
	if params.Type == "" {
		params.Type = domain.LiabilityTypeRegulatory
	}
	if !params.Type.Valid() {
		return domain.Liability{}, pkgerrors.Newf(pkgerrors.CodeMalformedInput, "unknown liability type %q", params.Type)
	}
	if _, err := s.assets.FindByID(ctx, params.AssetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Liability{}, pkgerrors.Newf(pkgerrors.CodeOrphanReference,
				"asset %q not found; cannot create orphan liability", params.AssetID)
		}
		return domain.Liability{}, err
	}

	now := s.now()
	liability := domain.Liability{
		ID:           params.ID,
		AssetID:      params.AssetID,
		Type:         params.Type,
		Framework:    params.Framework,
		Requirement:  params.Requirement,
		LegalBasis:   params.LegalBasis,
		Jurisdiction: params.Jurisdiction,
		Deadline:     params.Deadline,
		Metadata:     params.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if liability.ID == "" {
		liability.ID = s.newID(domain.IDPrefixLiability)
	}
	if err := s.liabilities.Insert(ctx, liability); err != nil {
		return domain.Liability{}, s.translateInsert(err, "liability", liability.ID)
	}
	s.recordAudit(ctx, audit.Event{
		Action: audit.ActionLiabilityCreated, EntityKind: "liability",
		EntityID: liability.ID, AssetID: liability.AssetID, Detail: liability.Framework,
	})
	return liability, nil
}

func (s *Service) GetLiability(ctx context.Context, id string) (domain.Liability, error) {
	liability, err := s.liabilities.FindByID(ctx, id)
	if err != nil {
		return domain.Liability{}, s.translateLookup(err, "liability", id)
	}
	return liability, nil
}

func (s *Service) ListLiabilitiesForAsset(ctx context.Context, assetID string) ([]domain.Liability, error) {
	return s.liabilities.ListByAsset(ctx, assetID)
}

// SatisfyLiability marks a liability satisfied by a stamped verification. The
// verification must exist and be in stamped status.
func (s *Service) SatisfyLiability(ctx context.Context, liabilityID, verificationID string) (domain.Liability, error) {
	verification, err := s.verifications.FindByID(ctx, verificationID)
	if err != nil {
		return domain.Liability{}, s.translateLookup(err, "verification", verificationID)
	}
	if verification.Status != domain.VerificationStamped {
		return domain.Liability{}, pkgerrors.Newf(pkgerrors.CodeInvalidState,
			"verification %q is %q, expected %q", verificationID, verification.Status, domain.VerificationStamped)
	}
	liability, err := s.liabilities.Update(ctx, liabilityID, func(l *domain.Liability) error {
		l.Satisfied = true
		l.LinkedVerificationID = verificationID
		l.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return domain.Liability{}, s.translateLookup(err, "liability", liabilityID)
	}
	s.recordAudit(ctx, audit.Event{
		Action: audit.ActionLiabilitySatisfied, EntityKind: "liability",
		EntityID: liabilityID, AssetID: liability.AssetID, Detail: verificationID,
	})
	return liability, nil
}

// CreateInterventionParams carries caller-supplied intervention fields.
type CreateInterventionParams struct {
	ID                 string
	AssetID            string
	Type               domain.InterventionType
	Description        string
	AssignedRole       string
	DeliverableID      string
	Status             domain.InterventionStatus
	CostUSD            float64
	LinkedLiabilityIDs []string
	Metadata           map[string]string
}

func (s *Service) CreateIntervention(ctx context.Context, params CreateInterventionParams) (domain.Intervention, error) {
	if params.Type == "" {
		params.Type = domain.InterventionBaselineAssessment
	}
	if !params.Type.Valid() {
		return domain.Intervention{}, pkgerrors.Newf(pkgerrors.CodeMalformedInput, "unknown intervention type %q", params.Type)
	}
	if params.Status == "" {
		params.Status = domain.InterventionStatusPlanned
	}
	if !params.Status.Valid() {
		return domain.Intervention{}, pkgerrors.Newf(pkgerrors.CodeMalformedInput, "unknown intervention status %q", params.Status)
	}
	if _, err := s.assets.FindByID(ctx, params.AssetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Intervention{}, pkgerrors.Newf(pkgerrors.CodeOrphanReference,
				"asset %q not found; cannot create orphan intervention", params.AssetID)
		}
		return domain.Intervention{}, err
	}

	now := s.now()
	intervention := domain.Intervention{
		ID:                 params.ID,
		AssetID:            params.AssetID,
		Type:               params.Type,
		Description:        params.Description,
		AssignedRole:       params.AssignedRole,
		DeliverableID:      params.DeliverableID,
		Status:             params.Status,
		CostUSD:            params.CostUSD,
		LinkedLiabilityIDs: params.LinkedLiabilityIDs,
		Metadata:           params.Metadata,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if intervention.ID == "" {
		intervention.ID = s.newID(domain.IDPrefixIntervention)
	}
	if err := s.interventions.Insert(ctx, intervention); err != nil {
		return domain.Intervention{}, s.translateInsert(err, "intervention", intervention.ID)
	}
	s.recordAudit(ctx, audit.Event{
		Action: audit.ActionInterventionCreated, EntityKind: "intervention",
		EntityID: intervention.ID, AssetID: intervention.AssetID, Detail: string(intervention.Type),
	})
	return intervention, nil
}

func (s *Service) GetIntervention(ctx context.Context, id string) (domain.Intervention, error) {
	intervention, err := s.interventions.FindByID(ctx, id)
	if err != nil {
		return domain.Intervention{}, s.translateLookup(err, "intervention", id)
	}
	return intervention, nil
}

func (s *Service) ListInterventionsForAsset(ctx context.Context, assetID string) ([]domain.Intervention, error) {
	return s.interventions.ListByAsset(ctx, assetID)
}

// UpdateInterventionStatus applies a caller-directed status change.
func (s *Service) UpdateInterventionStatus(ctx context.Context, id string, status domain.InterventionStatus) (domain.Intervention, error) {
	if !status.Valid() {
		return domain.Intervention{}, pkgerrors.Newf(pkgerrors.CodeMalformedInput, "unknown intervention status %q", status)
	}
	intervention, err := s.interventions.Update(ctx, id, func(i *domain.Intervention) error {
		i.Status = status
		i.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return domain.Intervention{}, s.translateLookup(err, "intervention", id)
	}
	s.recordAudit(ctx, audit.Event{
		Action: audit.ActionInterventionUpdated, EntityKind: "intervention",
		EntityID: id, AssetID: intervention.AssetID, Detail: string(status),
	})
	return intervention, nil
}

// CreateVerificationParams carries caller-supplied verification fields. The
// asset id is derived from the parent intervention, never supplied. Signer
// fields stay unset until a signature is recorded.
type CreateVerificationParams struct {
	ID             string
	InterventionID string
	RoleTitle      string
	Jurisdiction   string
	LegalBasis     string
	Metadata       map[string]string
}

func (s *Service) CreateVerification(ctx context.Context, params CreateVerificationParams) (domain.Verification, error) {
	intervention, err := s.interventions.FindByID(ctx, params.InterventionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Verification{}, pkgerrors.Newf(pkgerrors.CodeOrphanReference,
				"intervention %q not found; cannot create orphan verification", params.InterventionID)
		}
		return domain.Verification{}, err
	}

	now := s.now()
	verification := domain.Verification{
		ID:             params.ID,
		InterventionID: params.InterventionID,
		AssetID:        intervention.AssetID,
		RoleTitle:      params.RoleTitle,
		Jurisdiction:   params.Jurisdiction,
		LegalBasis:     params.LegalBasis,
		Status:         domain.VerificationPending,
		Metadata:       params.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if verification.ID == "" {
		verification.ID = s.newID(domain.IDPrefixVerification)
	}
	if err := s.verifications.Insert(ctx, verification); err != nil {
		return domain.Verification{}, s.translateInsert(err, "verification", verification.ID)
	}
	s.recordAudit(ctx, audit.Event{
		Action: audit.ActionVerificationCreated, EntityKind: "verification",
		EntityID: verification.ID, AssetID: verification.AssetID, Detail: verification.RoleTitle,
	})
	return verification, nil
}

func (s *Service) GetVerification(ctx context.Context, id string) (domain.Verification, error) {
	verification, err := s.verifications.FindByID(ctx, id)
	if err != nil {
		return domain.Verification{}, s.translateLookup(err, "verification", id)
	}
	return verification, nil
}

func (s *Service) ListVerificationsForAsset(ctx context.Context, assetID string) ([]domain.Verification, error) {
	return s.verifications.ListByAsset(ctx, assetID)
}

func (s *Service) ListVerificationsForIntervention(ctx context.Context, interventionID string) ([]domain.Verification, error) {
	return s.verifications.ListByIntervention(ctx, interventionID)
}

func (s *Service) recordAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", event.Action, "error", err)
	}
}

func (s *Service) translateLookup(err error, kind, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s %q not found", kind, id)
	}
	return err
}

func (s *Service) translateInsert(err error, kind, id string) error {
	if errors.Is(err, storage.ErrDuplicate) {
		return pkgerrors.Newf(pkgerrors.CodeDuplicate, "%s %q already exists", kind, id)
	}
	return err
}
