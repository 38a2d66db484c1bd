// Package airlock is the release gate: the binary check that no deliverable
// or asset is releasable until every required human stamp is present, still
// valid, and reviewer-approved. Release is all-or-nothing - there is no
// partial or weighted authorization.
package airlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"canopy/internal/audit"
	"canopy/internal/domain"
	"canopy/internal/storage"
	pkgerrors "canopy/pkg/errors"
)

// ReasonCode distinguishes why a gate answered the way it did. Callers must
// be able to tell "nothing registered" apart from "requirement outstanding";
// both are not releasable, uniformly at asset and deliverable level.
type ReasonCode string

const (
	ReasonAuthorized     ReasonCode = "authorized"
	ReasonNoRequirements ReasonCode = "no_requirements"
	ReasonOutstanding    ReasonCode = "requirements_outstanding"
)

// BlockingStamp describes one verification holding a release back.
type BlockingStamp struct {
	ID           string                    `json:"id"`
	RoleTitle    string                    `json:"role_title"`
	Jurisdiction string                    `json:"jurisdiction"`
	Status       domain.VerificationStatus `json:"status"`
}

// ReleaseResult is the structured answer of a gate check.
type ReleaseResult struct {
	Authorized    bool            `json:"authorized"`
	DeliverableID string          `json:"deliverable_id,omitempty"`
	ReasonCode    ReasonCode      `json:"reason_code"`
	Total         int             `json:"total"`
	Satisfied     int             `json:"satisfied"`
	Blocking      []BlockingStamp `json:"blocking"`
	Summary       string          `json:"summary"`
}

// Auditor records trail events; failures are logged, never fatal.
type Auditor interface {
	Record(ctx context.Context, event audit.Event) error
}

// Gate aggregates verification states on demand. It never alters asset state;
// its only write is the lazy stamped -> expired flip, which happens here and
// nowhere else (there is no background sweep).
type Gate struct {
	assets        storage.AssetStore
	verifications storage.VerificationStore
	links         storage.DeliverableLinkStore
	metrics       *Metrics
	auditor       Auditor
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock substitutes the time source used for expiry evaluation.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(
	assets storage.AssetStore,
	verifications storage.VerificationStore,
	links storage.DeliverableLinkStore,
	metrics *Metrics,
	auditor Auditor,
	logger *slog.Logger,
	opts ...Option,
) *Gate {
	g := &Gate{
		assets:        assets,
		verifications: verifications,
		links:         links,
		metrics:       metrics,
		auditor:       auditor,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// RegisterDeliverable links a deliverable to the verifications that must be
// stamped before it can leave the platform. Links are explicit; a deliverable
// with no links is unreleasable by construction.
func (g *Gate) RegisterDeliverable(ctx context.Context, deliverableID string, verificationIDs []string) error {
	if deliverableID == "" {
		return pkgerrors.New(pkgerrors.CodeMalformedInput, "deliverable id is required")
	}
	if len(verificationIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeMalformedInput, "at least one verification id is required")
	}
	for _, id := range verificationIDs {
		if _, err := g.verifications.FindByID(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeOrphanReference,
					"verification %q not found; cannot link deliverable %q", id, deliverableID)
			}
			return err
		}
	}
	for _, id := range verificationIDs {
		if err := g.links.Link(ctx, deliverableID, id); err != nil {
			return err
		}
	}
	return nil
}

// CheckRelease answers whether the asset as a whole is releasable: every
// verification registered against it must be stamped and unexpired. An asset
// with zero verifications is not releasable (reason no_requirements) - no
// authorization has been sought, which is not the same as all requirements
// being met.
func (g *Gate) CheckRelease(ctx context.Context, assetID string) (ReleaseResult, error) {
	if _, err := g.assets.FindByID(ctx, assetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ReleaseResult{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "asset %q not found", assetID)
		}
		return ReleaseResult{}, err
	}
	scope, err := g.verifications.ListByAsset(ctx, assetID)
	if err != nil {
		return ReleaseResult{}, err
	}

	result := g.evaluate(ctx, scope)
	if result.ReasonCode == ReasonNoRequirements {
		result.Summary = fmt.Sprintf(
			"No verifications registered for asset %s. At least one human stamp is required.", assetID)
	} else if result.Authorized {
		result.Summary = fmt.Sprintf(
			"All %d stamp(s) satisfied for asset %s. Release authorized.", result.Total, assetID)
	} else {
		result.Summary = fmt.Sprintf(
			"%d of %d stamp(s) outstanding for asset %s. Release blocked.",
			len(result.Blocking), result.Total, assetID)
	}

	g.metrics.observeCheck("asset", result.Authorized)
	g.recordAudit(ctx, audit.Event{
		Action: audit.ActionReleaseChecked, EntityKind: "asset",
		EntityID: assetID, AssetID: assetID, Detail: string(result.ReasonCode),
	})
	return result, nil
}

// AttemptRelease answers whether one deliverable is releasable, scoped to the
// verifications explicitly linked to it. Zero links is rejected with its own
// reason rather than silently authorized.
func (g *Gate) AttemptRelease(ctx context.Context, assetID, deliverableID string) (ReleaseResult, error) {
	if _, err := g.assets.FindByID(ctx, assetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ReleaseResult{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "asset %q not found", assetID)
		}
		return ReleaseResult{}, err
	}
	linked, err := g.links.Links(ctx, deliverableID)
	if err != nil {
		return ReleaseResult{}, err
	}
	scope := make([]domain.Verification, 0, len(linked))
	for _, id := range linked {
		v, err := g.verifications.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ReleaseResult{}, pkgerrors.Newf(pkgerrors.CodeNotFound,
					"verification %q linked to deliverable %q not found", id, deliverableID)
			}
			return ReleaseResult{}, err
		}
		scope = append(scope, v)
	}

	result := g.evaluate(ctx, scope)
	result.DeliverableID = deliverableID
	if result.ReasonCode == ReasonNoRequirements {
		result.Summary = fmt.Sprintf(
			"No verification requirements linked to deliverable %s. Register at least one stamp before release.",
			deliverableID)
	} else if result.Authorized {
		result.Summary = fmt.Sprintf(
			"Deliverable %s released. All %d stamp(s) verified.", deliverableID, result.Total)
	} else {
		result.Summary = fmt.Sprintf(
			"%d stamp(s) outstanding for deliverable %s. Release blocked.",
			len(result.Blocking), deliverableID)
	}

	g.metrics.observeCheck("deliverable", result.Authorized)
	g.recordAudit(ctx, audit.Event{
		Action: audit.ActionReleaseAttempted, EntityKind: "deliverable",
		EntityID: deliverableID, AssetID: assetID, Detail: string(result.ReasonCode),
	})
	return result, nil
}

// evaluate applies lazy expiry to the scoped records and partitions them into
// satisfied and blocking. A stamped record past its expiry flips to expired
// inside the store's critical section; it never reverts to stamped without
// going back through awaiting_upload.
func (g *Gate) evaluate(ctx context.Context, scope []domain.Verification) ReleaseResult {
	if len(scope) == 0 {
		return ReleaseResult{
			Authorized: false,
			ReasonCode: ReasonNoRequirements,
			Blocking:   []BlockingStamp{},
		}
	}

	now := g.now()
	satisfied := 0
	blocking := []BlockingStamp{}
	for _, v := range scope {
		if v.Status == domain.VerificationStamped && v.ExpiresAt != nil && v.ExpiresAt.Before(now) {
			expired, err := g.expire(ctx, v.ID, now)
			if err != nil {
				// The flip raced with another mutation; re-read so the
				// report matches what actually landed.
				g.logger.WarnContext(ctx, "lazy expiry skipped", "verification_id", v.ID, "error", err)
				if current, ferr := g.verifications.FindByID(ctx, v.ID); ferr == nil {
					v = current
				}
			} else {
				v = expired
			}
		}
		if v.Status == domain.VerificationStamped {
			satisfied++
			continue
		}
		blocking = append(blocking, BlockingStamp{
			ID:           v.ID,
			RoleTitle:    v.RoleTitle,
			Jurisdiction: v.Jurisdiction,
			Status:       v.Status,
		})
	}

	result := ReleaseResult{
		Authorized: len(blocking) == 0,
		Total:      len(scope),
		Satisfied:  satisfied,
		Blocking:   blocking,
	}
	if result.Authorized {
		result.ReasonCode = ReasonAuthorized
	} else {
		result.ReasonCode = ReasonOutstanding
	}
	return result
}

// expire flips one stamped, past-expiry record to expired. The recheck inside
// the update closure guards against a concurrent transition between the read
// and the lock.
func (g *Gate) expire(ctx context.Context, id string, now time.Time) (domain.Verification, error) {
	expired, err := g.verifications.Update(ctx, id, func(v *domain.Verification) error {
		if v.Status != domain.VerificationStamped || v.ExpiresAt == nil || !v.ExpiresAt.Before(now) {
			return pkgerrors.Newf(pkgerrors.CodeInvalidState, "verification %q no longer expirable", id)
		}
		v.Status = domain.VerificationExpired
		v.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Verification{}, err
	}
	g.metrics.observeExpiry()
	g.recordAudit(ctx, audit.Event{
		Action: audit.ActionStampExpired, EntityKind: "verification",
		EntityID: id, AssetID: expired.AssetID,
	})
	return expired, nil
}

func (g *Gate) recordAudit(ctx context.Context, event audit.Event) {
	if g.auditor == nil {
		return
	}
	if err := g.auditor.Record(ctx, event); err != nil {
		g.logger.WarnContext(ctx, "audit record failed", "action", event.Action, "error", err)
	}
}
