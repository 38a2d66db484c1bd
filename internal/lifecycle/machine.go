// Package lifecycle enforces the legal lifecycle of a verification record.
// The transition table is data, not inline branching, so jurisdictions or
// future states can extend it without touching call sites.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"canopy/internal/audit"
	"canopy/internal/domain"
	"canopy/internal/storage"
	pkgerrors "canopy/pkg/errors"
)

// Defaults for constructor-time configuration.
const (
	DefaultMaxRevisionCycles = 2
	DefaultStampValidity     = 365 * 24 * time.Hour
)

// Config tunes the machine. Zero values select the documented defaults.
type Config struct {
	// MaxRevisionCycles caps consecutive rejected -> awaiting_upload loops
	// before the workflow demands a human. Default 2.
	MaxRevisionCycles int
	// StampValidity is the window a signature stays valid. Default 365 days.
	StampValidity time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRevisionCycles == 0 {
		c.MaxRevisionCycles = DefaultMaxRevisionCycles
	}
	if c.StampValidity == 0 {
		c.StampValidity = DefaultStampValidity
	}
	return c
}

// Auditor records trail events; failures are logged, never fatal.
type Auditor interface {
	Record(ctx context.Context, event audit.Event) error
}

// Machine governs a single verification's lifecycle. All mutations run inside
// the store's locked read-modify-write so compound updates are atomic with
// respect to concurrent Advance and release checks on the same record.
type Machine struct {
	verifications storage.VerificationStore
	transitions   map[domain.VerificationStatus][]domain.VerificationStatus
	cfg           Config
	auditor       Auditor
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock substitutes the time source used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func NewMachine(verifications storage.VerificationStore, cfg Config, auditor Auditor, logger *slog.Logger, opts ...Option) *Machine {
	m := &Machine{
		verifications: verifications,
		transitions:   newTransitionTable(),
		cfg:           cfg.withDefaults(),
		auditor:       auditor,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// newTransitionTable builds the immutable legal-successor mapping. pending is
// initial; there is no terminal state - expired always re-enters
// awaiting_upload, modeling re-certification.
func newTransitionTable() map[domain.VerificationStatus][]domain.VerificationStatus {
	return map[domain.VerificationStatus][]domain.VerificationStatus{
		domain.VerificationPending:        {domain.VerificationAwaitingUpload},
		domain.VerificationAwaitingUpload: {domain.VerificationUnderReview},
		domain.VerificationUnderReview:    {domain.VerificationStamped, domain.VerificationRejected},
		domain.VerificationRejected:       {domain.VerificationAwaitingUpload, domain.VerificationExpired},
		domain.VerificationStamped:        {domain.VerificationExpired},
		domain.VerificationExpired:        {domain.VerificationAwaitingUpload},
	}
}

// Allowed returns the legal successors of a state, in table order.
func (m *Machine) Allowed(from domain.VerificationStatus) []domain.VerificationStatus {
	return m.transitions[from]
}

// Advance moves a verification to target if the transition table permits it.
// rejected -> awaiting_upload counts a revision cycle; exceeding the cap fails
// with escalation_required and leaves the record in rejected.
func (m *Machine) Advance(ctx context.Context, id string, target domain.VerificationStatus) (domain.Verification, error) {
	if !target.Valid() {
		return domain.Verification{}, pkgerrors.Newf(pkgerrors.CodeMalformedInput, "unknown verification status %q", target)
	}
	verification, err := m.verifications.Update(ctx, id, func(v *domain.Verification) error {
		allowed := m.transitions[v.Status]
		if !contains(allowed, target) {
			return pkgerrors.Newf(pkgerrors.CodeInvalidTransition,
				"cannot move verification %q from %q to %q; allowed: %s",
				id, v.Status, target, statusList(allowed))
		}
		if v.Status == domain.VerificationRejected && target == domain.VerificationAwaitingUpload {
			if v.RevisionCount+1 > m.cfg.MaxRevisionCycles {
				return pkgerrors.Newf(pkgerrors.CodeEscalationRequired,
					"verification %q exceeded %d revision cycles; escalate for manual resolution",
					id, m.cfg.MaxRevisionCycles)
			}
			v.RevisionCount++
		}
		v.Status = target
		v.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Verification{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "verification %q not found", id)
		}
		return domain.Verification{}, err
	}
	m.recordAudit(ctx, audit.Event{
		Action: audit.ActionStatusAdvanced, EntityKind: "verification",
		EntityID: id, AssetID: verification.AssetID, Detail: string(target),
	})
	return verification, nil
}

// RecordSignature is the compound stamping operation. Precondition: the
// record is exactly under_review. On success every signer field, the
// signature time, the computed expiry, and the stamped status land together;
// on failure nothing changes.
func (m *Machine) RecordSignature(ctx context.Context, id, signerName, signerCredentials, documentHash string) (domain.Verification, error) {
	if signerName == "" || documentHash == "" {
		return domain.Verification{}, pkgerrors.New(pkgerrors.CodeMalformedInput, "signer name and document hash are required")
	}
	verification, err := m.verifications.Update(ctx, id, func(v *domain.Verification) error {
		if v.Status != domain.VerificationUnderReview {
			return pkgerrors.Newf(pkgerrors.CodeInvalidState,
				"cannot record signature: verification %q is %q, expected %q",
				id, v.Status, domain.VerificationUnderReview)
		}
		now := m.now()
		expiry := now.Add(m.cfg.StampValidity)
		v.SignerName = signerName
		v.SignerCredentials = signerCredentials
		v.DocumentHash = documentHash
		v.SignedAt = &now
		v.ExpiresAt = &expiry
		v.Status = domain.VerificationStamped
		v.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Verification{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "verification %q not found", id)
		}
		return domain.Verification{}, err
	}
	m.recordAudit(ctx, audit.Event{
		Action: audit.ActionSignatureRecorded, EntityKind: "verification",
		EntityID: id, AssetID: verification.AssetID, Detail: signerName,
	})
	return verification, nil
}

func (m *Machine) recordAudit(ctx context.Context, event audit.Event) {
	if m.auditor == nil {
		return
	}
	if err := m.auditor.Record(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "audit record failed", "action", event.Action, "error", err)
	}
}

func contains(set []domain.VerificationStatus, target domain.VerificationStatus) bool {
	for _, s := range set {
		if s == target {
			return true
		}
	}
	return false
}

func statusList(set []domain.VerificationStatus) string {
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = string(s)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
