package storage

import (
	"context"

	"canopy/internal/domain"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory, Redis, or Postgres persistence without rewiring business
// code. Insert fails with ErrDuplicate on id reuse; FindByID with ErrNotFound.
// List methods return records in creation order and an empty slice (never an
// error) when nothing matches.
//
// Update runs fn on the current record inside the store's critical section and
// persists the result only when fn returns nil. Compound mutations (signature
// recording, lazy expiry) go through Update so concurrent callers never
// observe a half-applied record.

type AssetStore interface {
	Insert(ctx context.Context, asset domain.Asset) error
	FindByID(ctx context.Context, id string) (domain.Asset, error)
	List(ctx context.Context) ([]domain.Asset, error)
	Update(ctx context.Context, id string, fn func(*domain.Asset) error) (domain.Asset, error)
}

type LiabilityStore interface {
	Insert(ctx context.Context, liability domain.Liability) error
	FindByID(ctx context.Context, id string) (domain.Liability, error)
	ListByAsset(ctx context.Context, assetID string) ([]domain.Liability, error)
	Update(ctx context.Context, id string, fn func(*domain.Liability) error) (domain.Liability, error)
}

type InterventionStore interface {
	Insert(ctx context.Context, intervention domain.Intervention) error
	FindByID(ctx context.Context, id string) (domain.Intervention, error)
	ListByAsset(ctx context.Context, assetID string) ([]domain.Intervention, error)
	Update(ctx context.Context, id string, fn func(*domain.Intervention) error) (domain.Intervention, error)
}

type VerificationStore interface {
	Insert(ctx context.Context, verification domain.Verification) error
	FindByID(ctx context.Context, id string) (domain.Verification, error)
	ListByAsset(ctx context.Context, assetID string) ([]domain.Verification, error)
	ListByIntervention(ctx context.Context, interventionID string) ([]domain.Verification, error)
	Update(ctx context.Context, id string, fn func(*domain.Verification) error) (domain.Verification, error)
}

// DeliverableLinkStore keeps the explicit deliverable to verification link
// table. Linking is always explicit at registration time - release scoping
// never works by naming convention.
type DeliverableLinkStore interface {
	Link(ctx context.Context, deliverableID, verificationID string) error
	Links(ctx context.Context, deliverableID string) ([]string, error)
}
