package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"canopy/internal/domain"
)

// Postgres persistence keeps each record as a JSONB body plus the indexed
// columns the core needs: id for point lookups, asset/parent ids for scoped
// scans, and a sequence for creation order. Compound updates run inside a
// transaction with SELECT ... FOR UPDATE so the read-modify-write is atomic
// across instances.

const pgUniqueViolation = "23505"

// PostgresStores bundles the Postgres-backed implementations of every store
// interface over one connection pool.
type PostgresStores struct {
	Assets        *PostgresAssetStore
	Liabilities   *PostgresLiabilityStore
	Interventions *PostgresInterventionStore
	Verifications *PostgresVerificationStore
	Links         *PostgresDeliverableLinkStore
}

func NewPostgresStores(db *sql.DB) *PostgresStores {
	return &PostgresStores{
		Assets:        &PostgresAssetStore{db: db},
		Liabilities:   &PostgresLiabilityStore{db: db},
		Interventions: &PostgresInterventionStore{db: db},
		Verifications: &PostgresVerificationStore{db: db},
		Links:         &PostgresDeliverableLinkStore{db: db},
	}
}

// Migrate creates the schema if missing. Kept inline; the schema is two
// tables and this core ships no separate migration tooling.
func (s *PostgresStores) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS canopy_records (
			id        TEXT PRIMARY KEY,
			kind      TEXT NOT NULL,
			asset_id  TEXT NOT NULL DEFAULT '',
			parent_id TEXT NOT NULL DEFAULT '',
			seq       BIGSERIAL,
			body      JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS canopy_records_kind_asset_idx ON canopy_records (kind, asset_id, seq)`,
		`CREATE INDEX IF NOT EXISTS canopy_records_kind_parent_idx ON canopy_records (kind, parent_id, seq)`,
		`CREATE TABLE IF NOT EXISTS canopy_deliverable_links (
			deliverable_id  TEXT NOT NULL,
			verification_id TEXT NOT NULL,
			seq             BIGSERIAL,
			PRIMARY KEY (deliverable_id, verification_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.Assets.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func pgInsert(ctx context.Context, db *sql.DB, kind, id, assetID, parentID string, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO canopy_records (id, kind, asset_id, parent_id, body) VALUES ($1, $2, $3, $4, $5)`,
		id, kind, assetID, parentID, body)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	return nil
}

func pgFind(ctx context.Context, db *sql.DB, kind, id string, dest any) error {
	var body []byte
	err := db.QueryRowContext(ctx,
		`SELECT body FROM canopy_records WHERE kind = $1 AND id = $2`, kind, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("find %s: %w", kind, err)
	}
	return json.Unmarshal(body, dest)
}

func pgList(ctx context.Context, db *sql.DB, kind, column, value string, collect func(json.RawMessage) error) error {
	query := fmt.Sprintf(
		`SELECT body FROM canopy_records WHERE kind = $1 AND %s = $2 ORDER BY seq`, column)
	rows, err := db.QueryContext(ctx, query, kind, value)
	if err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()
	for rows.Next() {
		var body json.RawMessage
		if err := rows.Scan(&body); err != nil {
			return err
		}
		if err := collect(body); err != nil {
			return err
		}
	}
	return rows.Err()
}

// pgUpdate locks the row, applies mutate to the decoded body, and writes the
// result back. A non-nil error from mutate rolls everything back.
func pgUpdate(ctx context.Context, db *sql.DB, kind, id string, decode func(json.RawMessage) (any, error)) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %s: %w", kind, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var body []byte
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM canopy_records WHERE kind = $1 AND id = $2 FOR UPDATE`, kind, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock %s: %w", kind, err)
	}
	mutated, err := decode(body)
	if err != nil {
		return err
	}
	next, err := json.Marshal(mutated)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE canopy_records SET body = $1 WHERE kind = $2 AND id = $3`, next, kind, id); err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	return tx.Commit()
}

type PostgresAssetStore struct {
	db *sql.DB
}

func (s *PostgresAssetStore) Insert(ctx context.Context, asset domain.Asset) error {
	return pgInsert(ctx, s.db, "asset", asset.ID, asset.ID, "", asset)
}

func (s *PostgresAssetStore) FindByID(ctx context.Context, id string) (domain.Asset, error) {
	var asset domain.Asset
	if err := pgFind(ctx, s.db, "asset", id, &asset); err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

func (s *PostgresAssetStore) List(ctx context.Context) ([]domain.Asset, error) {
	out := []domain.Asset{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM canopy_records WHERE kind = 'asset' ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var asset domain.Asset
		if err := json.Unmarshal(body, &asset); err != nil {
			return nil, err
		}
		out = append(out, asset)
	}
	return out, rows.Err()
}

func (s *PostgresAssetStore) Update(ctx context.Context, id string, fn func(*domain.Asset) error) (domain.Asset, error) {
	var asset domain.Asset
	err := pgUpdate(ctx, s.db, "asset", id, func(body json.RawMessage) (any, error) {
		if err := json.Unmarshal(body, &asset); err != nil {
			return nil, err
		}
		if err := fn(&asset); err != nil {
			return nil, err
		}
		return asset, nil
	})
	if err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

type PostgresLiabilityStore struct {
	db *sql.DB
}

func (s *PostgresLiabilityStore) Insert(ctx context.Context, liability domain.Liability) error {
	return pgInsert(ctx, s.db, "liability", liability.ID, liability.AssetID, liability.AssetID, liability)
}

func (s *PostgresLiabilityStore) FindByID(ctx context.Context, id string) (domain.Liability, error) {
	var liability domain.Liability
	if err := pgFind(ctx, s.db, "liability", id, &liability); err != nil {
		return domain.Liability{}, err
	}
	return liability, nil
}

func (s *PostgresLiabilityStore) ListByAsset(ctx context.Context, assetID string) ([]domain.Liability, error) {
	out := []domain.Liability{}
	err := pgList(ctx, s.db, "liability", "asset_id", assetID, func(body json.RawMessage) error {
		var liability domain.Liability
		if err := json.Unmarshal(body, &liability); err != nil {
			return err
		}
		out = append(out, liability)
		return nil
	})
	return out, err
}

func (s *PostgresLiabilityStore) Update(ctx context.Context, id string, fn func(*domain.Liability) error) (domain.Liability, error) {
	var liability domain.Liability
	err := pgUpdate(ctx, s.db, "liability", id, func(body json.RawMessage) (any, error) {
		if err := json.Unmarshal(body, &liability); err != nil {
			return nil, err
		}
		if err := fn(&liability); err != nil {
			return nil, err
		}
		return liability, nil
	})
	if err != nil {
		return domain.Liability{}, err
	}
	return liability, nil
}

type PostgresInterventionStore struct {
	db *sql.DB
}

func (s *PostgresInterventionStore) Insert(ctx context.Context, intervention domain.Intervention) error {
	return pgInsert(ctx, s.db, "intervention", intervention.ID, intervention.AssetID, intervention.AssetID, intervention)
}

func (s *PostgresInterventionStore) FindByID(ctx context.Context, id string) (domain.Intervention, error) {
	var intervention domain.Intervention
	if err := pgFind(ctx, s.db, "intervention", id, &intervention); err != nil {
		return domain.Intervention{}, err
	}
	return intervention, nil
}

func (s *PostgresInterventionStore) ListByAsset(ctx context.Context, assetID string) ([]domain.Intervention, error) {
	out := []domain.Intervention{}
	err := pgList(ctx, s.db, "intervention", "asset_id", assetID, func(body json.RawMessage) error {
		var intervention domain.Intervention
		if err := json.Unmarshal(body, &intervention); err != nil {
			return err
		}
		out = append(out, intervention)
		return nil
	})
	return out, err
}

func (s *PostgresInterventionStore) Update(ctx context.Context, id string, fn func(*domain.Intervention) error) (domain.Intervention, error) {
	var intervention domain.Intervention
	err := pgUpdate(ctx, s.db, "intervention", id, func(body json.RawMessage) (any, error) {
		if err := json.Unmarshal(body, &intervention); err != nil {
			return nil, err
		}
		if err := fn(&intervention); err != nil {
			return nil, err
		}
		return intervention, nil
	})
	if err != nil {
		return domain.Intervention{}, err
	}
	return intervention, nil
}

type PostgresVerificationStore struct {
	db *sql.DB
}

func (s *PostgresVerificationStore) Insert(ctx context.Context, verification domain.Verification) error {
	return pgInsert(ctx, s.db, "verification", verification.ID, verification.AssetID, verification.InterventionID, verification)
}

func (s *PostgresVerificationStore) FindByID(ctx context.Context, id string) (domain.Verification, error) {
	var verification domain.Verification
	if err := pgFind(ctx, s.db, "verification", id, &verification); err != nil {
		return domain.Verification{}, err
	}
	return verification, nil
}

func (s *PostgresVerificationStore) ListByAsset(ctx context.Context, assetID string) ([]domain.Verification, error) {
	out := []domain.Verification{}
	err := pgList(ctx, s.db, "verification", "asset_id", assetID, func(body json.RawMessage) error {
		var verification domain.Verification
		if err := json.Unmarshal(body, &verification); err != nil {
			return err
		}
		out = append(out, verification)
		return nil
	})
	return out, err
}

func (s *PostgresVerificationStore) ListByIntervention(ctx context.Context, interventionID string) ([]domain.Verification, error) {
	out := []domain.Verification{}
	err := pgList(ctx, s.db, "verification", "parent_id", interventionID, func(body json.RawMessage) error {
		var verification domain.Verification
		if err := json.Unmarshal(body, &verification); err != nil {
			return err
		}
		out = append(out, verification)
		return nil
	})
	return out, err
}

func (s *PostgresVerificationStore) Update(ctx context.Context, id string, fn func(*domain.Verification) error) (domain.Verification, error) {
	var verification domain.Verification
	err := pgUpdate(ctx, s.db, "verification", id, func(body json.RawMessage) (any, error) {
		if err := json.Unmarshal(body, &verification); err != nil {
			return nil, err
		}
		if err := fn(&verification); err != nil {
			return nil, err
		}
		return verification, nil
	})
	if err != nil {
		return domain.Verification{}, err
	}
	return verification, nil
}

type PostgresDeliverableLinkStore struct {
	db *sql.DB
}

func (s *PostgresDeliverableLinkStore) Link(ctx context.Context, deliverableID, verificationID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO canopy_deliverable_links (deliverable_id, verification_id) VALUES ($1, $2)
		 ON CONFLICT (deliverable_id, verification_id) DO NOTHING`,
		deliverableID, verificationID)
	if err != nil {
		return fmt.Errorf("link deliverable: %w", err)
	}
	return nil
}

func (s *PostgresDeliverableLinkStore) Links(ctx context.Context, deliverableID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT verification_id FROM canopy_deliverable_links WHERE deliverable_id = $1 ORDER BY seq`,
		deliverableID)
	if err != nil {
		return nil, fmt.Errorf("list deliverable links: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
