//go:build integration

package storage_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"canopy/internal/domain"
	"canopy/internal/storage"
	"canopy/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	stores   *storage.PostgresStores
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.stores = storage.NewPostgresStores(s.postgres.DB)
	s.Require().NoError(s.stores.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"canopy_records", "canopy_deliverable_links")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedAsset(ctx context.Context, id string) domain.Asset {
	now := time.Now().UTC().Truncate(time.Microsecond)
	asset := domain.Asset{
		ID:           id,
		ProjectName:  "Sinaloa Mangrove Restoration",
		Jurisdiction: "Mexico (Sinaloa)",
		Status:       domain.AssetStatusActive,
		Hectares:     12400,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.stores.Assets.Insert(ctx, asset))
	return asset
}

func (s *PostgresStoreSuite) TestInsertAndFindRoundTrip() {
	ctx := context.Background()
	asset := s.seedAsset(ctx, "AST-0001")

	found, err := s.stores.Assets.FindByID(ctx, "AST-0001")
	s.Require().NoError(err)
	s.Equal(asset, found)

	_, err = s.stores.Assets.FindByID(ctx, "AST-GHOST")
	s.Require().ErrorIs(err, storage.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateInsert() {
	ctx := context.Background()
	s.seedAsset(ctx, "AST-0001")

	err := s.stores.Assets.Insert(ctx, domain.Asset{ID: "AST-0001", Status: domain.AssetStatusPipeline})
	s.Require().ErrorIs(err, storage.ErrDuplicate)
}

func (s *PostgresStoreSuite) TestScopedListsPreserveInsertOrder() {
	ctx := context.Background()
	s.seedAsset(ctx, "AST-0001")

	for _, id := range []string{"LIA-0001", "LIA-0002", "LIA-0003"} {
		s.Require().NoError(s.stores.Liabilities.Insert(ctx, domain.Liability{
			ID:      id,
			AssetID: "AST-0001",
			Type:    domain.LiabilityTypeRegulatory,
		}))
	}

	listed, err := s.stores.Liabilities.ListByAsset(ctx, "AST-0001")
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	s.Equal("LIA-0001", listed[0].ID)
	s.Equal("LIA-0002", listed[1].ID)
	s.Equal("LIA-0003", listed[2].ID)

	empty, err := s.stores.Liabilities.ListByAsset(ctx, "AST-UNSEEN")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *PostgresStoreSuite) TestVerificationListByIntervention() {
	ctx := context.Background()
	s.Require().NoError(s.stores.Verifications.Insert(ctx, domain.Verification{
		ID: "VER-0001", InterventionID: "INT-0001", AssetID: "AST-0001",
		Status: domain.VerificationPending,
	}))
	s.Require().NoError(s.stores.Verifications.Insert(ctx, domain.Verification{
		ID: "VER-0002", InterventionID: "INT-0002", AssetID: "AST-0001",
		Status: domain.VerificationPending,
	}))

	byIntervention, err := s.stores.Verifications.ListByIntervention(ctx, "INT-0001")
	s.Require().NoError(err)
	s.Require().Len(byIntervention, 1)
	s.Equal("VER-0001", byIntervention[0].ID)

	byAsset, err := s.stores.Verifications.ListByAsset(ctx, "AST-0001")
	s.Require().NoError(err)
	s.Len(byAsset, 2)
}

func (s *PostgresStoreSuite) TestUpdateRollsBackOnError() {
	ctx := context.Background()
	s.seedAsset(ctx, "AST-0001")

	boom := storage.ErrNotFound
	_, err := s.stores.Assets.Update(ctx, "AST-0001", func(a *domain.Asset) error {
		a.Status = domain.AssetStatusArchived
		return boom
	})
	s.Require().ErrorIs(err, boom)

	stored, err := s.stores.Assets.FindByID(ctx, "AST-0001")
	s.Require().NoError(err)
	s.Equal(domain.AssetStatusActive, stored.Status)
}

// TestConcurrentUpdatesAreSerialized verifies that row locking makes the
// read-modify-write atomic: every increment lands.
func (s *PostgresStoreSuite) TestConcurrentUpdatesAreSerialized() {
	ctx := context.Background()
	s.Require().NoError(s.stores.Verifications.Insert(ctx, domain.Verification{
		ID: "VER-0001", InterventionID: "INT-0001", AssetID: "AST-0001",
		Status: domain.VerificationRejected,
	}))

	const goroutines = 16
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.stores.Verifications.Update(ctx, "VER-0001", func(v *domain.Verification) error {
				v.RevisionCount++
				return nil
			})
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Zero(failures.Load())
	stored, err := s.stores.Verifications.FindByID(ctx, "VER-0001")
	s.Require().NoError(err)
	s.Equal(goroutines, stored.RevisionCount)
}

func (s *PostgresStoreSuite) TestDeliverableLinks() {
	ctx := context.Background()
	s.Require().NoError(s.stores.Links.Link(ctx, "DELIV-EIA", "VER-0001"))
	s.Require().NoError(s.stores.Links.Link(ctx, "DELIV-EIA", "VER-0002"))
	// Re-linking the same pair is a no-op, not an error.
	s.Require().NoError(s.stores.Links.Link(ctx, "DELIV-EIA", "VER-0001"))

	linked, err := s.stores.Links.Links(ctx, "DELIV-EIA")
	s.Require().NoError(err)
	s.Equal([]string{"VER-0001", "VER-0002"}, linked)

	none, err := s.stores.Links.Links(ctx, "DELIV-UNSEEN")
	s.Require().NoError(err)
	s.Empty(none)
}
