package storage

import (
	"context"
	"sync"

	"canopy/internal/domain"
)

// In-memory stores are the reference implementation and the default backend.
// Each guards its maps with an RWMutex; insertion order is kept in a side
// slice so scoped lists come back in creation order.

type InMemoryAssetStore struct {
	mu     sync.RWMutex
	assets map[string]domain.Asset
	order  []string
}

func NewInMemoryAssetStore() *InMemoryAssetStore {
	return &InMemoryAssetStore{assets: make(map[string]domain.Asset)}
}

func (s *InMemoryAssetStore) Insert(_ context.Context, asset domain.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[asset.ID]; ok {
		return ErrDuplicate
	}
	s.assets[asset.ID] = asset
	s.order = append(s.order, asset.ID)
	return nil
}

func (s *InMemoryAssetStore) FindByID(_ context.Context, id string) (domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if asset, ok := s.assets[id]; ok {
		return asset, nil
	}
	return domain.Asset{}, ErrNotFound
}

func (s *InMemoryAssetStore) List(_ context.Context) ([]domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Asset, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.assets[id])
	}
	return out, nil
}

func (s *InMemoryAssetStore) Update(_ context.Context, id string, fn func(*domain.Asset) error) (domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[id]
	if !ok {
		return domain.Asset{}, ErrNotFound
	}
	if err := fn(&asset); err != nil {
		return domain.Asset{}, err
	}
	s.assets[id] = asset
	return asset, nil
}

type InMemoryLiabilityStore struct {
	mu          sync.RWMutex
	liabilities map[string]domain.Liability
	order       []string
}

func NewInMemoryLiabilityStore() *InMemoryLiabilityStore {
	return &InMemoryLiabilityStore{liabilities: make(map[string]domain.Liability)}
}

func (s *InMemoryLiabilityStore) Insert(_ context.Context, liability domain.Liability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liabilities[liability.ID]; ok {
		return ErrDuplicate
	}
	s.liabilities[liability.ID] = liability
	s.order = append(s.order, liability.ID)
	return nil
}

func (s *InMemoryLiabilityStore) FindByID(_ context.Context, id string) (domain.Liability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if liability, ok := s.liabilities[id]; ok {
		return liability, nil
	}
	return domain.Liability{}, ErrNotFound
}

func (s *InMemoryLiabilityStore) ListByAsset(_ context.Context, assetID string) ([]domain.Liability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Liability{}
	for _, id := range s.order {
		if l := s.liabilities[id]; l.AssetID == assetID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *InMemoryLiabilityStore) Update(_ context.Context, id string, fn func(*domain.Liability) error) (domain.Liability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	liability, ok := s.liabilities[id]
	if !ok {
		return domain.Liability{}, ErrNotFound
	}
	if err := fn(&liability); err != nil {
		return domain.Liability{}, err
	}
	s.liabilities[id] = liability
	return liability, nil
}

type InMemoryInterventionStore struct {
	mu            sync.RWMutex
	interventions map[string]domain.Intervention
	order         []string
}

func NewInMemoryInterventionStore() *InMemoryInterventionStore {
	return &InMemoryInterventionStore{interventions: make(map[string]domain.Intervention)}
}

func (s *InMemoryInterventionStore) Insert(_ context.Context, intervention domain.Intervention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interventions[intervention.ID]; ok {
		return ErrDuplicate
	}
	s.interventions[intervention.ID] = intervention
	s.order = append(s.order, intervention.ID)
	return nil
}

func (s *InMemoryInterventionStore) FindByID(_ context.Context, id string) (domain.Intervention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if intervention, ok := s.interventions[id]; ok {
		return intervention, nil
	}
	return domain.Intervention{}, ErrNotFound
}

func (s *InMemoryInterventionStore) ListByAsset(_ context.Context, assetID string) ([]domain.Intervention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Intervention{}
	for _, id := range s.order {
		if i := s.interventions[id]; i.AssetID == assetID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *InMemoryInterventionStore) Update(_ context.Context, id string, fn func(*domain.Intervention) error) (domain.Intervention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intervention, ok := s.interventions[id]
	if !ok {
		return domain.Intervention{}, ErrNotFound
	}
	if err := fn(&intervention); err != nil {
		return domain.Intervention{}, err
	}
	s.interventions[id] = intervention
	return intervention, nil
}

type InMemoryVerificationStore struct {
	mu            sync.RWMutex
	verifications map[string]domain.Verification
	order         []string
}

func NewInMemoryVerificationStore() *InMemoryVerificationStore {
	return &InMemoryVerificationStore{verifications: make(map[string]domain.Verification)}
}

func (s *InMemoryVerificationStore) Insert(_ context.Context, verification domain.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verifications[verification.ID]; ok {
		return ErrDuplicate
	}
	s.verifications[verification.ID] = verification
	s.order = append(s.order, verification.ID)
	return nil
}

func (s *InMemoryVerificationStore) FindByID(_ context.Context, id string) (domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if verification, ok := s.verifications[id]; ok {
		return verification, nil
	}
	return domain.Verification{}, ErrNotFound
}

func (s *InMemoryVerificationStore) ListByAsset(_ context.Context, assetID string) ([]domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Verification{}
	for _, id := range s.order {
		if v := s.verifications[id]; v.AssetID == assetID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *InMemoryVerificationStore) ListByIntervention(_ context.Context, interventionID string) ([]domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Verification{}
	for _, id := range s.order {
		if v := s.verifications[id]; v.InterventionID == interventionID {
			out = append(out, v)
		}
	}
	return out, nil
}

// Update applies fn under the write lock so compound mutations (signature
// recording, lazy expiry) are atomic with respect to concurrent readers and
// writers. A non-nil error from fn discards the change entirely.
func (s *InMemoryVerificationStore) Update(_ context.Context, id string, fn func(*domain.Verification) error) (domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	verification, ok := s.verifications[id]
	if !ok {
		return domain.Verification{}, ErrNotFound
	}
	if err := fn(&verification); err != nil {
		return domain.Verification{}, err
	}
	s.verifications[id] = verification
	return verification, nil
}

// InMemoryDeliverableLinkStore keeps deliverable to verification links in
// registration order.
type InMemoryDeliverableLinkStore struct {
	mu    sync.RWMutex
	links map[string][]string
}

func NewInMemoryDeliverableLinkStore() *InMemoryDeliverableLinkStore {
	return &InMemoryDeliverableLinkStore{links: make(map[string][]string)}
}

func (s *InMemoryDeliverableLinkStore) Link(_ context.Context, deliverableID, verificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[deliverableID] = append(s.links[deliverableID], verificationID)
	return nil
}

func (s *InMemoryDeliverableLinkStore) Links(_ context.Context, deliverableID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.links[deliverableID]))
	copy(out, s.links[deliverableID])
	return out, nil
}
