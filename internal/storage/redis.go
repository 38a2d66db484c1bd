package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"canopy/internal/domain"
)

// Redis-backed verification and link stores let multiple instances share
// stamp state. Records are JSON values keyed by id; per-parent index lists
// preserve creation order. Update uses WATCH-based optimistic transactions so
// the compound signature write stays atomic across instances.

const (
	redisVerificationKeyPrefix      = "canopy:verification:"
	redisAssetIndexKeyPrefix        = "canopy:asset:%s:verifications"
	redisInterventionIndexKeyPrefix = "canopy:intervention:%s:verifications"
	redisDeliverableKeyPrefix       = "canopy:deliverable:%s:links"

	redisUpdateRetries = 5
)

type RedisVerificationStore struct {
	client *redis.Client
}

func NewRedisVerificationStore(client *redis.Client) *RedisVerificationStore {
	return &RedisVerificationStore{client: client}
}

func (s *RedisVerificationStore) Insert(ctx context.Context, verification domain.Verification) error {
	body, err := json.Marshal(verification)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	ok, err := s.client.SetNX(ctx, redisVerificationKeyPrefix+verification.ID, body, 0).Result()
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, fmt.Sprintf(redisAssetIndexKeyPrefix, verification.AssetID), verification.ID)
	pipe.RPush(ctx, fmt.Sprintf(redisInterventionIndexKeyPrefix, verification.InterventionID), verification.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index verification: %w", err)
	}
	return nil
}

func (s *RedisVerificationStore) FindByID(ctx context.Context, id string) (domain.Verification, error) {
	body, err := s.client.Get(ctx, redisVerificationKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Verification{}, ErrNotFound
	}
	if err != nil {
		return domain.Verification{}, fmt.Errorf("find verification: %w", err)
	}
	var verification domain.Verification
	if err := json.Unmarshal(body, &verification); err != nil {
		return domain.Verification{}, err
	}
	return verification, nil
}

func (s *RedisVerificationStore) ListByAsset(ctx context.Context, assetID string) ([]domain.Verification, error) {
	return s.listByIndex(ctx, fmt.Sprintf(redisAssetIndexKeyPrefix, assetID))
}

func (s *RedisVerificationStore) ListByIntervention(ctx context.Context, interventionID string) ([]domain.Verification, error) {
	return s.listByIndex(ctx, fmt.Sprintf(redisInterventionIndexKeyPrefix, interventionID))
}

func (s *RedisVerificationStore) listByIndex(ctx context.Context, indexKey string) ([]domain.Verification, error) {
	ids, err := s.client.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("scan index: %w", err)
	}
	out := []domain.Verification{}
	for _, id := range ids {
		verification, err := s.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, verification)
	}
	return out, nil
}

// Update applies fn under an optimistic WATCH transaction, retrying on
// contention. A non-nil error from fn aborts without writing.
func (s *RedisVerificationStore) Update(ctx context.Context, id string, fn func(*domain.Verification) error) (domain.Verification, error) {
	key := redisVerificationKeyPrefix + id
	var updated domain.Verification

	txn := func(tx *redis.Tx) error {
		body, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var verification domain.Verification
		if err := json.Unmarshal(body, &verification); err != nil {
			return err
		}
		if err := fn(&verification); err != nil {
			return err
		}
		next, err := json.Marshal(verification)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = verification
		return nil
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Verification{}, err
		}
		return updated, nil
	}
	return domain.Verification{}, fmt.Errorf("update verification %s: too much contention", id)
}

type RedisDeliverableLinkStore struct {
	client *redis.Client
}

func NewRedisDeliverableLinkStore(client *redis.Client) *RedisDeliverableLinkStore {
	return &RedisDeliverableLinkStore{client: client}
}

func (s *RedisDeliverableLinkStore) Link(ctx context.Context, deliverableID, verificationID string) error {
	key := fmt.Sprintf(redisDeliverableKeyPrefix, deliverableID)
	if err := s.client.RPush(ctx, key, verificationID).Err(); err != nil {
		return fmt.Errorf("link deliverable: %w", err)
	}
	return nil
}

func (s *RedisDeliverableLinkStore) Links(ctx context.Context, deliverableID string) ([]string, error) {
	key := fmt.Sprintf(redisDeliverableKeyPrefix, deliverableID)
	ids, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list deliverable links: %w", err)
	}
	return ids, nil
}
