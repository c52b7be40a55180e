package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
)

// ErrProfileExists is returned by Create when the id is already taken.
var ErrProfileExists = errors.New("profile already exists")

// RedisProfileRepository stores each profile as a JSON document under profile:<id>.
type RedisProfileRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisProfileRepository uses prefix (may be empty) in front of every key.
func NewRedisProfileRepository(client *redis.Client, prefix string) *RedisProfileRepository {
	return &RedisProfileRepository{client: client, prefix: prefix}
}

func (r *RedisProfileRepository) key(id string) string {
	if r.prefix == "" {
		return "profile:" + id
	}
	return r.prefix + ":profile:" + id
}

func (r *RedisProfileRepository) Create(ctx context.Context, p *models.UserProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.key(p.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create profile %s: %w", p.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.ID)
	}
	return nil
}

func (r *RedisProfileRepository) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domrepo.ErrProfileNotFound, id)
		}
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return &p, nil
}

const maxModifyAttempts = 5

// Modify runs an optimistic read-modify-write under WATCH. A write by another
// client between GET and EXEC fails the transaction and the whole cycle reruns.
func (r *RedisProfileRepository) Modify(ctx context.Context, id string, fn func(p *models.UserProfile) error) (*models.UserProfile, error) {
	key := r.key(id)
	var out *models.UserProfile
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("%w: %s", domrepo.ErrProfileNotFound, id)
			}
			return fmt.Errorf("get profile %s: %w", id, err)
		}
		var p models.UserProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decode profile %s: %w", id, err)
		}
		if err := fn(&p); err != nil {
			return err
		}
		updated, err := json.Marshal(&p)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		out = &p
		return nil
	}

	for attempt := 0; attempt < maxModifyAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", domrepo.ErrProfileConflict, id)
}

func (r *RedisProfileRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domrepo.ErrProfileNotFound, id)
	}
	return nil
}

var _ domrepo.ProfileRepository = (*RedisProfileRepository)(nil)
