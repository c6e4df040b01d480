package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"voteaudit/internal/domain"
	cryptoinfra "voteaudit/internal/infra/crypto"
	"voteaudit/internal/usecase"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the entries as one canonical JSON document under
// "<prefix>:entries" so a restarted daemon resumes without re-verifying.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(addr, password string, db int, prefix string) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisWithClient(client, prefix), nil
}

func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "voteaudit"
	}
	return &Redis{client: client, key: prefix + ":entries"}
}

func (r *Redis) Key() string {
	return r.key
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) LoadEntries(ctx context.Context) ([]domain.ScheduleEntry, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule state: %w", err)
	}
	var entries []domain.ScheduleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode schedule state: %w", err)
	}
	return entries, nil
}

func (r *Redis) SaveEntries(ctx context.Context, entries []domain.ScheduleEntry) error {
	if entries == nil {
		entries = []domain.ScheduleEntry{}
	}
	data, err := cryptoinfra.CanonicalizeAny(entries)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save schedule state: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ usecase.StateStore = (*Redis)(nil)
