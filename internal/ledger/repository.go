package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sqsbackoff/internal/constants"
	apperrors "sqsbackoff/pkg/errors"
)

type Repository interface {
	Save(ctx context.Context, entry Entry) error
	Get(ctx context.Context, messageID string) (Entry, error)
}

type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRepository(client *redis.Client, ttl time.Duration) Repository {
	if ttl <= 0 {
		ttl = time.Duration(constants.DefaultTTLSeconds) * time.Second
	}
	return &RedisRepository{client: client, ttl: ttl}
}

func Key(messageID string) string {
	return constants.CacheKeyPrefixOutcome + messageID
}

func (r *RedisRepository) Save(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	if err := r.client.Set(ctx, Key(entry.MessageID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis Set failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, messageID string) (Entry, error) {
	data, err := r.client.Get(ctx, Key(messageID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, apperrors.ErrNotFound.WithMessage("no outcome recorded for message " + messageID)
		}
		return Entry{}, fmt.Errorf("redis Get failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
	}
	return entry, nil
}
