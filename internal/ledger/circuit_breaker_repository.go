package ledger

import (
	"context"
	"fmt"

	"sqsbackoff/internal/config"
	"sqsbackoff/pkg/circuitbreaker"
	apperrors "sqsbackoff/pkg/errors"
)

const breakerName = "redis-ledger"

type CircuitBreakerRepository struct {
	repo Repository
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerRepository(repo Repository, cfg config.CircuitBreakerConfig) *CircuitBreakerRepository {
	return &CircuitBreakerRepository{
		repo: repo,
		cb:   circuitbreaker.FromSettings(breakerName, cfg),
	}
}

func (r *CircuitBreakerRepository) Save(ctx context.Context, entry Entry) error {
	if r.cb == nil {
		return r.repo.Save(ctx, entry)
	}

	err := r.cb.Do(ctx, func(ctx context.Context) error {
		return r.repo.Save(ctx, entry)
	})
	if circuitbreaker.IsOpen(err) {
		return fmt.Errorf("circuit breaker is open for %s: %w", breakerName, err)
	}
	return err
}

// Get does not count not-found answers against the breaker.
func (r *CircuitBreakerRepository) Get(ctx context.Context, messageID string) (Entry, error) {
	if r.cb == nil {
		return r.repo.Get(ctx, messageID)
	}

	var (
		entry    Entry
		notFound error
	)
	err := r.cb.Do(ctx, func(ctx context.Context) error {
		var err error
		entry, err = r.repo.Get(ctx, messageID)
		if apperrors.IsNotFound(err) {
			notFound = err
			return nil
		}
		return err
	})
	if err != nil {
		if circuitbreaker.IsOpen(err) {
			return Entry{}, apperrors.ErrServiceUnavailable.WithCause(err)
		}
		return Entry{}, err
	}
	if notFound != nil {
		return Entry{}, notFound
	}
	return entry, nil
}

func (r *CircuitBreakerRepository) State() string {
	if r.cb == nil {
		return "disabled"
	}
	return r.cb.State().String()
}

func (r *CircuitBreakerRepository) IsOpen() bool {
	if r.cb == nil {
		return false
	}
	return r.cb.IsOpen()
}
