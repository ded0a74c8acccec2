package ledger

import (
	"context"
	"time"

	"sqsbackoff/internal/batch"
	"sqsbackoff/internal/logger"
	"sqsbackoff/pkg/metrics"
)

// Recorder writes each observation to the ledger. Write failures are logged
// and otherwise ignored so the batch result never depends on Redis.
type Recorder struct {
	repo    Repository
	logger  logger.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewRecorder(repo Repository, log logger.Logger) *Recorder {
	return &Recorder{
		repo:    repo,
		logger:  log,
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

func (r *Recorder) Observe(ctx context.Context, obs batch.Observation) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.repo.Save(ctx, NewEntry(obs, r.now())); err != nil {
		metrics.IncLedgerWrite("error")
		r.logger.WarnwCtx(ctx, "Failed to record outcome", "error", err)
		return
	}
	metrics.IncLedgerWrite("success")
}
