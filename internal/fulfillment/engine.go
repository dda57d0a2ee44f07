package fulfillment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/Spok95/batchflow/internal/infra/metrics"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryBase   = 50 * time.Millisecond
)

type Options struct {
	// MaxAttempts bounds how often a transaction that lost a serialization
	// race is run in total.
	MaxAttempts int
	RetryBase   time.Duration
	Notifier    Notifier
	Now         func() time.Time
}

// Engine wires the batch registry, the two bidding services and the two
// approval orchestrators over one Store.
type Engine struct {
	Registry          *Registry
	Requests          *Requests
	SupplierBidding   *SupplierBidding
	MaterialApproval  *MaterialApproval
	LogisticsBidding  *LogisticsBidding
	LogisticsApproval *LogisticsApproval
	Queries           *Queries
}

func New(store Store, log *slog.Logger, opts Options) *Engine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = DefaultRetryBase
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &runner{
		store:       store,
		log:         log,
		maxAttempts: opts.MaxAttempts,
		retryBase:   opts.RetryBase,
		notifier:    opts.Notifier,
		now:         func() time.Time { return opts.Now().UTC() },
	}
	return &Engine{
		Registry:          &Registry{r: r},
		Requests:          &Requests{r: r},
		SupplierBidding:   &SupplierBidding{r: r},
		MaterialApproval:  &MaterialApproval{r: r},
		LogisticsBidding:  &LogisticsBidding{r: r},
		LogisticsApproval: &LogisticsApproval{r: r},
		Queries:           &Queries{r: r},
	}
}

type runner struct {
	store       Store
	log         *slog.Logger
	maxAttempts int
	retryBase   time.Duration
	notifier    Notifier
	now         func() time.Time
}

// update runs fn in a write transaction, rerunning the whole transaction
// when the store reports a serialization failure.
func (r *runner) update(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error {
	start := time.Now()
	backoff := retry.WithMaxRetries(uint64(r.maxAttempts-1), retry.NewExponential(r.retryBase))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := r.store.Update(ctx, fn)
		if errors.Is(err, ErrSerialization) {
			metrics.TxConflicts.WithLabelValues(op).Inc()
			r.log.Warn("transaction conflict", "op", op, "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
	metrics.TxDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if errors.Is(err, ErrSerialization) {
		return &Error{Kind: KindTransactionConflict, Reason: ReasonRetryLater, Cause: err}
	}
	return err
}

func (r *runner) view(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return r.store.View(ctx, fn)
}

func (r *runner) notify(ctx context.Context, n Notification) {
	r.notifier.Notify(ctx, n)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
