// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dashgit/dashgit/internal/domain"
	"github.com/dashgit/dashgit/internal/gateway"
)

// ErrFetchInFlight is returned when a fetch cycle is triggered while a
// previous one is still running.
var ErrFetchInFlight = errors.New("a fetch cycle is already in flight")

// Result is the outcome of one fetch cycle: everything that could be
// fetched, sorted newest first, plus one platform-tagged message per
// failed platform.
type Result struct {
	PullRequests []domain.PullRequest `json:"pull_requests"`
	Errors       []string             `json:"errors"`
}

// Aggregator runs every configured platform gateway concurrently and
// merges their settled results into one time-sorted collection.
type Aggregator struct {
	fetchers []gateway.Fetcher
	timeout  time.Duration
	logger   *zap.Logger
	inFlight atomic.Bool
}

// NewAggregator creates a new Aggregator instance. Only configured
// platforms should be passed in; an unconfigured platform is skipped by
// never constructing its gateway.
func NewAggregator(fetchers []gateway.Fetcher, timeout time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		fetchers: fetchers,
		timeout:  timeout,
		logger:   logger,
	}
}

// Aggregate performs one fetch cycle. Each gateway call is independent;
// a failure on one platform is recorded in Result.Errors and never
// discards the other platform's results.
func (a *Aggregator) Aggregate(ctx context.Context) (*Result, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return nil, ErrFetchInFlight
	}
	defer a.inFlight.Store(false)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	type settled struct {
		source domain.Source
		prs    []domain.PullRequest
		err    error
	}
	settledResults := make([]settled, len(a.fetchers))

	// Settled join: the goroutines never return an error, so one
	// platform's outage cannot cancel or blank the other platform.
	var eg errgroup.Group
	for i, fetcher := range a.fetchers {
		i, fetcher := i, fetcher
		eg.Go(func() error {
			prs, err := fetcher.FetchPullRequests(ctx)
			settledResults[i] = settled{source: fetcher.Source(), prs: prs, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	result := &Result{PullRequests: []domain.PullRequest{}}
	for _, r := range settledResults {
		if r.err != nil {
			a.logger.Warn("platform fetch failed",
				zap.String("platform", string(r.source)),
				zap.Error(r.err),
			)
			result.Errors = append(result.Errors, r.err.Error())
			continue
		}
		result.PullRequests = append(result.PullRequests, r.prs...)
	}

	sort.SliceStable(result.PullRequests, func(i, j int) bool {
		return result.PullRequests[i].UpdatedAt.After(result.PullRequests[j].UpdatedAt)
	})

	a.logger.Debug("aggregation complete",
		zap.Int("pull_requests", len(result.PullRequests)),
		zap.Int("failed_platforms", len(result.Errors)),
	)
	return result, nil
}
