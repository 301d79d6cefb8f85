// Package dashboard aggregates repository activity into the contributor, PR velocity and
// code churn series shown on the metrics dashboard.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"revisehub/internal/model"
	"revisehub/internal/reporef"
)

const (
	DefaultContributorLimit  = 100
	DefaultCommitLimit       = 250
	DefaultPullLimit         = 100
	DefaultDetailConcurrency = 8
)

// Source is the subset of the source-control API the aggregator reads from.
type Source interface {
	ListContributors(ctx context.Context, ref model.RepositoryRef, limit int) ([]model.Contributor, error)
	ListCommits(ctx context.Context, ref model.RepositoryRef, limit int) ([]model.CommitSummary, error)
	GetCommit(ctx context.Context, ref model.RepositoryRef, sha string) (*model.CommitRecord, error)
	ListPullRequests(ctx context.Context, ref model.RepositoryRef, state string, limit int) ([]model.PullRequest, error)
}

// Aggregator builds DashboardData for a repository.
type Aggregator struct {
	source            Source
	logger            *slog.Logger
	now               func() time.Time
	contributorLimit  int
	commitLimit       int
	pullLimit         int
	detailConcurrency int
}

type Option func(*Aggregator)

// WithClock replaces the wall clock that anchors the week buckets.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLimits sets the page sizes of the three top-level reads.
func WithLimits(contributors, commits, pulls int) Option {
	return func(a *Aggregator) {
		a.contributorLimit = contributors
		a.commitLimit = commits
		a.pullLimit = pulls
	}
}

// WithDetailConcurrency bounds the number of in-flight per-commit reads.
func WithDetailConcurrency(n int) Option {
	return func(a *Aggregator) { a.detailConcurrency = n }
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(source Source, logger *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:            source,
		logger:            logger,
		now:               time.Now,
		contributorLimit:  DefaultContributorLimit,
		commitLimit:       DefaultCommitLimit,
		pullLimit:         DefaultPullLimit,
		detailConcurrency: DefaultDetailConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.detailConcurrency < 1 {
		a.detailConcurrency = 1
	}
	return a
}

// GetDashboardData parses repositoryURL and aggregates its activity.
// An unparsable URL fails before any read is issued.
func (a *Aggregator) GetDashboardData(ctx context.Context, repositoryURL string) (*model.DashboardData, error) {
	ref, err := reporef.Parse(repositoryURL)
	if err != nil {
		return nil, err
	}
	return a.Aggregate(ctx, ref)
}

// Aggregate fetches contributors, recent commits and pull requests for ref and folds them
// into DashboardData. Failure of any listing aborts the call; failed per-commit reads
// only drop that commit from the result.
func (a *Aggregator) Aggregate(ctx context.Context, ref model.RepositoryRef) (*model.DashboardData, error) {
	logger := a.logger.With("owner", ref.Owner, "repo", ref.Name)
	logger.Info("Starting dashboard aggregation")

	// Buckets are anchored before any read is issued.
	buckets := WeekBuckets(a.now())

	var (
		contributors []model.Contributor
		commits      []model.CommitSummary
		pulls        []model.PullRequest
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		contributors, err = a.source.ListContributors(egCtx, ref, a.contributorLimit)
		return err
	})
	eg.Go(func() error {
		var err error
		commits, err = a.source.ListCommits(egCtx, ref, a.commitLimit)
		return err
	})
	eg.Go(func() error {
		var err error
		pulls, err = a.source.ListPullRequests(egCtx, ref, "all", a.pullLimit)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("Listings fetched", "contributors", len(contributors), "commits", len(commits), "pulls", len(pulls))

	records, err := a.fetchCommitRecords(ctx, logger, ref, uniqueSHAs(commits))
	if err != nil {
		return nil, err
	}

	data := &model.DashboardData{
		Contributors: foldContributors(contributors, records),
		PRVelocity:   prVelocity(buckets, pulls),
		CodeChurn:    codeChurn(buckets, records),
	}
	logger.Info("Dashboard aggregation complete", "contributors", len(data.Contributors), "commit_records", len(records))
	return data, nil
}

// fetchCommitRecords reads the stats of every sha with bounded concurrency. Each read
// owns one result slot; failed reads leave their slot empty and are skipped.
func (a *Aggregator) fetchCommitRecords(ctx context.Context, logger *slog.Logger, ref model.RepositoryRef, shas []string) ([]model.CommitRecord, error) {
	slots := make([]*model.CommitRecord, len(shas))

	var eg errgroup.Group
	eg.SetLimit(a.detailConcurrency)
	for i, sha := range shas {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			record, err := a.source.GetCommit(ctx, ref, sha)
			if err != nil {
				logger.Debug("Skipping commit with unavailable stats", "sha", sha, "error", err)
				return nil
			}
			slots[i] = record
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]model.CommitRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	if skipped := len(shas) - len(records); skipped > 0 {
		logger.Warn("Some commits were excluded from aggregation", "skipped", skipped, "total", len(shas))
	}
	return records, nil
}

// uniqueSHAs returns the commit shas in listing order without duplicates.
func uniqueSHAs(commits []model.CommitSummary) []string {
	seen := make(map[string]struct{}, len(commits))
	shas := make([]string, 0, len(commits))
	for _, c := range commits {
		if c.SHA == "" {
			continue
		}
		if _, ok := seen[c.SHA]; ok {
			continue
		}
		seen[c.SHA] = struct{}{}
		shas = append(shas, c.SHA)
	}
	return shas
}
