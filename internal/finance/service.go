package finance

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamweelsys/fawtara/internal/billing"
)

// ReadRepositoryPort exposes the list reads aggregation is computed from.
type ReadRepositoryPort interface {
	ListTransactions(ctx context.Context) ([]billing.Transaction, error)
	ListExpenses(ctx context.Context) ([]billing.Expense, error)
	ListOrders(ctx context.Context) ([]billing.Order, error)
	ListGroupedOrders(ctx context.Context) ([]billing.GroupedOrder, error)
	ListCreditors(ctx context.Context) ([]billing.Creditor, error)
}

// Service coordinates aggregation with the cache layer. All reads are
// lock-free; correctness comes from recomputing from stored facts.
type Service struct {
	repo  ReadRepositoryPort
	cache *Cache
	now   func() time.Time
}

// NewService wires a repository with a Cache helper.
func NewService(repo ReadRepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithClock overrides the service clock, primarily for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now reports the service clock. Callers defaulting a day parameter must
// use this rather than time.Now so every read shares one clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// loadSources fans out the four list reads concurrently.
func (s *Service) loadSources(ctx context.Context) (sources, error) {
	var src sources
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		src.Transactions, err = s.repo.ListTransactions(ctx)
		return err
	})
	g.Go(func() (err error) {
		src.Expenses, err = s.repo.ListExpenses(ctx)
		return err
	})
	g.Go(func() (err error) {
		src.Orders, err = s.repo.ListOrders(ctx)
		return err
	})
	g.Go(func() (err error) {
		src.Grouped, err = s.repo.ListGroupedOrders(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return sources{}, err
	}
	return src, nil
}

// Window computes the [start, end) report, served from cache when warm.
func (s *Service) Window(ctx context.Context, start, end time.Time) (WindowReport, error) {
	key, err := s.cache.BuildKey(ctx, keyWindow(start, end)...)
	if err != nil {
		return WindowReport{}, err
	}
	var report WindowReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		src, err := s.loadSources(ctx)
		if err != nil {
			return nil, err
		}
		return ComputeWindow(src, start, end), nil
	})
	return report, err
}

// DailySnapshot computes the single-day report for the day containing t.
func (s *Service) DailySnapshot(ctx context.Context, t time.Time) (WindowReport, error) {
	day := t.UTC().Truncate(24 * time.Hour)
	key, err := s.cache.BuildKey(ctx, keyDaily(day)...)
	if err != nil {
		return WindowReport{}, err
	}
	var report WindowReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		src, err := s.loadSources(ctx)
		if err != nil {
			return nil, err
		}
		return ComputeWindow(src, day, day.Add(24*time.Hour)), nil
	})
	return report, err
}

// Series computes the trailing window of the given number of days, ending
// with (and including) today.
func (s *Service) Series(ctx context.Context, days int) (WindowReport, error) {
	if days < 1 {
		days = 1
	}
	end := s.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	return s.Window(ctx, start, end)
}

// DebtOverview sums the global outstanding position.
func (s *Service) DebtOverview(ctx context.Context) (DebtOverview, error) {
	key, err := s.cache.BuildKey(ctx, keyDebt()...)
	if err != nil {
		return DebtOverview{}, err
	}
	var overview DebtOverview
	err = s.cache.FetchJSON(ctx, key, &overview, func(ctx context.Context) (interface{}, error) {
		var (
			orders    []billing.Order
			grouped   []billing.GroupedOrder
			creditors []billing.Creditor
		)
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			orders, err = s.repo.ListOrders(ctx)
			return err
		})
		g.Go(func() (err error) {
			grouped, err = s.repo.ListGroupedOrders(ctx)
			return err
		})
		g.Go(func() (err error) {
			creditors, err = s.repo.ListCreditors(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return ComputeDebtOverview(orders, grouped, creditors), nil
	})
	return overview, err
}

// Invalidate bumps the cache version after billing writes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// WarmDaily recomputes today's and yesterday's snapshots so dashboard
// reads land on a warm cache. Used by the nightly worker task.
func (s *Service) WarmDaily(ctx context.Context) error {
	now := s.now()
	if _, err := s.DailySnapshot(ctx, now); err != nil {
		return err
	}
	if _, err := s.DailySnapshot(ctx, now.Add(-24*time.Hour)); err != nil {
		return err
	}
	_, err := s.DebtOverview(ctx)
	return err
}
