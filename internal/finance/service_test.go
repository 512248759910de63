package finance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tamweelsys/fawtara/internal/billing"
)

type memoryReadRepo struct {
	src       sources
	creditors []billing.Creditor
	loads     int
}

func (r *memoryReadRepo) ListTransactions(ctx context.Context) ([]billing.Transaction, error) {
	r.loads++
	return r.src.Transactions, nil
}

func (r *memoryReadRepo) ListExpenses(ctx context.Context) ([]billing.Expense, error) {
	return r.src.Expenses, nil
}

func (r *memoryReadRepo) ListOrders(ctx context.Context) ([]billing.Order, error) {
	return r.src.Orders, nil
}

func (r *memoryReadRepo) ListGroupedOrders(ctx context.Context) ([]billing.GroupedOrder, error) {
	return r.src.Grouped, nil
}

func (r *memoryReadRepo) ListCreditors(ctx context.Context) ([]billing.Creditor, error) {
	return r.creditors, nil
}

func newCachedService(t *testing.T, repo *memoryReadRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute)).WithClock(func() time.Time {
		return day(3, 15)
	})
}

func TestWindowServedFromCache(t *testing.T) {
	repo := &memoryReadRepo{src: fixtureSources()}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	first, err := svc.Window(ctx, day(1, 0), day(3, 0))
	require.NoError(t, err)
	require.Equal(t, 300.0, first.Revenue)
	require.Equal(t, 1, repo.loads)

	second, err := svc.Window(ctx, day(1, 0), day(3, 0))
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.loads)
}

func TestWindowCachesSubDayBoundsSeparately(t *testing.T) {
	repo := &memoryReadRepo{src: fixtureSources()}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	// Two windows sharing calendar days but differing by hours must not
	// share a cache entry; t2 lands at 09:00 on day 2.
	morning, err := svc.Window(ctx, day(1, 0), day(2, 0))
	require.NoError(t, err)
	require.Equal(t, 200.0, morning.Revenue)

	extended, err := svc.Window(ctx, day(1, 0), day(2, 12))
	require.NoError(t, err)
	require.Equal(t, 300.0, extended.Revenue)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	repo := &memoryReadRepo{src: fixtureSources()}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.Window(ctx, day(1, 0), day(3, 0))
	require.NoError(t, err)
	require.Equal(t, 1, repo.loads)

	repo.src.Transactions = append(repo.src.Transactions, billing.Transaction{
		ID: "t-new", Customer: billing.RegisteredCustomer("u3"),
		Type: billing.TxPayment, Amount: 77, Date: day(2, 13),
	})
	require.NoError(t, svc.Invalidate(ctx))

	report, err := svc.Window(ctx, day(1, 0), day(3, 0))
	require.NoError(t, err)
	require.Equal(t, 377.0, report.Revenue)
	require.Equal(t, 2, repo.loads)
}

func TestDailySnapshotSingleDay(t *testing.T) {
	repo := &memoryReadRepo{src: fixtureSources()}
	svc := newCachedService(t, repo)

	report, err := svc.DailySnapshot(context.Background(), day(1, 17))
	require.NoError(t, err)
	require.Equal(t, 200.0, report.Revenue)
	require.Equal(t, 30.0, report.Expenses)
	require.Equal(t, 450.0, report.GrossProfit)
	require.Len(t, report.PerDay, 1)
}

func TestSeriesUsesInjectedClock(t *testing.T) {
	repo := &memoryReadRepo{src: fixtureSources()}
	svc := newCachedService(t, repo)

	report, err := svc.Series(context.Background(), 3)
	require.NoError(t, err)
	// Clock pinned to 2026-03-03: trailing 3 days are 03-01 through 03-03.
	require.Len(t, report.PerDay, 3)
	require.Equal(t, "2026-03-01", report.PerDay[0].Day)
	require.Equal(t, "2026-03-03", report.PerDay[2].Day)
	require.Equal(t, 300.0, report.Revenue)
}

func TestDebtOverviewFansOut(t *testing.T) {
	repo := &memoryReadRepo{
		src: fixtureSources(),
		creditors: []billing.Creditor{
			{ID: "c1", Name: "Freight Co", TotalDebt: 50},
		},
	}
	svc := newCachedService(t, repo)

	overview, err := svc.DebtOverview(context.Background())
	require.NoError(t, err)
	require.Equal(t, 120.0, overview.GroupedDebtLYD)
	require.Equal(t, 50.0, overview.CreditorDebtLYD)
}

func TestWarmDailyPopulatesCache(t *testing.T) {
	repo := &memoryReadRepo{src: fixtureSources()}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	require.NoError(t, svc.WarmDaily(ctx))
	loadsAfterWarm := repo.loads

	_, err := svc.DailySnapshot(ctx, day(3, 9))
	require.NoError(t, err)
	require.Equal(t, loadsAfterWarm, repo.loads)
}
