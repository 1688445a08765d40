package postgres

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// testDSNEnv names a disposable database; the store tests truncate its tables.
const testDSNEnv = "LOTTO_TEST_POSTGRES_DSN"

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()
	c, err := New(ctx, ClientConfig{DSN: dsn, MaxConns: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)

	if err := c.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	// Applying twice is a no-op.
	if err := c.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations again: %v", err)
	}
	if _, err := c.Pool().Exec(ctx, `TRUNCATE draws, recommendations, audit_log RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return c.Pool()
}

func testDraw(t *testing.T, round int, bonus int, numbers ...int) domain.Draw {
	t.Helper()
	d, err := domain.NewDraw(round, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*round), numbers, bonus)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDrawStore(t *testing.T) {
	ctx := context.Background()
	draws := NewDrawStore(openTestPool(t))

	if n, err := draws.LatestRound(ctx); err != nil || n != 0 {
		t.Fatalf("LatestRound on empty = %d, %v", n, err)
	}
	batch := []domain.Draw{
		testDraw(t, 1, 45, 1, 2, 3, 4, 5, 6),
		testDraw(t, 2, 44, 7, 8, 9, 10, 11, 12),
		testDraw(t, 3, 43, 13, 14, 15, 16, 17, 18),
	}
	if err := draws.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}
	// Re-collecting a round replaces it.
	if err := draws.UpsertBatch(ctx, []domain.Draw{testDraw(t, 3, 1, 20, 21, 22, 23, 24, 25)}); err != nil {
		t.Fatal(err)
	}

	if n, err := draws.Count(ctx); err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	if n, err := draws.LatestRound(ctx); err != nil || n != 3 {
		t.Fatalf("LatestRound = %d, %v", n, err)
	}
	got, err := draws.GetByRound(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Numbers, []int{20, 21, 22, 23, 24, 25}) || got.Bonus != 1 {
		t.Fatalf("round 3 = %+v", got)
	}
	if !got.Date.Equal(batch[2].Date) {
		t.Fatalf("date = %v, want %v", got.Date, batch[2].Date)
	}
	if _, err := draws.GetByRound(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing round err = %v", err)
	}

	recent, err := draws.ListRecent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Round != 3 || recent[1].Round != 2 {
		t.Fatalf("ListRecent = %+v", recent)
	}
	all, err := draws.ListRecent(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListRecent(0) = %d draws, %v", len(all), err)
	}
}

func TestDrawStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	draws := NewDrawStore(openTestPool(t))

	good := testDraw(t, 1, 45, 1, 2, 3, 4, 5, 6)
	bad := domain.Draw{Round: 2, Numbers: []int{1, 2, 3}, Bonus: 4}
	if err := draws.UpsertBatch(ctx, []domain.Draw{good, bad}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if n, err := draws.Count(ctx); err != nil || n != 0 {
		t.Fatalf("Count after rejected batch = %d, %v", n, err)
	}
}

func TestRecommendationStore(t *testing.T) {
	ctx := context.Background()
	recs := NewRecommendationStore(openTestPool(t))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		rec := domain.Recommendation{
			ID:        id,
			Strategy:  "hot",
			Period:    100,
			Mode:      "main",
			Seed:      ^uint64(0) - uint64(i),
			Sets:      []domain.RecommendedSet{{1, 2, 3, 4, 5, 6}, {7, 8, 9, 10, 11, 12}},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := recs.Create(ctx, rec); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if err := recs.Create(ctx, domain.Recommendation{ID: "a", Sets: []domain.RecommendedSet{}, CreatedAt: base}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate err = %v", err)
	}

	got, err := recs.GetByID(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	// Seeds above the BIGINT range survive the signed column.
	if got.Seed != ^uint64(0) || !got.CreatedAt.Equal(base) {
		t.Fatalf("got %+v", got)
	}
	if len(got.Sets) != 2 || !slices.Equal(got.Sets[1], domain.RecommendedSet{7, 8, 9, 10, 11, 12}) {
		t.Fatalf("sets = %v", got.Sets)
	}
	if got.Strategy != "hot" || got.Period != 100 || got.Mode != "main" {
		t.Fatalf("got %+v", got)
	}
	if _, err := recs.GetByID(ctx, "zzz"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}

	recent, err := recs.ListRecent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("ListRecent = %+v", recent)
	}
	before, err := recs.ListBefore(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 2 || before[0].ID != "a" || before[1].ID != "b" {
		t.Fatalf("ListBefore = %+v", before)
	}
}

func TestAuditStore(t *testing.T) {
	ctx := context.Background()
	audit := NewAuditStore(openTestPool(t))

	for i := 0; i < 3; i++ {
		if err := audit.Log(ctx, "draws_collected", map[string]any{"count": i}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := audit.List(ctx, domain.ListOpts{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Detail["count"] != float64(2) || entries[1].Detail["count"] != float64(1) {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Event != "draws_collected" || entries[0].ID <= entries[1].ID {
		t.Fatalf("entries = %+v", entries)
	}

	paged, err := audit.List(ctx, domain.ListOpts{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(paged) != 1 || paged[0].Detail["count"] != float64(0) {
		t.Fatalf("second page = %+v", paged)
	}

	past := time.Now().Add(-time.Hour)
	if entries, err := audit.List(ctx, domain.ListOpts{Since: &past}); err != nil || len(entries) != 3 {
		t.Fatalf("since filter = %d entries, %v", len(entries), err)
	}
	if entries, err := audit.List(ctx, domain.ListOpts{Until: &past}); err != nil || len(entries) != 0 {
		t.Fatalf("until filter = %d entries, %v", len(entries), err)
	}
}
