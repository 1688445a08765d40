package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/notify"
	"github.com/alanyoungcy/lottostats/internal/store/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) domain.DrawStore {
	t.Helper()
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st.Draws()
}

// fakeFetcher serves rounds 1..drawn, failing the rounds listed in broken.
type fakeFetcher struct {
	drawn  int
	broken map[int]bool
	calls  []int
}

func (f *fakeFetcher) Draw(_ context.Context, round int) (domain.Draw, error) {
	f.calls = append(f.calls, round)
	if round > f.drawn {
		return domain.Draw{}, domain.ErrNotFound
	}
	if f.broken[round] {
		return domain.Draw{}, fmt.Errorf("round %d: %w", round, domain.ErrUnavailable)
	}
	base := (round % 39) + 1
	return domain.NewDraw(round, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*round),
		[]int{base, base + 1, base + 2, base + 3, base + 4, base + 5}, base+6)
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) InvalidateAll(context.Context) error { c.n++; return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notify.Event, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type recordingBus struct {
	mu       sync.Mutex
	channels []string
}

func (b *recordingBus) Publish(_ context.Context, ch string, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, ch)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

type heldLock struct{}

func (heldLock) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, domain.ErrLockHeld
}

func TestCollectorRun(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	fetcher := &fakeFetcher{drawn: 8, broken: map[int]bool{3: true}}
	inv := &countingInvalidator{}
	n := &recordingNotifier{}
	bus := &recordingBus{}

	c := NewCollector(fetcher, store, CollectorConfig{StartRound: 1, MaxRounds: 5}, discardLogger(),
		WithInvalidator(inv), WithNotifier(n), WithBus(bus),
		WithRoundEstimator(func(time.Time) int { return 10 }),
	)

	got, err := c.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Round 3 fails, so only the contiguous rounds before it are stored.
	if got != 2 {
		t.Fatalf("collected = %d, want 2", got)
	}
	if latest, _ := store.LatestRound(ctx); latest != 2 {
		t.Fatalf("latest = %d, want 2", latest)
	}
	if last := fetcher.calls[len(fetcher.calls)-1]; last != 3 {
		t.Fatalf("kept fetching after a failed round: %v", fetcher.calls)
	}
	if inv.n != 1 || len(n.events) != 1 || n.events[0] != notify.EventDrawsCollected {
		t.Fatalf("side effects: invalidations=%d events=%v", inv.n, n.events)
	}
	if len(bus.channels) != 1 || bus.channels[0] != domain.ChannelDraws {
		t.Fatalf("published = %v", bus.channels)
	}

	// Once the round recovers, the next run starts from it.
	delete(fetcher.broken, 3)
	fetcher.calls = nil
	got, err = c.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 || fetcher.calls[0] != 3 {
		t.Fatalf("second run collected %d starting at %v, want 5 from round 3", got, fetcher.calls)
	}
	if _, err := store.GetByRound(ctx, 3); err != nil {
		t.Fatalf("round 3 missing after recovery: %v", err)
	}
	if count, _ := store.Count(ctx); count != 7 {
		t.Fatalf("stored %d draws, want 7", count)
	}

	// Third run resumes after round 7 and stops at the first undrawn round.
	got, err = c.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("third run collected = %d, want 1", got)
	}
	if last := fetcher.calls[len(fetcher.calls)-1]; last != 9 {
		t.Fatalf("last requested round = %d, want 9", last)
	}
}

func TestCollectorFirstRoundFails(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	fetcher := &fakeFetcher{drawn: 5, broken: map[int]bool{1: true}}
	inv := &countingInvalidator{}
	c := NewCollector(fetcher, store, CollectorConfig{StartRound: 1, MaxRounds: 5}, discardLogger(),
		WithInvalidator(inv),
		WithRoundEstimator(func(time.Time) int { return 5 }),
	)

	got, err := c.Run(ctx)
	if err != nil || got != 0 {
		t.Fatalf("got %d, %v", got, err)
	}
	if len(fetcher.calls) != 1 || inv.n != 0 {
		t.Fatalf("calls=%v invalidations=%d", fetcher.calls, inv.n)
	}
	if count, _ := store.Count(ctx); count != 0 {
		t.Fatalf("stored %d draws", count)
	}
}

func TestCollectorUpToDate(t *testing.T) {
	store := openStore(t)
	fetcher := &fakeFetcher{drawn: 10}
	c := NewCollector(fetcher, store, CollectorConfig{StartRound: 5}, discardLogger(),
		WithRoundEstimator(func(time.Time) int { return 4 }),
	)
	got, err := c.Run(context.Background())
	if err != nil || got != 0 {
		t.Fatalf("got %d, %v", got, err)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("unexpected fetches %v", fetcher.calls)
	}
}

func TestCollectorLockHeld(t *testing.T) {
	fetcher := &fakeFetcher{drawn: 10}
	c := NewCollector(fetcher, openStore(t), CollectorConfig{}, discardLogger(),
		WithLock(heldLock{}),
		WithRoundEstimator(func(time.Time) int { return 10 }),
	)
	got, err := c.Run(context.Background())
	if err != nil || got != 0 {
		t.Fatalf("got %d, %v", got, err)
	}
	if len(fetcher.calls) != 0 {
		t.Fatal("fetched while lock was held elsewhere")
	}
}
