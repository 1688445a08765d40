package lotto

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

func uniformWeights() []float64 {
	w := make([]float64, domain.NumberCount)
	for i := range w {
		w[i] = 1
	}
	return w
}

func TestWeightedSampleDistinct(t *testing.T) {
	src := NewSource(3)
	for i := 0; i < 500; i++ {
		picks, err := WeightedSample(src, uniformWeights(), domain.PickSize)
		if err != nil {
			t.Fatal(err)
		}
		if err := domain.ValidatePick(picks); err != nil {
			t.Fatalf("invalid pick %v: %v", picks, err)
		}
	}
}

func TestWeightedSampleZeroWeightsFallBackToUniform(t *testing.T) {
	w := make([]float64, domain.NumberCount)
	w[4] = 1 // only number 5 carries weight

	src := NewSource(11)
	for i := 0; i < 100; i++ {
		picks, err := WeightedSample(src, w, domain.PickSize)
		if err != nil {
			t.Fatal(err)
		}
		if picks[0] != 5 {
			t.Fatalf("first pick = %d, want the only weighted number 5", picks[0])
		}
		if err := domain.ValidatePick(picks); err != nil {
			t.Fatalf("invalid pick %v: %v", picks, err)
		}
	}

	picks, err := WeightedSample(src, make([]float64, domain.NumberCount), domain.PickSize)
	if err != nil {
		t.Fatalf("all-zero weights: %v", err)
	}
	if err := domain.ValidatePick(picks); err != nil {
		t.Fatalf("invalid pick %v: %v", picks, err)
	}
}

func TestWeightedSampleFollowsWeights(t *testing.T) {
	w := make([]float64, domain.NumberCount)
	for i := range w {
		w[i] = 1
	}
	w[0] = 100

	src := NewSource(5)
	hits := 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		picks, err := WeightedSample(src, w, 1)
		if err != nil {
			t.Fatal(err)
		}
		if picks[0] == 1 {
			hits++
		}
	}
	// Expected share is 100/144.
	if got := float64(hits) / trials; got < 0.6 || got > 0.8 {
		t.Fatalf("number 1 picked %.2f of the time, want about 0.69", got)
	}
}

func TestWeightedSampleRejectsBadInput(t *testing.T) {
	src := NewSource(1)
	nan := uniformWeights()
	nan[0] = math.NaN()
	inf := uniformWeights()
	inf[1] = math.Inf(1)

	tests := []struct {
		name    string
		weights []float64
		k       int
	}{
		{"short", []float64{1}, 6},
		{"nan", nan, 6},
		{"inf", inf, 6},
		{"k zero", uniformWeights(), 0},
		{"k too large", uniformWeights(), 46},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := WeightedSample(src, tt.weights, tt.k); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	p, err := Normalize([]float64{1, 3})
	if err != nil {
		t.Fatal(err)
	}
	if p[0] != 0.25 || p[1] != 0.75 {
		t.Fatalf("got %v", p)
	}
	if _, err := Normalize([]float64{0, 0}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("zero sum err = %v", err)
	}
}

func TestSampleFrom(t *testing.T) {
	pool := []int{2, 4, 6, 8, 10}
	got, err := SampleFrom(NewSource(8), pool, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
	seen := map[int]bool{}
	for _, n := range got {
		if !slices.Contains(pool, n) || seen[n] {
			t.Fatalf("bad sample %v", got)
		}
		seen[n] = true
	}
	if !slices.Equal(pool, []int{2, 4, 6, 8, 10}) {
		t.Fatalf("pool mutated: %v", pool)
	}
	if _, err := SampleFrom(NewSource(8), pool, 6); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("oversized sample err = %v", err)
	}
}

func TestNewSeed(t *testing.T) {
	for range 200 {
		s, err := NewSeed()
		if err != nil {
			t.Fatal(err)
		}
		if s == 0 || s > MaxSeed {
			t.Fatalf("seed %d outside [1, %d]", s, uint64(MaxSeed))
		}
		// Exact through float64, the only number type a JavaScript client has.
		if uint64(float64(s)) != s {
			t.Fatalf("seed %d does not survive a float64 round trip", s)
		}
	}
}
