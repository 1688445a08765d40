package lotto

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 20, 45, 0, 0, time.UTC)
}

func TestGenerateDrawInvariants(t *testing.T) {
	g := NewGenerator(NewSource(42), WithClock(fixedClock))
	draws, err := g.Generate(200, DefaultBias())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(draws) != 200 {
		t.Fatalf("got %d draws, want 200", len(draws))
	}
	for _, d := range draws {
		if err := d.Validate(); err != nil {
			t.Fatalf("draw %d invalid: %v", d.Round, err)
		}
		if !slices.IsSorted(d.Numbers) {
			t.Fatalf("draw %d numbers not sorted: %v", d.Round, d.Numbers)
		}
		if slices.Contains(d.Numbers, d.Bonus) {
			t.Fatalf("draw %d bonus %d repeats a main number", d.Round, d.Bonus)
		}
	}
}

func TestGenerateRoundsAndDates(t *testing.T) {
	g := NewGenerator(NewSource(7), WithClock(fixedClock), WithBaseRound(500))
	draws, err := g.Generate(3, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantRounds := []int{503, 502, 501}
	wantDates := []string{"2024-03-09", "2024-03-02", "2024-02-24"}
	for i, d := range draws {
		if d.Round != wantRounds[i] {
			t.Errorf("draw %d round = %d, want %d", i, d.Round, wantRounds[i])
		}
		if d.DateString() != wantDates[i] {
			t.Errorf("draw %d date = %s, want %s", i, d.DateString(), wantDates[i])
		}
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	a, err := NewGenerator(NewSource(99), WithClock(fixedClock)).Generate(20, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGenerator(NewSource(99), WithClock(fixedClock)).Generate(20, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if !slices.Equal(a[i].Numbers, b[i].Numbers) || a[i].Bonus != b[i].Bonus {
			t.Fatalf("draw %d differs between runs with the same seed", i)
		}
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	g := NewGenerator(NewSource(1))

	negative := DefaultBias()
	negative[3] = -1

	tests := []struct {
		name string
		n    int
		bias []float64
	}{
		{"zero draws", 0, nil},
		{"negative draws", -5, nil},
		{"short bias", 10, []float64{1, 2, 3}},
		{"negative weight", 10, negative},
		{"zero bias", 10, make([]float64, domain.NumberCount)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(tt.n, tt.bias)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestDefaultBias(t *testing.T) {
	b := DefaultBias()
	if len(b) != domain.NumberCount {
		t.Fatalf("len = %d", len(b))
	}
	if b[0] != 1.1 || b[9] != 1.1 || b[10] != 1.0 || b[40] != 0.9 || b[44] != 0.9 {
		t.Fatalf("unexpected bias values %v", b)
	}
}
