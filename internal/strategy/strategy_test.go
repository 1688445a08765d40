package strategy

import (
	"errors"
	"slices"
	"testing"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/lotto"
)

func sampleTable(t *testing.T) domain.FrequencyTable {
	t.Helper()
	draws, err := lotto.NewGenerator(lotto.NewSource(17)).Generate(100, lotto.DefaultBias())
	if err != nil {
		t.Fatal(err)
	}
	a, err := lotto.Analyze(draws)
	if err != nil {
		t.Fatal(err)
	}
	return a.Table
}

func TestRecommendEveryStrategy(t *testing.T) {
	s := NewSampler(DefaultRegistry())
	tables := map[string]domain.FrequencyTable{
		"history": sampleTable(t),
		"empty":   {},
	}
	for tname, table := range tables {
		for _, k := range Kinds() {
			for _, mode := range []domain.CountMode{domain.CountMain, domain.CountBonus, domain.CountCombined} {
				sets, err := s.Recommend(lotto.NewSource(1), table, k.String(), 20, mode)
				if err != nil {
					t.Fatalf("%s/%s/%s: %v", tname, k, mode, err)
				}
				if len(sets) != 20 {
					t.Fatalf("%s/%s: got %d sets", tname, k, len(sets))
				}
				for _, set := range sets {
					if err := domain.ValidatePick(set); err != nil {
						t.Fatalf("%s/%s: invalid set %v: %v", tname, k, set, err)
					}
					if !slices.IsSorted(set) {
						t.Fatalf("%s/%s: set not sorted %v", tname, k, set)
					}
				}
			}
		}
	}
}

func TestRecommendErrors(t *testing.T) {
	s := NewSampler(DefaultRegistry())
	table := sampleTable(t)
	if _, err := s.Recommend(lotto.NewSource(1), table, "hot", 0, domain.CountMain); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("count 0 err = %v", err)
	}
	if _, err := s.Recommend(lotto.NewSource(1), table, "lucky", 1, domain.CountMain); !errors.Is(err, domain.ErrInvalidStrategy) {
		t.Errorf("unknown strategy err = %v", err)
	}
	empty := NewSampler(NewRegistry())
	if _, err := empty.Recommend(lotto.NewSource(1), table, "hot", 1, domain.CountMain); !errors.Is(err, domain.ErrInvalidStrategy) {
		t.Errorf("unregistered err = %v", err)
	}
}

func TestColdFavoursRareNumbers(t *testing.T) {
	var table domain.FrequencyTable
	for i := range table.Main {
		table.Main[i] = 20
	}
	rare := []int{7, 19, 33}
	for _, n := range rare {
		table.Main[n-1] = 0
	}

	s := NewSampler(DefaultRegistry())
	sets, err := s.Recommend(lotto.NewSource(4), table, "cold", 2000, domain.CountMain)
	if err != nil {
		t.Fatal(err)
	}
	var hits [domain.NumberCount + 1]int
	for _, set := range sets {
		for _, n := range set {
			hits[n]++
		}
	}
	for _, n := range rare {
		for m := domain.MinNumber; m <= domain.MaxNumber; m++ {
			if slices.Contains(rare, m) {
				continue
			}
			if hits[n] <= hits[m] {
				t.Fatalf("rare number %d picked %d times, common %d picked %d", n, hits[n], m, hits[m])
			}
		}
	}
}

func TestWeightFormulas(t *testing.T) {
	counts := []int{0, 2, 4}
	tests := []struct {
		name string
		fn   weightFunc
		want []float64
	}{
		{"hot", hotWeight, []float64{0, 4, 16}},
		{"balanced", balancedWeight, []float64{0.5, 1.5, 2.5}},
		{"cold", coldWeight, []float64{25, 9, 1}},
		{"uniform", uniformWeight, []float64{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weightsOf(counts, tt.fn); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMixedPools(t *testing.T) {
	counts := make([]int, domain.NumberCount)
	hot, cold := Pools(counts)
	if !slices.Equal(hot, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}) {
		t.Fatalf("hot pool = %v", hot)
	}
	if cold[0] != 16 || len(cold) != 15 {
		t.Fatalf("cold pool = %v", cold)
	}

	for i := range counts {
		counts[i] = i + 1 // 45 is most frequent
	}
	hot, cold = Pools(counts)
	if hot[0] != 45 || cold[0] != 1 {
		t.Fatalf("hot=%v cold=%v", hot, cold)
	}

	picks, err := NewMixed().Pick(lotto.NewSource(2), counts)
	if err != nil {
		t.Fatal(err)
	}
	high := 0
	for _, n := range picks {
		if slices.Contains(hot, n) {
			high++
		}
	}
	if high != 3 {
		t.Fatalf("mixed picked %d hot numbers from %v", high, picks)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"hot":          Hot,
		"HOT":          Hot,
		"hot_numbers":  Hot,
		"balance":      Balanced,
		"balanced":     Balanced,
		"cold_numbers": Cold,
		"mix_hot_cold": Mixed,
		" mixed ":      Mixed,
		"random":       Uniform,
		"uniform":      Uniform,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("lucky"); !errors.Is(err, domain.ErrInvalidStrategy) {
		t.Errorf("unknown err = %v", err)
	}
}

func TestRegistryList(t *testing.T) {
	if got := DefaultRegistry().List(); !slices.Equal(got, Kinds()) {
		t.Fatalf("List = %v", got)
	}
}
