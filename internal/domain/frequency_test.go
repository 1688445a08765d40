package domain

import (
	"errors"
	"testing"
)

func TestFrequencyTableModes(t *testing.T) {
	var ft FrequencyTable
	ft.Main[0] = 4  // number 1
	ft.Bonus[0] = 1 // number 1
	ft.Main[44] = 2 // number 45
	ft.Bonus[9] = 3 // number 10

	if got := ft.Count(1, CountMain); got != 4 {
		t.Errorf("Count(1, main) = %d, want 4", got)
	}
	if got := ft.Count(1, CountBonus); got != 1 {
		t.Errorf("Count(1, bonus) = %d, want 1", got)
	}
	if got := ft.Count(1, CountCombined); got != 5 {
		t.Errorf("Count(1, combined) = %d, want 5", got)
	}
	if got := ft.Count(46, CountMain); got != 0 {
		t.Errorf("Count(46) = %d, want 0", got)
	}
	if got := ft.Max(CountBonus); got != 3 {
		t.Errorf("Max(bonus) = %d, want 3", got)
	}
	if got := ft.Total(CountCombined); got != 10 {
		t.Errorf("Total(combined) = %d, want 10", got)
	}

	ranges := ft.BucketCounts(CountMain)
	if ranges[0].Label != "1-10" || ranges[0].Count != 4 {
		t.Errorf("ranges[0] = %+v, want 1-10:4", ranges[0])
	}
	if ranges[4].Label != "41-45" || ranges[4].Count != 2 {
		t.Errorf("ranges[4] = %+v, want 41-45:2", ranges[4])
	}

	oe := ft.OddEven(CountCombined)
	if oe.Odd != 7 || oe.Even != 3 {
		t.Errorf("OddEven(combined) = %+v, want odd 7 even 3", oe)
	}
}

func TestParseCountMode(t *testing.T) {
	tests := map[string]CountMode{
		"":         CountMain,
		"main":     CountMain,
		"BONUS":    CountBonus,
		"combined": CountCombined,
		"total":    CountCombined,
	}
	for in, want := range tests {
		got, err := ParseCountMode(in)
		if err != nil {
			t.Fatalf("ParseCountMode(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseCountMode(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseCountMode("weekly"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseCountMode(weekly) err = %v, want ErrInvalidInput", err)
	}
}

func TestBallColor(t *testing.T) {
	cases := map[int]string{1: "#FFCC00", 10: "#FFCC00", 11: "#66B2FF", 30: "#FF6666", 40: "#999999", 45: "#66CC66", 0: ""}
	for n, want := range cases {
		if got := BallColor(n); got != want {
			t.Errorf("BallColor(%d) = %q, want %q", n, got, want)
		}
	}
}
