package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewDraw(t *testing.T) {
	date := time.Date(2025, 3, 8, 20, 45, 0, 0, time.UTC)

	d, err := NewDraw(1163, date, []int{45, 2, 17, 9, 30, 33}, 11)
	if err != nil {
		t.Fatalf("NewDraw: %v", err)
	}
	want := []int{2, 9, 17, 30, 33, 45}
	for i, n := range want {
		if d.Numbers[i] != n {
			t.Fatalf("Numbers = %v, want %v", d.Numbers, want)
		}
	}
	if d.DateString() != "2025-03-08" {
		t.Errorf("DateString() = %q, want %q", d.DateString(), "2025-03-08")
	}
	if !d.Contains(11) || !d.Contains(45) || d.Contains(12) {
		t.Errorf("Contains mismatch for %+v", d)
	}
}

func TestDrawValidate(t *testing.T) {
	tests := []struct {
		name    string
		numbers []int
		bonus   int
		round   int
	}{
		{name: "five numbers", numbers: []int{1, 2, 3, 4, 5}, bonus: 6, round: 1},
		{name: "seven numbers", numbers: []int{1, 2, 3, 4, 5, 6, 7}, bonus: 8, round: 1},
		{name: "duplicate", numbers: []int{1, 1, 3, 4, 5, 6}, bonus: 8, round: 1},
		{name: "zero", numbers: []int{0, 2, 3, 4, 5, 6}, bonus: 8, round: 1},
		{name: "forty six", numbers: []int{1, 2, 3, 4, 5, 46}, bonus: 8, round: 1},
		{name: "bonus repeats", numbers: []int{1, 2, 3, 4, 5, 6}, bonus: 6, round: 1},
		{name: "bonus out of range", numbers: []int{1, 2, 3, 4, 5, 6}, bonus: 50, round: 1},
		{name: "round zero", numbers: []int{1, 2, 3, 4, 5, 6}, bonus: 7, round: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDraw(tt.round, time.Now(), tt.numbers, tt.bonus)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestNewDrawCopiesNumbers(t *testing.T) {
	in := []int{6, 5, 4, 3, 2, 1}
	d, err := NewDraw(1, time.Now(), in, 7)
	if err != nil {
		t.Fatalf("NewDraw: %v", err)
	}
	if in[0] != 6 {
		t.Errorf("input slice was reordered: %v", in)
	}
	d.Numbers[0] = 40
	if in[5] != 1 {
		t.Errorf("draw shares storage with input")
	}
}
