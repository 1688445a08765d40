package domain

import (
	"fmt"
	"slices"
	"time"
)

const (
	// MinNumber and MaxNumber bound every ball in a 6/45 game.
	MinNumber = 1
	MaxNumber = 45
	// PickSize is the count of main numbers in a draw or a ticket.
	PickSize = 6
	// NumberCount is the size of the number space.
	NumberCount = MaxNumber - MinNumber + 1
)

// DateLayout is the calendar-date format used for draw dates.
const DateLayout = "2006-01-02"

// Draw is one historical lottery result. Numbers are sorted ascending.
type Draw struct {
	Round   int       `json:"round"`
	Date    time.Time `json:"date"`
	Numbers []int     `json:"numbers"`
	Bonus   int       `json:"bonus"`
}

// NewDraw validates the given values and returns a Draw with a sorted copy of
// numbers and the date truncated to a UTC calendar day.
func NewDraw(round int, date time.Time, numbers []int, bonus int) (Draw, error) {
	d := Draw{
		Round:   round,
		Date:    CalendarDate(date),
		Numbers: slices.Clone(numbers),
		Bonus:   bonus,
	}
	slices.Sort(d.Numbers)
	if err := d.Validate(); err != nil {
		return Draw{}, err
	}
	return d, nil
}

// Validate checks the draw invariant: exactly six distinct numbers in range
// and a bonus in range that is not one of them.
func (d Draw) Validate() error {
	if d.Round <= 0 {
		return fmt.Errorf("draw: round %d must be positive: %w", d.Round, ErrInvalidInput)
	}
	if err := ValidatePick(d.Numbers); err != nil {
		return fmt.Errorf("draw %d: %w", d.Round, err)
	}
	if !InRange(d.Bonus) {
		return fmt.Errorf("draw %d: bonus %d out of range: %w", d.Round, d.Bonus, ErrInvalidInput)
	}
	if slices.Contains(d.Numbers, d.Bonus) {
		return fmt.Errorf("draw %d: bonus %d repeats a main number: %w", d.Round, d.Bonus, ErrInvalidInput)
	}
	return nil
}

// Contains reports whether n was drawn as a main number or as the bonus.
func (d Draw) Contains(n int) bool {
	return n == d.Bonus || slices.Contains(d.Numbers, n)
}

// DateString formats the draw date as YYYY-MM-DD.
func (d Draw) DateString() string {
	return d.Date.Format(DateLayout)
}

// InRange reports whether n is a valid ball number.
func InRange(n int) bool {
	return n >= MinNumber && n <= MaxNumber
}

// ValidatePick checks that numbers holds exactly PickSize distinct values in
// [MinNumber, MaxNumber].
func ValidatePick(numbers []int) error {
	if len(numbers) != PickSize {
		return fmt.Errorf("expected %d numbers, got %d: %w", PickSize, len(numbers), ErrInvalidInput)
	}
	var seen [NumberCount + 1]bool
	for _, n := range numbers {
		if !InRange(n) {
			return fmt.Errorf("number %d outside %d-%d: %w", n, MinNumber, MaxNumber, ErrInvalidInput)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d: %w", n, ErrInvalidInput)
		}
		seen[n] = true
	}
	return nil
}

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
