package domain

import (
	"fmt"
	"strings"
)

// CountMode selects which occurrences a frequency view reports.
type CountMode int

const (
	// CountMain counts only the six main numbers of each draw.
	CountMain CountMode = iota
	// CountBonus counts only bonus numbers.
	CountBonus
	// CountCombined counts main and bonus occurrences together.
	CountCombined
)

func (m CountMode) String() string {
	switch m {
	case CountMain:
		return "main"
	case CountBonus:
		return "bonus"
	case CountCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// ParseCountMode maps "main", "bonus" or "combined" to a CountMode. An empty
// string selects CountMain.
func ParseCountMode(s string) (CountMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "main":
		return CountMain, nil
	case "bonus":
		return CountBonus, nil
	case "combined", "total":
		return CountCombined, nil
	default:
		return CountMain, fmt.Errorf("count mode %q: %w", s, ErrInvalidInput)
	}
}

// FrequencyTable holds occurrence counts per number across a draw window.
// Index 0 corresponds to number 1.
type FrequencyTable struct {
	Main  [NumberCount]int `json:"main"`
	Bonus [NumberCount]int `json:"bonus"`
}

// Count returns the occurrences of number n under mode. Out-of-range numbers
// report zero.
func (t FrequencyTable) Count(n int, mode CountMode) int {
	if !InRange(n) {
		return 0
	}
	i := n - MinNumber
	switch mode {
	case CountBonus:
		return t.Bonus[i]
	case CountCombined:
		return t.Main[i] + t.Bonus[i]
	default:
		return t.Main[i]
	}
}

// Counts returns the counts for every number under mode, indexed by number-1.
func (t FrequencyTable) Counts(mode CountMode) []int {
	out := make([]int, NumberCount)
	for i := range out {
		out[i] = t.Count(i+MinNumber, mode)
	}
	return out
}

// Max returns the largest count under mode.
func (t FrequencyTable) Max(mode CountMode) int {
	m := 0
	for n := MinNumber; n <= MaxNumber; n++ {
		if c := t.Count(n, mode); c > m {
			m = c
		}
	}
	return m
}

// Total returns the sum of all counts under mode.
func (t FrequencyTable) Total(mode CountMode) int {
	sum := 0
	for n := MinNumber; n <= MaxNumber; n++ {
		sum += t.Count(n, mode)
	}
	return sum
}

// Mean returns the average count per number under mode.
func (t FrequencyTable) Mean(mode CountMode) float64 {
	return float64(t.Total(mode)) / float64(NumberCount)
}

// Bucket is a contiguous sub-range of the number space.
type Bucket struct {
	Label string `json:"label"`
	Lo    int    `json:"lo"`
	Hi    int    `json:"hi"`
	Color string `json:"color"`
}

// Contains reports whether n falls inside the bucket.
func (b Bucket) Contains(n int) bool {
	return n >= b.Lo && n <= b.Hi
}

// Buckets partitions 1-45 the way the draw-range charts group numbers.
var Buckets = []Bucket{
	{Label: "1-10", Lo: 1, Hi: 10, Color: "#FFCC00"},
	{Label: "11-20", Lo: 11, Hi: 20, Color: "#66B2FF"},
	{Label: "21-30", Lo: 21, Hi: 30, Color: "#FF6666"},
	{Label: "31-40", Lo: 31, Hi: 40, Color: "#999999"},
	{Label: "41-45", Lo: 41, Hi: 45, Color: "#66CC66"},
}

// BucketOf returns the bucket holding n, or false when n is out of range.
func BucketOf(n int) (Bucket, bool) {
	for _, b := range Buckets {
		if b.Contains(n) {
			return b, true
		}
	}
	return Bucket{}, false
}

// BallColor returns the display colour of a ball, grouped by bucket.
func BallColor(n int) string {
	if b, ok := BucketOf(n); ok {
		return b.Color
	}
	return ""
}

// BucketCount is the number of occurrences that fell in one bucket.
type BucketCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// OddEven aggregates odd and even occurrences.
type OddEven struct {
	Odd  int `json:"odd"`
	Even int `json:"even"`
}

// BucketCounts sums t under mode into the standard buckets.
func (t FrequencyTable) BucketCounts(mode CountMode) []BucketCount {
	out := make([]BucketCount, len(Buckets))
	for i, b := range Buckets {
		out[i].Label = b.Label
		for n := b.Lo; n <= b.Hi; n++ {
			out[i].Count += t.Count(n, mode)
		}
	}
	return out
}

// OddEven sums t under mode into odd and even numbers.
func (t FrequencyTable) OddEven(mode CountMode) OddEven {
	var oe OddEven
	for n := MinNumber; n <= MaxNumber; n++ {
		if n%2 == 1 {
			oe.Odd += t.Count(n, mode)
		} else {
			oe.Even += t.Count(n, mode)
		}
	}
	return oe
}
