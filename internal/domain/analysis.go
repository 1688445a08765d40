package domain

// NumberStreak is how many rounds have passed since a number last appeared.
type NumberStreak struct {
	Number int `json:"number"`
	Streak int `json:"streak"`
}

// YearCounts holds per-number appearances (main or bonus) in one calendar year.
type YearCounts struct {
	Year   int              `json:"year"`
	Counts [NumberCount]int `json:"counts"`
}

// Analysis is the statistical summary of a draw window.
type Analysis struct {
	Draws       int            `json:"draws"`
	LatestRound int            `json:"latest_round"`
	Table       FrequencyTable `json:"table"`
	Ranges      []BucketCount  `json:"ranges"`
	OddEven     OddEven        `json:"odd_even"`
	Hot         []int          `json:"hot"`
	Cold        []int          `json:"cold"`
	Streaks     []NumberStreak `json:"streaks"`
	Yearly      []YearCounts   `json:"yearly"`
}

// SetStats describes a single six-number set.
type SetStats struct {
	Numbers []int         `json:"numbers"`
	OddEven OddEven       `json:"odd_even"`
	Ranges  []BucketCount `json:"ranges"`
	Sum     int           `json:"sum"`
	Mean    float64       `json:"mean"`
}

// Range returns the count for the bucket with the given label.
func (s SetStats) Range(label string) int {
	for _, r := range s.Ranges {
		if r.Label == label {
			return r.Count
		}
	}
	return 0
}

// NumberFrequency pairs a number with its count in a window.
type NumberFrequency struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

// SelectionComparison compares a chosen set's frequency against the window.
type SelectionComparison struct {
	Numbers       []NumberFrequency `json:"numbers"`
	SelectionMean float64           `json:"selection_mean"`
	OverallMean   float64           `json:"overall_mean"`
	// Ratio is SelectionMean/OverallMean; 0 when the window is empty.
	Ratio float64 `json:"ratio"`
}

// AboveAverage reports whether the selection appeared more often than the
// average number.
func (c SelectionComparison) AboveAverage() bool {
	return c.SelectionMean > c.OverallMean
}
