package lotto

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// TrendSize is how many numbers the hot and cold lists hold.
const TrendSize = 5

// Analyze computes the frequency table and trend statistics of draws. Bucket
// and odd/even aggregates are taken over main numbers, so their totals equal
// six times the number of draws. An empty window is valid and yields zeros.
func Analyze(draws []domain.Draw) (domain.Analysis, error) {
	var a domain.Analysis
	for _, d := range draws {
		if err := d.Validate(); err != nil {
			return domain.Analysis{}, fmt.Errorf("lotto: analyze: %w", err)
		}
		for _, n := range d.Numbers {
			a.Table.Main[n-domain.MinNumber]++
		}
		a.Table.Bonus[d.Bonus-domain.MinNumber]++
		a.LatestRound = max(a.LatestRound, d.Round)
	}
	a.Draws = len(draws)
	a.Ranges = a.Table.BucketCounts(domain.CountMain)
	a.OddEven = a.Table.OddEven(domain.CountMain)

	ranked := Rank(a.Table.Counts(domain.CountMain))
	a.Hot = slices.Clone(ranked[:TrendSize])
	a.Cold = slices.Clone(RankAscending(a.Table.Counts(domain.CountMain))[:TrendSize])
	a.Streaks = streaks(draws, a.LatestRound)
	a.Yearly = yearly(draws)
	return a, nil
}

// Rank orders the numbers 1-45 by count descending, lower number first on
// ties. counts is indexed by number-1.
func Rank(counts []int) []int {
	return rank(counts, func(a, b int) int { return cmp.Compare(b, a) })
}

// RankAscending orders the numbers 1-45 by count ascending, lower number first
// on ties.
func RankAscending(counts []int) []int {
	return rank(counts, cmp.Compare[int])
}

func rank(counts []int, byCount func(a, b int) int) []int {
	nums := make([]int, len(counts))
	for i := range nums {
		nums[i] = i + domain.MinNumber
	}
	slices.SortStableFunc(nums, func(a, b int) int {
		if c := byCount(counts[a-domain.MinNumber], counts[b-domain.MinNumber]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return nums
}

// streaks reports, per number, the rounds elapsed since its latest appearance
// as a main or bonus number. Numbers absent from the window get its length.
// Longest streak first.
func streaks(draws []domain.Draw, latest int) []domain.NumberStreak {
	var last [domain.NumberCount]int
	for _, d := range draws {
		for _, n := range d.Numbers {
			last[n-domain.MinNumber] = max(last[n-domain.MinNumber], d.Round)
		}
		last[d.Bonus-domain.MinNumber] = max(last[d.Bonus-domain.MinNumber], d.Round)
	}
	out := make([]domain.NumberStreak, domain.NumberCount)
	for i := range out {
		out[i].Number = i + domain.MinNumber
		if last[i] == 0 {
			out[i].Streak = len(draws)
		} else {
			out[i].Streak = latest - last[i]
		}
	}
	slices.SortStableFunc(out, func(a, b domain.NumberStreak) int {
		if c := cmp.Compare(b.Streak, a.Streak); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return out
}

func yearly(draws []domain.Draw) []domain.YearCounts {
	byYear := make(map[int]*domain.YearCounts)
	for _, d := range draws {
		y := d.Date.Year()
		yc, ok := byYear[y]
		if !ok {
			yc = &domain.YearCounts{Year: y}
			byYear[y] = yc
		}
		for _, n := range d.Numbers {
			yc.Counts[n-domain.MinNumber]++
		}
		yc.Counts[d.Bonus-domain.MinNumber]++
	}
	out := make([]domain.YearCounts, 0, len(byYear))
	for _, yc := range byYear {
		out = append(out, *yc)
	}
	slices.SortFunc(out, func(a, b domain.YearCounts) int { return cmp.Compare(a.Year, b.Year) })
	return out
}
