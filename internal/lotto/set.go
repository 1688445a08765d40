package lotto

import (
	"fmt"
	"slices"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// AnalyzeSet describes a single six-number set: odd/even split, bucket
// distribution, sum and mean.
func AnalyzeSet(numbers []int) (domain.SetStats, error) {
	if err := domain.ValidatePick(numbers); err != nil {
		return domain.SetStats{}, fmt.Errorf("lotto: analyze set: %w", err)
	}
	s := domain.SetStats{
		Numbers: slices.Sorted(slices.Values(numbers)),
		Ranges:  make([]domain.BucketCount, len(domain.Buckets)),
	}
	for i, b := range domain.Buckets {
		s.Ranges[i].Label = b.Label
	}
	for _, n := range numbers {
		if n%2 == 1 {
			s.OddEven.Odd++
		} else {
			s.OddEven.Even++
		}
		for i, b := range domain.Buckets {
			if b.Contains(n) {
				s.Ranges[i].Count++
			}
		}
		s.Sum += n
	}
	s.Mean = float64(s.Sum) / float64(len(numbers))
	return s, nil
}

// CompareSelection compares how often the numbers of a set appeared in table
// against the average number.
func CompareSelection(numbers []int, table domain.FrequencyTable, mode domain.CountMode) (domain.SelectionComparison, error) {
	if err := domain.ValidatePick(numbers); err != nil {
		return domain.SelectionComparison{}, fmt.Errorf("lotto: compare selection: %w", err)
	}
	c := domain.SelectionComparison{
		Numbers:     make([]domain.NumberFrequency, 0, len(numbers)),
		OverallMean: table.Mean(mode),
	}
	sum := 0
	for _, n := range slices.Sorted(slices.Values(numbers)) {
		cnt := table.Count(n, mode)
		c.Numbers = append(c.Numbers, domain.NumberFrequency{Number: n, Count: cnt})
		sum += cnt
	}
	c.SelectionMean = float64(sum) / float64(len(numbers))
	if c.OverallMean > 0 {
		c.Ratio = c.SelectionMean / c.OverallMean
	}
	return c, nil
}
