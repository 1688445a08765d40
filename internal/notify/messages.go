package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// RecommendationMessage renders a recommendation as a title and body.
func RecommendationMessage(rec domain.Recommendation) (string, string) {
	title := fmt.Sprintf("New %s recommendation", rec.Strategy)
	var b strings.Builder
	fmt.Fprintf(&b, "window: last %d draws (%s counts)\n", rec.Period, rec.Mode)
	for i, set := range rec.Sets {
		fmt.Fprintf(&b, "%d) %s\n", i+1, joinInts(set))
	}
	fmt.Fprintf(&b, "seed: %d", rec.Seed)
	return title, b.String()
}

// DrawsCollectedMessage summarises a collection run.
func DrawsCollectedMessage(collected, latestRound int) (string, string) {
	return "Draws collected",
		fmt.Sprintf("stored %d new draw(s); latest round is %d", collected, latestRound)
}

// ArchiveMessage summarises an archive run.
func ArchiveMessage(draws, recommendations int64, cutoff time.Time) (string, string) {
	return "Archive completed",
		fmt.Sprintf("draws: %d, recommendations before %s: %d",
			draws, cutoff.Format(domain.DateLayout), recommendations)
}

// ErrorMessage renders a failed job.
func ErrorMessage(job string, err error) (string, string) {
	return fmt.Sprintf("%s failed", job), err.Error()
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}
