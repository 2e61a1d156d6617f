package usecase

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/dashgit/dashgit/internal/domain"
)

// Summary describes the classified dashboard at a glance: how many
// items sit in each bucket and how stale the collection is overall.
type Summary struct {
	Total          int                   `json:"total"`
	PerBucket      map[domain.Bucket]int `json:"per_bucket"`
	MedianAgeHours float64               `json:"median_age_hours"`
	P90AgeHours    float64               `json:"p90_age_hours"`
}

// Summarize computes per-bucket counts and staleness percentiles over
// the classified sections. Age is measured from each item's UpdatedAt
// to now.
func Summarize(sections []Section, now time.Time) Summary {
	summary := Summary{PerBucket: make(map[domain.Bucket]int, len(sections))}

	var ages []float64
	for _, section := range sections {
		summary.PerBucket[section.Bucket] = len(section.PullRequests)
		summary.Total += len(section.PullRequests)
		for _, pr := range section.PullRequests {
			ages = append(ages, now.Sub(pr.UpdatedAt).Hours())
		}
	}
	if len(ages) == 0 {
		return summary
	}

	// stats errors only on empty input, which is handled above.
	median, _ := stats.Median(ages)
	p90, _ := stats.Percentile(ages, 90)
	summary.MedianAgeHours = median
	summary.P90AgeHours = p90
	return summary
}
