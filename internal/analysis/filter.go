// Package analysis filters a cleaned Dataset by date range and reduces it to
// the aggregate tables the dashboards chart.
package analysis

import (
	"time"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
)

// Filter returns the records with start <= date <= end, in source order, as a
// new Dataset. A reversed range yields an empty Dataset rather than an error.
func Filter(ds *domain.Dataset, start, end time.Time) *domain.Dataset {
	start, end = truncateDay(start), truncateDay(end)
	if start.After(end) {
		return domain.NewDataset(ds.Granularity(), nil)
	}

	n := ds.Len()
	kept := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		r := ds.At(i)
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		kept = append(kept, r)
	}
	return domain.NewDataset(ds.Granularity(), kept)
}

// ClampRange limits a requested range to the published data span.
func ClampRange(start, end time.Time) (time.Time, time.Time) {
	start, end = truncateDay(start), truncateDay(end)
	if start.Before(domain.FirstDate) {
		start = domain.FirstDate
	}
	if end.After(domain.LastDate) {
		end = domain.LastDate
	}
	return start, end
}

// truncateDay drops any time-of-day so that comparisons are by calendar date.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
