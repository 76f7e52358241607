package shape

import (
	"fmt"
	"time"

	"github.com/git-pkgs/npmchart/internal/core"
)

// Aggregate sums a daily series into buckets of the given granularity.
// Week buckets are labelled by their ISO Monday, month buckets by "YYYY-MM".
// Bucket order follows the first appearance in s.
func Aggregate(s core.Series, g core.Granularity) (core.Series, error) {
	if g == core.Day || g == "" {
		out := make(core.Series, len(s))
		copy(out, s)
		return out, nil
	}

	var out core.Series
	index := make(map[string]int)
	for _, e := range s {
		d, err := time.Parse(core.DateLayout, e.Date)
		if err != nil {
			return nil, fmt.Errorf("aggregating %q: %w", e.Date, err)
		}

		var key string
		switch g {
		case core.Week:
			key = weekStart(d).Format(core.DateLayout)
		case core.Month:
			key = d.Format("2006-01")
		default:
			return nil, fmt.Errorf("%w: %q", core.ErrInvalidGranularity, g)
		}

		if i, ok := index[key]; ok {
			out[i].Count += e.Count
			continue
		}
		index[key] = len(out)
		out = append(out, core.DailyCount{Date: key, Count: e.Count})
	}
	if out == nil {
		out = core.Series{}
	}
	return out, nil
}

// weekStart returns the Monday of d's ISO week.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
