package billboard

import "time"

// FilterRange returns the charts dated within [from, to], inclusive.
func FilterRange(charts []Chart, from, to time.Time) []Chart {
	var out []Chart
	for _, c := range charts {
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FilterYear returns the charts published between January 1 and
// December 31 of year.
func FilterYear(charts []Chart, year int) []Chart {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return FilterRange(charts, from, to)
}

// Flatten explodes charts into one entry per chart position, each carrying
// its chart date. Chart order and in-chart order are preserved.
func Flatten(charts []Chart) []Entry {
	n := 0
	for _, c := range charts {
		n += len(c.Data)
	}

	entries := make([]Entry, 0, n)
	for _, c := range charts {
		for _, e := range c.Data {
			e.Date = c.Date
			entries = append(entries, e)
		}
	}
	return entries
}
