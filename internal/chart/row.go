package chart

import (
	"time"

	"github.com/jfmyers9/hitparade/pkg/billboard"
)

// Row is one chart position, optionally enriched with an MBID and
// acoustic features.
type Row struct {
	Song         string
	Date         time.Time
	Artist       string
	ThisWeek     int
	LastWeek     *int // nil when the song is new to the chart
	PeakPosition int
	WeeksOnChart int

	MBID string // empty until looked up, or when the lookup failed

	Features
}

// Features are the acoustic descriptors attached to a row. nil means
// unknown.
type Features struct {
	Danceability *string
	Genre        *string
	Gender       *string
	Mood         *string
	Instrumental *string
	BPM          *float64
	Key          *string
	Loudness     *float64
	MoodHappy    *string
}

// HasFeatures reports whether the row carries feature data. Danceability is
// the marker column: it is present whenever the high-level document was.
func (r *Row) HasFeatures() bool {
	return r.Danceability != nil
}

// FromEntries converts flattened chart entries into rows.
func FromEntries(entries []billboard.Entry) []Row {
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{
			Song:         e.Song,
			Date:         e.Date,
			Artist:       e.Artist,
			ThisWeek:     e.ThisWeek,
			LastWeek:     e.LastWeek,
			PeakPosition: e.PeakPosition,
			WeeksOnChart: e.WeeksOnChart,
		}
	}
	return rows
}

// DropMissingMBID returns the rows that have an MBID.
func DropMissingMBID(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.MBID != "" {
			out = append(out, r)
		}
	}
	return out
}

// DropMissingFeatures returns the rows that have features.
func DropMissingFeatures(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for i := range rows {
		if rows[i].HasFeatures() {
			out = append(out, rows[i])
		}
	}
	return out
}

// FillByMBID fills the features of rows that lack them from other rows
// with the same MBID. Within each MBID group, in row order, every feature
// column is propagated forward and then backward. Rows that already have
// features are left untouched.
func FillByMBID(rows []Row) {
	groups := make(map[string][]int)
	var order []string
	for i := range rows {
		id := rows[i].MBID
		if id == "" {
			continue
		}
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}

	for _, id := range order {
		idx := groups[id]
		needs := make([]bool, len(idx))
		missing := false
		for k, i := range idx {
			needs[k] = !rows[i].HasFeatures()
			missing = missing || needs[k]
		}
		if !missing {
			continue
		}

		fillColumn(rows, idx, needs, func(r *Row) **string { return &r.Danceability })
		fillColumn(rows, idx, needs, func(r *Row) **string { return &r.Genre })
		fillColumn(rows, idx, needs, func(r *Row) **string { return &r.Gender })
		fillColumn(rows, idx, needs, func(r *Row) **string { return &r.Mood })
		fillColumn(rows, idx, needs, func(r *Row) **string { return &r.Instrumental })
		fillColumn(rows, idx, needs, func(r *Row) **float64 { return &r.BPM })
		fillColumn(rows, idx, needs, func(r *Row) **string { return &r.Key })
		fillColumn(rows, idx, needs, func(r *Row) **float64 { return &r.Loudness })
		fillColumn(rows, idx, needs, func(r *Row) **string { return &r.MoodHappy })
	}
}

func fillColumn[T any](rows []Row, idx []int, needs []bool, field func(*Row) **T) {
	vals := make([]*T, len(idx))
	for k, i := range idx {
		vals[k] = *field(&rows[i])
	}

	filled := propagate(vals)
	for k, i := range idx {
		if needs[k] {
			*field(&rows[i]) = filled[k]
		}
	}
}

// propagate forward fills nil values, then backward fills what is left.
func propagate[T any](vals []*T) []*T {
	out := make([]*T, len(vals))

	var last *T
	for i, v := range vals {
		if v != nil {
			last = v
		}
		out[i] = last
	}

	var next *T
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != nil {
			next = out[i]
		} else {
			out[i] = next
		}
	}

	return out
}
