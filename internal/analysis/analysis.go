// Package analysis compares the feature makeup of two chart years.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jfmyers9/hitparade/internal/chart"
)

// ErrNoData is returned when a column has no usable values.
var ErrNoData = errors.New("no data")

// genreLabels maps rosamerica genre codes to readable names.
var genreLabels = map[string]string{
	"cla": "Classical",
	"dan": "Dance/Electronic",
	"hip": "Hip-Hop",
	"jaz": "Jazz",
	"pop": "Pop",
	"rhy": "Rhythm & Blues (R&B)",
	"roc": "Rock",
	"spe": "Speech",
}

// GenreLabel returns the readable name for a genre code. Unknown codes are
// returned unchanged.
func GenreLabel(code string) string {
	if label, ok := genreLabels[code]; ok {
		return label
	}
	return code
}

// FromRows builds a dataframe with one column per CSV column. Missing
// values are NaN.
func FromRows(rows []chart.Row) dataframe.DataFrame {
	n := len(rows)
	str := func(name string, get func(*chart.Row) string) series.Series {
		vals := make([]string, n)
		for i := range rows {
			vals[i] = get(&rows[i])
		}
		return series.New(vals, series.String, name)
	}
	opt := func(v *string) string {
		if v == nil {
			return "NaN"
		}
		return *v
	}
	num := func(name string, get func(*chart.Row) float64) series.Series {
		vals := make([]float64, n)
		for i := range rows {
			vals[i] = get(&rows[i])
		}
		return series.New(vals, series.Float, name)
	}
	optNum := func(v *float64) float64 {
		if v == nil {
			return math.NaN()
		}
		return *v
	}

	return dataframe.New(
		str("song", func(r *chart.Row) string { return r.Song }),
		str("artist", func(r *chart.Row) string { return r.Artist }),
		series.New(intColumn(rows, func(r *chart.Row) int { return r.PeakPosition }), series.Int, "peak_position"),
		series.New(intColumn(rows, func(r *chart.Row) int { return r.WeeksOnChart }), series.Int, "weeks_on_chart"),
		str("mbid", func(r *chart.Row) string {
			if r.MBID == "" {
				return "NaN"
			}
			return r.MBID
		}),
		str("danceability", func(r *chart.Row) string { return opt(r.Danceability) }),
		str("genre", func(r *chart.Row) string { return opt(r.Genre) }),
		str("gender", func(r *chart.Row) string { return opt(r.Gender) }),
		str("mood", func(r *chart.Row) string { return opt(r.Mood) }),
		str("instrumental", func(r *chart.Row) string { return opt(r.Instrumental) }),
		num("bpm", func(r *chart.Row) float64 { return optNum(r.BPM) }),
		str("key", func(r *chart.Row) string { return opt(r.Key) }),
		num("loudness", func(r *chart.Row) float64 { return optNum(r.Loudness) }),
		str("mood_happy", func(r *chart.Row) string { return opt(r.MoodHappy) }),
	)
}

func intColumn(rows []chart.Row, get func(*chart.Row) int) []int {
	vals := make([]int, len(rows))
	for i := range rows {
		vals[i] = get(&rows[i])
	}
	return vals
}

// Load reads a features CSV into a dataframe.
func Load(path string) (dataframe.DataFrame, error) {
	rows, err := chart.LoadFile(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df := FromRows(rows)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, df.Err)
	}
	return df, nil
}

// counts tallies the non-NaN values of a column, returning the values in
// descending count order (ties broken by first appearance).
func counts(df dataframe.DataFrame, column string) ([]string, map[string]int, int, error) {
	s := df.Col(column)
	if s.Err != nil {
		return nil, nil, 0, s.Err
	}

	tally := make(map[string]int)
	var order []string
	total := 0
	nan := s.IsNaN()
	for i, v := range s.Records() {
		if nan[i] {
			continue
		}
		if _, ok := tally[v]; !ok {
			order = append(order, v)
		}
		tally[v]++
		total++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return tally[order[i]] > tally[order[j]]
	})
	return order, tally, total, nil
}

// Proportion returns the share of non-null values in column equal to value.
// A value that never occurs has proportion 0.
func Proportion(df dataframe.DataFrame, column, value string) (float64, error) {
	_, tally, total, err := counts(df, column)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, fmt.Errorf("%s: %w", column, ErrNoData)
	}
	return float64(tally[value]) / float64(total), nil
}

// TopLongevity returns weeks on chart for songs that peaked between 1 and
// maxPeak, one value per MBID taken from its longest-charting row.
func TopLongevity(df dataframe.DataFrame, maxPeak int) ([]float64, error) {
	top := df.
		Filter(dataframe.F{Colname: "peak_position", Comparator: series.GreaterEq, Comparando: 1}).
		Filter(dataframe.F{Colname: "peak_position", Comparator: series.LessEq, Comparando: maxPeak})
	if top.Err != nil {
		return nil, top.Err
	}
	if top.Nrow() == 0 {
		return nil, nil
	}

	top = top.Arrange(dataframe.RevSort("weeks_on_chart"))
	if top.Err != nil {
		return nil, top.Err
	}

	ids := top.Col("mbid").Records()
	weeks := top.Col("weeks_on_chart").Float()

	seen := make(map[string]bool, len(ids))
	var out []float64
	for i, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, weeks[i])
	}
	return out, nil
}

// Share is one category's proportion of a column.
type Share struct {
	Label      string
	Proportion float64
}

// GenreDistribution returns the share of each genre, labelled with readable
// names, most common first.
func GenreDistribution(df dataframe.DataFrame) ([]Share, error) {
	order, tally, total, err := counts(df, "genre")
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("genre: %w", ErrNoData)
	}

	shares := make([]Share, len(order))
	for i, code := range order {
		shares[i] = Share{
			Label:      GenreLabel(code),
			Proportion: float64(tally[code]) / float64(total),
		}
	}
	return shares, nil
}
