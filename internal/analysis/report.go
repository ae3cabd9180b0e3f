package analysis

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// Longevity histogram range, in weeks.
const (
	LongevityMin = 0
	LongevityMax = 60
)

// Options tunes a comparison.
type Options struct {
	MaxPeak int // top hits are songs whose peak position is at most this (default 5)
	Bins    int // longevity histogram bins (default 10)
}

func (o Options) withDefaults() Options {
	if o.MaxPeak <= 0 {
		o.MaxPeak = 5
	}
	if o.Bins <= 0 {
		o.Bins = 10
	}
	return o
}

// Dataset is one year's feature table.
type Dataset struct {
	Year  int
	Frame dataframe.DataFrame
}

// YearSummary holds the measures computed for one year.
type YearSummary struct {
	Year      int
	Rows      int
	Happy     float64 // share of songs whose mood_happy is "happy"
	Male      float64 // share of songs whose gender is "male"
	Longevity []float64
	Histogram Histogram
	Genres    []Share
}

// NotHappy is the complement of Happy.
func (y YearSummary) NotHappy() float64 { return 1 - y.Happy }

// Female is the complement of Male.
func (y YearSummary) Female() float64 { return 1 - y.Male }

// GenreShare returns the proportion for label, or 0 if the genre is absent.
func (y YearSummary) GenreShare(label string) float64 {
	for _, s := range y.Genres {
		if s.Label == label {
			return s.Proportion
		}
	}
	return 0
}

// Report compares two years.
type Report struct {
	MaxPeak int
	Years   [2]YearSummary
}

// GenreOrder lists every genre label in either year: the first year's in
// its ranked order, then any the second year adds.
func (r *Report) GenreOrder() []string {
	seen := make(map[string]bool)
	var order []string
	for _, y := range r.Years {
		for _, s := range y.Genres {
			if !seen[s.Label] {
				seen[s.Label] = true
				order = append(order, s.Label)
			}
		}
	}
	return order
}

// Compare summarises two years side by side.
func Compare(a, b Dataset, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	r := &Report{MaxPeak: opts.MaxPeak}
	for i, d := range []Dataset{a, b} {
		y, err := summarize(d, opts)
		if err != nil {
			return nil, fmt.Errorf("%d: %w", d.Year, err)
		}
		r.Years[i] = y
	}
	return r, nil
}

func summarize(d Dataset, opts Options) (YearSummary, error) {
	if d.Frame.Err != nil {
		return YearSummary{}, d.Frame.Err
	}

	y := YearSummary{Year: d.Year, Rows: d.Frame.Nrow()}
	var err error

	if y.Happy, err = Proportion(d.Frame, "mood_happy", "happy"); err != nil {
		return YearSummary{}, err
	}
	if y.Male, err = Proportion(d.Frame, "gender", "male"); err != nil {
		return YearSummary{}, err
	}
	if y.Longevity, err = TopLongevity(d.Frame, opts.MaxPeak); err != nil {
		return YearSummary{}, err
	}
	if y.Histogram, err = NewHistogram(y.Longevity, LongevityMin, LongevityMax, opts.Bins, true); err != nil {
		return YearSummary{}, err
	}
	if y.Genres, err = GenreDistribution(d.Frame); err != nil && !errors.Is(err, ErrNoData) {
		return YearSummary{}, err
	}

	return y, nil
}
