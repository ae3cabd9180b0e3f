package plot

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/jfmyers9/hitparade/internal/analysis"
)

func testReport(t *testing.T) *analysis.Report {
	t.Helper()

	hist := func(values ...float64) analysis.Histogram {
		h, err := analysis.NewHistogram(values, analysis.LongevityMin, analysis.LongevityMax, 10, true)
		if err != nil {
			t.Fatalf("histogram: %v", err)
		}
		return h
	}

	return &analysis.Report{
		MaxPeak: 5,
		Years: [2]analysis.YearSummary{
			{
				Year: 1969, Happy: 0.42, Male: 0.71,
				Histogram: hist(8, 10, 12, 13, 15),
				Genres:    []analysis.Share{{Label: "Rock", Proportion: 0.6}, {Label: "Pop", Proportion: 0.4}},
			},
			{
				Year: 2019, Happy: 0.35, Male: 0.64,
				Histogram: hist(20, 33, 52),
				Genres:    []analysis.Share{{Label: "Hip-Hop", Proportion: 0.7}, {Label: "Pop", Proportion: 0.3}},
			},
		},
	}
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")

	paths, err := All(testReport(t), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{HappyFile, GenderFile, LongevityFile, GenreFile}
	if len(paths) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), paths)
	}
	for i, name := range want {
		if filepath.Base(paths[i]) != name {
			t.Errorf("index %d: expected %s, got %s", i, name, paths[i])
		}
		data, err := os.ReadFile(paths[i])
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if !bytes.HasPrefix(data, pngMagic) {
			t.Errorf("%s: not a png", name)
		}
	}
}

func TestLongevity_EmptyHistogram(t *testing.T) {
	r := testReport(t)
	h, err := analysis.NewHistogram(nil, analysis.LongevityMin, analysis.LongevityMax, 15, true)
	if err != nil {
		t.Fatalf("histogram: %v", err)
	}
	r.Years[1].Histogram = h

	if err := Longevity(r, filepath.Join(t.TempDir(), LongevityFile)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FFC499", color.RGBA{R: 0xff, G: 0xc4, B: 0x99, A: 0xff}, false},
		{"#87ceeb", color.RGBA{R: 0x87, G: 0xce, B: 0xeb, A: 0xff}, false},
		{"FFC499", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := parseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error %v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestGenres_NoGenres(t *testing.T) {
	r := testReport(t)
	r.Years[0].Genres = nil
	r.Years[1].Genres = nil

	path := filepath.Join(t.TempDir(), GenreFile)
	if err := Genres(r, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected placeholder plot: %v", err)
	}
}
