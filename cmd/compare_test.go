package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jfmyers9/hitparade/internal/analysis"
	"github.com/jfmyers9/hitparade/internal/config"
	"github.com/mattn/go-runewidth"
)

func TestPadToWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"no padding when width is 0", "Hello", 0, "Hello"},
		{"no padding when width is negative", "Hello", -1, "Hello"},
		{"pad short text with spaces", "Hi", 10, "Hi        "},
		{"exact width unchanged", "Hello", 5, "Hello"},
		{"truncate long text with ellipsis", "Rhythm & Blues (R&B) and more", 20, "Rhythm & Blues (R..."},
		{"handle wide characters", "日本語", 10, "日本語    "},
		{"truncate wide characters", "日本語のとても長いジャンル", 10, "日本語... "},
		{"empty string padding", "", 5, "     "},
		{"minimum width for truncation", "Hello", 3, "..."},
		{"width below ellipsis", "Hello", 2, ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := padToWidth(tt.input, tt.width)
			if result != tt.expected {
				t.Errorf("padToWidth(%q, %d) = %q, expected %q", tt.input, tt.width, result, tt.expected)
			}
			if tt.width > 0 {
				if w := runewidth.StringWidth(result); w != tt.width {
					t.Errorf("padToWidth(%q, %d) produced width %d", tt.input, tt.width, w)
				}
			}
		})
	}
}

func TestPadLeft(t *testing.T) {
	if got := padLeft("42.0%", 8); got != "   42.0%" {
		t.Errorf("expected right aligned value, got %q", got)
	}
	if got := padLeft("1234567890", 4); got != "1234567890" {
		t.Errorf("expected long value untouched, got %q", got)
	}
}

func TestPrintSummary(t *testing.T) {
	r := &analysis.Report{
		MaxPeak: 5,
		Years: [2]analysis.YearSummary{
			{Year: 1969, Rows: 4800, Happy: 0.25, Male: 0.8, Longevity: []float64{10, 14},
				Genres: []analysis.Share{{Label: "Rock", Proportion: 0.5}}},
			{Year: 2019, Rows: 4900, Happy: 0.4, Male: 0.6,
				Genres: []analysis.Share{{Label: "Hip-Hop", Proportion: 0.6}}},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"Happy                         25.0%      40.0%",
		"Female                        20.0%      40.0%",
		"Top 5 hits                        2          0",
		"  mean weeks on chart          12.0          -",
		"Hip-Hop                        0.0%      60.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestApplyComparisonFlags(t *testing.T) {
	base := config.Config{
		ChartURL:       "http://example.com",
		Years:          []int{1969, 2019},
		DataDir:        t.TempDir(),
		MusicBrainz:    config.ServiceConfig{URL: "http://mb"},
		AcousticBrainz: config.ServiceConfig{URL: "http://ab"},
		HTTP:           config.HTTPConfig{MaxRetries: 3},
		Analysis:       config.AnalysisConfig{MaxPeak: 5, Bins: 10},
	}

	tests := []struct {
		name    string
		years   []int
		peakMax int
		bins    int
		wantA   int
		wantB   int
		wantErr bool
	}{
		{"defaults from config", nil, 0, 0, 1969, 2019, false},
		{"explicit years", []int{1985, 2005}, 0, 0, 1985, 2005, false},
		{"number one hits", nil, 1, 15, 1969, 2019, false},
		{"one year", []int{1969}, 0, 0, 0, 0, true},
		{"same year", []int{1969, 1969}, 0, 0, 0, 0, true},
		{"before the hot 100", []int{1940, 2019}, 0, 0, 0, 0, true},
		{"peak out of range", nil, 101, 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			cfg = &c

			a, b, err := applyComparisonFlags(tt.years, tt.peakMax, tt.bins)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil {
				return
			}
			if a != tt.wantA || b != tt.wantB {
				t.Errorf("expected %d,%d got %d,%d", tt.wantA, tt.wantB, a, b)
			}
			if tt.peakMax != 0 && cfg.Analysis.MaxPeak != tt.peakMax {
				t.Errorf("expected max peak %d, got %d", tt.peakMax, cfg.Analysis.MaxPeak)
			}
			if tt.bins != 0 && cfg.Analysis.Bins != tt.bins {
				t.Errorf("expected bins %d, got %d", tt.bins, cfg.Analysis.Bins)
			}
		})
	}
}
