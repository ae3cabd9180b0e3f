package billboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const archiveJSON = `[
	{"date": "1968-12-28", "data": [
		{"song": "I Heard It Through The Grapevine", "artist": "Marvin Gaye", "this_week": 1, "last_week": 1, "peak_position": 1, "weeks_on_chart": 7}
	]},
	{"date": "1969-01-04", "data": [
		{"song": "I Heard It Through The Grapevine", "artist": "Marvin Gaye", "this_week": 1, "last_week": 1, "peak_position": 1, "weeks_on_chart": 8},
		{"song": "Crimson And Clover", "artist": "Tommy James And The Shondells", "this_week": 2, "last_week": null, "peak_position": 2, "weeks_on_chart": 1}
	]},
	{"date": "1969-12-27", "data": [
		{"song": "Someday We'll Be Together", "artist": "Diana Ross & The Supremes", "this_week": 1, "last_week": 2, "peak_position": 1, "weeks_on_chart": 8}
	]},
	{"date": "1970-01-03", "data": [
		{"song": "Raindrops Keep Fallin' On My Head", "artist": "B.J. Thomas", "this_week": 1, "last_week": 2, "peak_position": 1, "weeks_on_chart": 9}
	]}
]`

func TestFetchCharts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "hitparade-test" {
			t.Errorf("expected user agent hitparade-test, got %q", ua)
		}
		_, _ = w.Write([]byte(archiveJSON))
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, UserAgent: "hitparade-test"})
	charts, err := client.FetchCharts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(charts) != 4 {
		t.Fatalf("expected 4 charts, got %d", len(charts))
	}
	if got := charts[1].Date.Format(dateLayout); got != "1969-01-04" {
		t.Errorf("expected 1969-01-04, got %s", got)
	}
	if charts[1].Data[1].LastWeek != nil {
		t.Errorf("expected nil last_week for new entry, got %d", *charts[1].Data[1].LastWeek)
	}
	if charts[1].Data[0].LastWeek == nil || *charts[1].Data[0].LastWeek != 1 {
		t.Errorf("expected last_week 1, got %v", charts[1].Data[0].LastWeek)
	}
}

func TestFetchCharts_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL})
	if _, err := client.FetchCharts(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestDecode_InvalidDate(t *testing.T) {
	_, err := Decode(strings.NewReader(`[{"date": "yesterday", "data": []}]`))
	if err == nil || !strings.Contains(err.Error(), "invalid chart date") {
		t.Fatalf("expected invalid date error, got %v", err)
	}
}

func TestFilterYear(t *testing.T) {
	charts, err := Decode(strings.NewReader(archiveJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := FilterYear(charts, 1969)
	if len(got) != 2 {
		t.Fatalf("expected 2 charts in 1969, got %d", len(got))
	}
	for _, c := range got {
		if c.Date.Year() != 1969 {
			t.Errorf("unexpected chart dated %s", c.Date.Format(dateLayout))
		}
	}

	if got := FilterYear(charts, 2019); len(got) != 0 {
		t.Errorf("expected no charts in 2019, got %d", len(got))
	}
}

func TestFilterRange_Inclusive(t *testing.T) {
	charts, err := Decode(strings.NewReader(archiveJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	from := time.Date(1969, 1, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(1969, 12, 27, 0, 0, 0, 0, time.UTC)
	if got := FilterRange(charts, from, to); len(got) != 2 {
		t.Errorf("expected both boundary charts, got %d", len(got))
	}
}

func TestFlatten(t *testing.T) {
	charts, err := Decode(strings.NewReader(archiveJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	entries := Flatten(FilterYear(charts, 1969))
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	if entries[1].Song != "Crimson And Clover" {
		t.Errorf("expected Crimson And Clover second, got %s", entries[1].Song)
	}
	if got := entries[1].Date.Format(dateLayout); got != "1969-01-04" {
		t.Errorf("expected entry stamped 1969-01-04, got %s", got)
	}
	if got := entries[2].Date.Format(dateLayout); got != "1969-12-27" {
		t.Errorf("expected entry stamped 1969-12-27, got %s", got)
	}
}
