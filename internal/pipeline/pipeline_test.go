package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/jfmyers9/hitparade/internal/chart"
	"github.com/jfmyers9/hitparade/pkg/billboard"
	"github.com/rs/zerolog"
)

const archiveJSON = `[
	{"date": "1969-07-12", "data": [
		{"song": "In The Year 2525", "artist": "Zager & Evans", "this_week": 1, "last_week": 2, "peak_position": 1, "weeks_on_chart": 6},
		{"song": "Spinning Wheel", "artist": "Blood, Sweat & Tears", "this_week": 2, "last_week": 1, "peak_position": 2, "weeks_on_chart": 8},
		{"song": "Obscure B-Side", "artist": "Nobody", "this_week": 99, "last_week": null, "peak_position": 99, "weeks_on_chart": 1}
	]},
	{"date": "1969-07-19", "data": [
		{"song": "In The Year 2525", "artist": "Zager & Evans", "this_week": 1, "last_week": 1, "peak_position": 1, "weeks_on_chart": 7}
	]},
	{"date": "2019-04-13", "data": [
		{"song": "Old Town Road", "artist": "Lil Nas X", "this_week": 1, "last_week": 15, "peak_position": 1, "weeks_on_chart": 3},
		{"song": "Wow.", "artist": "Post Malone", "this_week": 2, "last_week": 2, "peak_position": 2, "weeks_on_chart": 15}
	]}
]`

type fakeSource struct {
	calls int
	err   error
}

func (f *fakeSource) FetchCharts(ctx context.Context) ([]billboard.Chart, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return billboard.Decode(strings.NewReader(archiveJSON))
}

// fakeEnricher gives every song except "Obscure B-Side" an MBID derived from
// its title and a fixed set of features.
type fakeEnricher struct {
	mbidCalls    int
	featureCalls int
}

func strPtr(s string) *string { return &s }

func (f *fakeEnricher) AssignMBIDs(ctx context.Context, rows []chart.Row) error {
	f.mbidCalls++
	for i := range rows {
		if rows[i].Song != "Obscure B-Side" {
			rows[i].MBID = "mbid-" + rows[i].Song
		}
	}
	return nil
}

func (f *fakeEnricher) AssignFeatures(ctx context.Context, rows []chart.Row) error {
	f.featureCalls++
	for i := range rows {
		if rows[i].Song == "Wow." {
			continue
		}
		rows[i].Danceability = strPtr("danceable")
		rows[i].Genre = strPtr("pop")
		rows[i].Gender = strPtr("male")
		rows[i].MoodHappy = strPtr("happy")
	}
	return nil
}

func newTestPipeline(t *testing.T, dir string, force bool) (*Pipeline, *fakeSource, *fakeEnricher) {
	t.Helper()
	source := &fakeSource{}
	enricher := &fakeEnricher{}
	p := New(Config{
		DataDir:   filepath.Join(dir, "data"),
		OutDir:    filepath.Join(dir, "out"),
		StateFile: filepath.Join(dir, "state.json"),
		Force:     force,
	}, source, enricher, zerolog.Nop())
	return p, source, enricher
}

func TestCharts(t *testing.T) {
	dir := t.TempDir()
	p, source, _ := newTestPipeline(t, dir, false)
	ctx := context.Background()

	rows, err := p.Charts(ctx, 1969)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows for 1969, got %d", len(rows))
	}

	saved, err := chart.LoadFile(p.ChartsFile(1969))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(saved) != 4 {
		t.Errorf("expected 4 saved rows, got %d", len(saved))
	}

	if _, err := p.Charts(ctx, 2019); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 1 {
		t.Errorf("expected archive to be downloaded once, got %d", source.calls)
	}

	if _, err := p.Charts(ctx, 1980); err == nil {
		t.Error("expected error for year without charts")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	p, source, enricher := newTestPipeline(t, dir, false)

	report, plots, err := p.Run(context.Background(), 1969, 2019)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if source.calls != 1 {
		t.Errorf("expected one archive download, got %d", source.calls)
	}
	if enricher.mbidCalls != 2 || enricher.featureCalls != 2 {
		t.Errorf("expected one enrichment per year, got %d/%d", enricher.mbidCalls, enricher.featureCalls)
	}

	mbidRows, err := chart.LoadFile(p.MBIDFile(1969))
	if err != nil {
		t.Fatalf("load mbid file: %v", err)
	}
	if len(mbidRows) != 3 {
		t.Errorf("expected unmatched row to be dropped, got %d rows", len(mbidRows))
	}

	featureRows, err := chart.LoadFile(p.FeaturesFile(2019))
	if err != nil {
		t.Fatalf("load features file: %v", err)
	}
	if len(featureRows) != 1 || featureRows[0].Song != "Old Town Road" {
		t.Errorf("expected only Old Town Road to keep features, got %+v", featureRows)
	}

	if report.Years[0].Year != 1969 || report.Years[1].Year != 2019 {
		t.Errorf("unexpected report years %+v", report.Years)
	}
	if len(plots) != 4 {
		t.Errorf("expected 4 plots, got %v", plots)
	}
	for _, path := range plots {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("plot %s: %v", path, err)
		}
	}
}

func TestRun_Resume(t *testing.T) {
	dir := t.TempDir()
	p, _, _ := newTestPipeline(t, dir, false)
	if _, _, err := p.Run(context.Background(), 1969, 2019); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A fresh pipeline over the same state does no work.
	p2, source, enricher := newTestPipeline(t, dir, false)
	if _, _, err := p2.Run(context.Background(), 1969, 2019); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if source.calls != 0 || enricher.mbidCalls != 0 || enricher.featureCalls != 0 {
		t.Errorf("expected resumed run to skip all stages, got source=%d mbids=%d features=%d",
			source.calls, enricher.mbidCalls, enricher.featureCalls)
	}
}

func TestRun_ResumeMissingOutput(t *testing.T) {
	dir := t.TempDir()
	p, _, _ := newTestPipeline(t, dir, false)
	if _, err := p.Features(context.Background(), 1969); err != nil {
		t.Fatalf("first run: %v", err)
	}

	if err := os.Remove(p.FeaturesFile(1969)); err != nil {
		t.Fatalf("remove: %v", err)
	}

	p2, source, enricher := newTestPipeline(t, dir, false)
	if _, err := p2.Features(context.Background(), 1969); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if enricher.featureCalls != 1 {
		t.Errorf("expected features stage to rerun, got %d calls", enricher.featureCalls)
	}
	if source.calls != 0 || enricher.mbidCalls != 0 {
		t.Errorf("expected earlier stages to be reused")
	}
}

func TestRun_Force(t *testing.T) {
	dir := t.TempDir()
	p, _, _ := newTestPipeline(t, dir, false)
	if _, err := p.Features(context.Background(), 1969); err != nil {
		t.Fatalf("first run: %v", err)
	}

	p2, source, enricher := newTestPipeline(t, dir, true)
	if _, err := p2.Features(context.Background(), 1969); err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if source.calls != 1 || enricher.mbidCalls != 1 || enricher.featureCalls != 1 {
		t.Errorf("expected forced run to redo every stage, got source=%d mbids=%d features=%d",
			source.calls, enricher.mbidCalls, enricher.featureCalls)
	}
}

func TestCharts_ForceInvalidatesLaterStages(t *testing.T) {
	dir := t.TempDir()
	p, _, _ := newTestPipeline(t, dir, false)
	if _, err := p.Features(context.Background(), 1969); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// fetch --force
	p2, _, _ := newTestPipeline(t, dir, true)
	if _, err := p2.Charts(context.Background(), 1969); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}

	p3, source, enricher := newTestPipeline(t, dir, false)
	if _, err := p3.Features(context.Background(), 1969); err != nil {
		t.Fatalf("features: %v", err)
	}
	if source.calls != 0 {
		t.Errorf("expected refetched charts to be reused, got %d downloads", source.calls)
	}
	if enricher.mbidCalls != 1 || enricher.featureCalls != 1 {
		t.Errorf("expected mbids and features to rerun on new charts, got mbids=%d features=%d",
			enricher.mbidCalls, enricher.featureCalls)
	}
}

func TestRun_FetchError(t *testing.T) {
	dir := t.TempDir()
	p, source, _ := newTestPipeline(t, dir, false)
	source.err = errors.New("archive unavailable")

	if _, _, err := p.Run(context.Background(), 1969, 2019); err == nil || !strings.Contains(err.Error(), "archive unavailable") {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, ok := p.state.Completed(1969, StageCharts); ok {
		t.Error("expected failed stage not to be recorded")
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, source, _ := newTestPipeline(t, t.TempDir(), false)
	if _, _, err := p.Run(ctx, 1969, 2019); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if source.calls != 0 {
		t.Errorf("expected no download after cancellation, got %d", source.calls)
	}
}

func TestCompare_MissingFeatures(t *testing.T) {
	p, _, _ := newTestPipeline(t, t.TempDir(), false)
	if _, _, err := p.Compare(context.Background(), 1969, 2019); err == nil {
		t.Fatal("expected error when feature files are missing")
	}
}

func TestWithSignals(t *testing.T) {
	exited := make(chan int, 1)
	exit = func(code int) { exited <- code }
	t.Cleanup(func() { exit = os.Exit })

	ctx, stop := WithSignals(context.Background(), zerolog.Nop())
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected context to be canceled after first signal")
	}

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case code := <-exited:
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected forced exit after second signal")
	}
}

func TestWithSignals_Stop(t *testing.T) {
	ctx, stop := WithSignals(context.Background(), zerolog.Nop())
	stop()
	stop()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected stop to cancel the context")
	}
}
