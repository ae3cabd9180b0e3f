//go:build integration
// +build integration

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

const archive = `[
	{"date": "1969-07-12", "data": [
		{"song": "In The Year 2525", "artist": "Zager & Evans", "this_week": 1, "last_week": 2, "peak_position": 1, "weeks_on_chart": 6}
	]},
	{"date": "2019-04-13", "data": [
		{"song": "Old Town Road", "artist": "Lil Nas X", "this_week": 1, "last_week": 15, "peak_position": 1, "weeks_on_chart": 3}
	]}
]`

// newUpstream serves the chart archive and both lookup APIs. Recording
// searches block while slow is set so a run can be interrupted mid-lookup.
func newUpstream(t *testing.T, slow *atomic.Bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/all.json":
			fmt.Fprint(w, archive)
		case strings.HasPrefix(r.URL.Path, "/ws/2/recording"):
			if slow.Load() {
				select {
				case <-r.Context().Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
			id := "0b4a5c1d-8e5a-4d2f-9c3b-2a1e7f6d5c4b"
			if strings.Contains(r.URL.Query().Get("query"), "Old Town Road") {
				id = "2d6c7e3f-0a7c-4f4b-9e5d-4c3a9b8f7e6d"
			}
			fmt.Fprintf(w, `{"count": 1, "recordings": [{"id": %q, "score": 100}]}`, id)
		case strings.HasPrefix(r.URL.Path, "/api/v1/"):
			fmt.Fprint(w, `{"highlevel": {
				"danceability": {"value": "danceable"},
				"genre_rosamerica": {"value": "pop"},
				"gender": {"value": "female"},
				"mood_happy": {"value": "not_happy"}
			}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// TestRunInterruptAndResume interrupts a run during MBID lookups and checks
// that the rerun picks up from the recorded state.
func TestRunInterruptAndResume(t *testing.T) {
	buildCmd := exec.Command("go", "build", "-o", "hitparade_test", ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, out)
	}
	defer os.Remove("hitparade_test")

	var slow atomic.Bool
	slow.Store(true)
	server := newUpstream(t, &slow)

	tmpDir := t.TempDir()
	env := append(os.Environ(),
		"HOME="+t.TempDir(),
		"HITPARADE_CHART_URL="+server.URL+"/all.json",
		"HITPARADE_MUSICBRAINZ_URL="+server.URL+"/ws/2",
		"HITPARADE_ACOUSTICBRAINZ_URL="+server.URL+"/api/v1",
		"HITPARADE_MUSICBRAINZ_DELAY=0s",
		"HITPARADE_ACOUSTICBRAINZ_DELAY=0s",
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	newRun := func() *exec.Cmd {
		cmd := exec.CommandContext(ctx, "./hitparade_test", "run",
			"--years", "1969,2019",
			"--data-dir", tmpDir,
			"--log-level", "debug")
		cmd.Env = env
		return cmd
	}

	cmd := newRun()
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start run: %v", err)
	}

	// Wait for the chart stage to finish
	chartsFile := filepath.Join(tmpDir, "billboard1969.csv")
	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(chartsFile); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Chart file not created: %s", chartsFile)
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("Failed to send SIGINT: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected interrupted run to exit with an error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop after SIGINT")
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "state.json"))
	if err != nil {
		t.Fatalf("State file not written: %v", err)
	}
	var state struct {
		Years map[string]map[string]json.RawMessage `json:"years"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("Invalid state file: %v", err)
	}
	if _, ok := state.Years["1969"]["charts"]; !ok {
		t.Errorf("Expected charts stage recorded for 1969, got %s", data)
	}
	if _, ok := state.Years["1969"]["mbids"]; ok {
		t.Errorf("Interrupted mbids stage should not be recorded, got %s", data)
	}

	// Resume with fast lookups
	slow.Store(false)
	out, err := newRun().Output()
	if err != nil {
		t.Fatalf("Resumed run failed: %v", err)
	}
	if !strings.Contains(string(out), "genre_distribution.png") {
		t.Errorf("Expected plots to be written, got:\n%s", out)
	}
	for _, name := range []string{"billboard1969_features.csv", "billboard2019_features.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}
