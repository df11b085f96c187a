package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/K1ngNothing/dungeon-generation/pkg/cache"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/pipeline"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(fc, nil, nil)
	ts := httptest.NewServer(NewServer(runner, opts...).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = runner.Close()
	})
	return ts
}

const gridRequest = `{
	"dungeon": {"kind": "grid", "grid_side": 2, "seed": 5},
	"max_iterations": 5,
	"reruns": 1
}`

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestCreateAndFetch(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/dungeons", "application/json", strings.NewReader(gridRequest))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201", resp.StatusCode)
	}

	var summary pipeline.Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.ID == "" {
		t.Fatal("summary has no id")
	}
	if got := resp.Header.Get("Location"); got != "/v1/dungeons/"+summary.ID {
		t.Errorf("Location = %q", got)
	}
	if summary.Rooms != 4 || summary.Corridors != 4 || summary.Runs != 2 {
		t.Errorf("summary = %+v", summary)
	}
	for _, f := range []string{"json", "svg"} {
		found := false
		for _, g := range summary.Formats {
			found = found || g == f
		}
		if !found {
			t.Errorf("formats %v should include %s", summary.Formats, f)
		}
	}

	t.Run("model", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/dungeons/" + summary.ID)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		m, err := model.ReadJSON(resp.Body)
		if err != nil {
			t.Fatalf("decode model: %v", err)
		}
		if len(m.Rooms()) != 4 || !m.Solved() {
			t.Errorf("model has %d rooms, solved %v", len(m.Rooms()), m.Solved())
		}
	})

	t.Run("svg", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/dungeons/" + summary.ID + "/svg")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
			t.Errorf("Content-Type = %q", ct)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		if !strings.Contains(buf.String(), "<svg") {
			t.Error("body is not an SVG document")
		}
	})

	t.Run("summary", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/dungeons/" + summary.ID + "/summary")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var got pipeline.Summary
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got.ID != summary.ID || got.Kind != "grid" || got.Seed != 5 {
			t.Errorf("summary = %+v", got)
		}
	})
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t, WithMaxRooms(10))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown id", http.MethodGet, "/v1/dungeons/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown svg", http.MethodGet, "/v1/dungeons/nope/svg", "", http.StatusNotFound, "NOT_FOUND"},
		{"malformed body", http.MethodPost, "/v1/dungeons", "{", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", http.MethodPost, "/v1/dungeons", `{"snapshot_dir": "/tmp"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad kind", http.MethodPost, "/v1/dungeons", `{"dungeon": {"kind": "maze"}}`, http.StatusBadRequest, "INVALID_SETTINGS"},
		{"bad format", http.MethodPost, "/v1/dungeons", `{"formats": ["gif"]}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"too many rooms", http.MethodPost, "/v1/dungeons", `{"dungeon": {"room_count": 50}}`, http.StatusBadRequest, "INVALID_SETTINGS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body struct {
				Error string `json:"error"`
				Code  string `json:"code"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", body.Code, tt.code, body.Error)
			}
			if body.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestObserveHooks(t *testing.T) {
	rec := &recordingHooks{}
	useHTTPHooks(t, rec)

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/dungeons/abc/svg")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if len(rec.routes) != 1 {
		t.Fatalf("responses recorded = %d, want 1", len(rec.routes))
	}
	if rec.routes[0] != "/v1/dungeons/{id}/svg" {
		t.Errorf("route = %q, want the chi pattern", rec.routes[0])
	}
	if rec.statuses[0] != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.statuses[0])
	}
}
