package mockserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drake/feeheat/frame"
	"github.com/drake/feeheat/network"
)

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestNotReadyUntilFramePublished(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	status, body := get(t, srv, network.HeatmapPath)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if !strings.Contains(body, NotReadyDetail) {
		t.Errorf("body = %q, want detail %q", body, NotReadyDetail)
	}

	s.SetFrame(frame.Frame{X: []float64{1}, Y: []float64{0}, Z: [][]float64{{7}}})

	status, body = get(t, srv, network.HeatmapPath)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	f, err := frame.DecodeBytes([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Z[0][0] != 7 {
		t.Errorf("z = %v, want [[7]]", f.Z)
	}
	if s.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", s.Calls())
	}
}

func TestScriptReplaysThenRepeatsLast(t *testing.T) {
	f := frame.Frame{X: []float64{1, 2}, Y: []float64{0}, Z: [][]float64{{1, 2}}}
	s := New(WithScript(
		Fail(http.StatusInternalServerError, "boom"),
		Response{Body: "not json"},
		OK(f),
	))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wantStatus := []int{500, 200, 200, 200}
	for i, want := range wantStatus {
		status, body := get(t, srv, network.HeatmapPath)
		if status != want {
			t.Errorf("call %d: status = %d, want %d", i+1, status, want)
		}
		if i == 1 && body != "not json" {
			t.Errorf("call 2: body = %q", body)
		}
		if i >= 2 {
			if _, err := frame.DecodeBytes([]byte(body)); err != nil {
				t.Errorf("call %d: decode: %v", i+1, err)
			}
		}
	}
}

func TestHealthAndMethods(t *testing.T) {
	srv := httptest.NewServer(New().Handler())
	defer srv.Close()

	status, body := get(t, srv, "/health")
	if status != http.StatusOK || strings.TrimSpace(body) != "OK" {
		t.Errorf("health = %d %q", status, body)
	}

	resp, err := http.Post(srv.URL+network.HeatmapPath, "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", resp.StatusCode)
	}
}

func TestGeneratorFramesAreValid(t *testing.T) {
	g := NewGenerator(8, 4, 42)

	a := g.Next()
	b := g.Next()
	for _, f := range []frame.Frame{a, b} {
		if err := f.Validate(); err != nil {
			t.Fatalf("invalid frame: %v", err)
		}
		if f.Width() != 8 || f.Height() != 4 {
			t.Fatalf("shape = %dx%d, want 8x4", f.Width(), f.Height())
		}
		for _, row := range f.Z {
			for _, v := range row {
				if v < 0 {
					t.Fatalf("negative weight %v", v)
				}
			}
		}
	}
	if a.Z[0][0] == b.Z[0][0] {
		t.Errorf("walk did not move: %v", a.Z[0][0])
	}

	// Same seed, same sequence.
	if c := NewGenerator(8, 4, 42).Next(); c.Z[2][3] != a.Z[2][3] {
		t.Errorf("seeded generators diverged: %v vs %v", c.Z[2][3], a.Z[2][3])
	}
}

func TestRunPublishesGeneratedFrames(t *testing.T) {
	s := New(WithGenerator(NewGenerator(3, 2, 1)))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 10*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		status, _ := get(t, srv, network.HeatmapPath)
		if status == http.StatusOK {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("generator never published a frame")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestRunWithoutGenerator(t *testing.T) {
	if err := New().Run(context.Background(), time.Millisecond); err == nil {
		t.Error("expected error without generator")
	}
}
