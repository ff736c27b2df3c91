package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/slicecam/internal/capture"
	"github.com/ayusman/slicecam/internal/detector"
	"github.com/ayusman/slicecam/internal/game"
	"github.com/ayusman/slicecam/internal/session"
)

// fakeGame records what the server forwards to the game.
type fakeGame struct {
	mu       sync.Mutex
	frame    game.Frame
	toggle   bool
	toggles  int
	hands    [][]detector.HandLandmarks
	pointers [][2]float64
	leaves   int
	sizes    [][2]float64
	subs     []chan game.Frame
}

func (g *fakeGame) Frame() game.Frame {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frame
}

func (g *fakeGame) Subscribe() (<-chan game.Frame, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan game.Frame, 8)
	g.subs = append(g.subs, ch)
	return ch, func() {}
}

func (g *fakeGame) publish(f game.Frame) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range g.subs {
		ch <- f
	}
}

func (g *fakeGame) subscribers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

func (g *fakeGame) TogglePause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.toggles++
	return g.toggle
}

func (g *fakeGame) PushLandmarks(hands []detector.HandLandmarks) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hands = append(g.hands, hands)
}

func (g *fakeGame) AddPointerPoint(x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pointers = append(g.pointers, [2]float64{x, y})
}

func (g *fakeGame) ClearPointer() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leaves++
}

func (g *fakeGame) Resize(width, height float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sizes = append(g.sizes, [2]float64{width, height})
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/nonexistent", "/api/scores", "/api/game", "/api/camera"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>slice</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	jsContent := "console.log('render')"
	if err := os.WriteFile(filepath.Join(tmpDir, "game.js"), []byte(jsContent), 0644); err != nil {
		t.Fatalf("failed to create test JS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir, Game: &fakeGame{}})

	tests := []struct {
		name string
		path string
		code int
		body string
	}{
		{"serves index.html at root path", "/", http.StatusOK, testContent},
		{"serves static files from configured directory", "/game.js", http.StatusOK, jsContent},
		{"returns 404 for non-existent static files", "/nonexistent.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rec.Code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}

	t.Run("api routes win over static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/game", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON from /api/game, got %s", rec.Header().Get("Content-Type"))
		}
	})
}

func TestServer_Frame(t *testing.T) {
	g := &fakeGame{frame: game.Frame{Phase: session.PhasePlaying, Score: 30, TimeRemaining: 42.5}}
	s := New(Config{Game: g})

	req := httptest.NewRequest(http.MethodGet, "/api/game", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got struct {
		Phase         string  `json:"phase"`
		Score         int     `json:"score"`
		TimeRemaining float64 `json:"timeRemaining"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if got.Phase != "playing" || got.Score != 30 || got.TimeRemaining != 42.5 {
		t.Errorf("unexpected frame %+v", got)
	}
}

func TestServer_Pause(t *testing.T) {
	tests := []struct {
		name      string
		phase     session.Phase
		toggle    bool
		wantCode  int
		wantPhase string
	}{
		{"pauses a running session", session.PhasePlaying, true, http.StatusOK, "paused"},
		{"resumes a paused session", session.PhasePaused, true, http.StatusOK, "playing"},
		{"conflict outside play", session.PhaseIdle, false, http.StatusConflict, "idle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGame{frame: game.Frame{Phase: tt.phase}, toggle: tt.toggle}
			s := New(Config{Game: g})

			req := httptest.NewRequest(http.MethodPost, "/api/game/pause", nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			var resp pauseResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Changed != tt.toggle {
				t.Errorf("changed = %v, want %v", resp.Changed, tt.toggle)
			}
			if resp.Phase.String() != tt.wantPhase {
				t.Errorf("phase = %s, want %s", resp.Phase, tt.wantPhase)
			}
			if g.toggles != 1 {
				t.Errorf("toggles = %d, want 1", g.toggles)
			}
		})
	}

	t.Run("GET is not allowed", func(t *testing.T) {
		s := New(Config{Game: &fakeGame{}})
		req := httptest.NewRequest(http.MethodGet, "/api/game/pause", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestLandmarksHandler_Dispatch(t *testing.T) {
	g := &fakeGame{}
	h := NewLandmarksHandler(g)

	h.dispatch(IngestMessage{Type: MessageHands, Hands: []detector.HandLandmarks{detector.SlicingHand(0.5, 0.5)}})
	h.dispatch(IngestMessage{Type: MessagePointer, X: 10, Y: 20})
	h.dispatch(IngestMessage{Type: MessageLeave})
	h.dispatch(IngestMessage{Type: MessageResize, Width: 800, Height: 600})
	h.dispatch(IngestMessage{Type: "bogus"})

	if len(g.hands) != 1 || len(g.hands[0]) != 1 {
		t.Errorf("expected one pushed hand set, got %v", g.hands)
	}
	if len(g.pointers) != 1 || g.pointers[0] != [2]float64{10, 20} {
		t.Errorf("unexpected pointers %v", g.pointers)
	}
	if g.leaves != 1 {
		t.Errorf("pointer leaves = %d, want 1", g.leaves)
	}
	if len(g.sizes) != 1 || g.sizes[0] != [2]float64{800, 600} {
		t.Errorf("unexpected sizes %v", g.sizes)
	}
}

func TestStreamHandler_ClosedCamera(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	s := New(Config{Camera: cam})

	req := httptest.NewRequest(http.MethodGet, "/api/camera", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}
