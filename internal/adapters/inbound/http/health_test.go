package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// mockHealthChecker is a test implementation of HealthChecker
type mockHealthChecker struct {
	ready   bool
	healthy bool
}

func (m *mockHealthChecker) IsReady() bool   { return m.ready }
func (m *mockHealthChecker) IsHealthy() bool { return m.healthy }

func newTestHealthServer(ready, healthy, shuttingDown bool) *HealthServer {
	checker := &mockHealthChecker{ready: ready, healthy: healthy}
	var down atomic.Bool
	down.Store(shuttingDown)
	return NewHealthServer(HealthServerConfig{Addr: ":0"}, checker, &down)
}

func probe(hs *HealthServer, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	hs.server.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthServer_Ready(t *testing.T) {
	tests := []struct {
		name         string
		ready        bool
		shuttingDown bool
		wantStatus   int
		wantBody     string
	}{
		{"ready returns 200", true, false, http.StatusOK, "ready"},
		{"not ready returns 503", false, false, http.StatusServiceUnavailable, "not_ready"},
		{"shutting down returns 503", true, true, http.StatusServiceUnavailable, "shutting_down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newTestHealthServer(tt.ready, true, tt.shuttingDown)

			w := probe(hs, "/health/ready")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if body["status"] != tt.wantBody {
				t.Errorf("status field = %q, want %q", body["status"], tt.wantBody)
			}
		})
	}
}

func TestHealthServer_Live(t *testing.T) {
	tests := []struct {
		name         string
		healthy      bool
		shuttingDown bool
		wantStatus   int
	}{
		{"healthy returns 200", true, false, http.StatusOK},
		{"unhealthy returns 503", false, false, http.StatusServiceUnavailable},
		{"shutting down returns 503", true, true, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newTestHealthServer(true, tt.healthy, tt.shuttingDown)

			w := probe(hs, "/health/live")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHealthServer_Combined(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		healthy    bool
		wantStatus int
		wantState  string
	}{
		{"ready and healthy", true, true, http.StatusOK, "ok"},
		{"not ready", false, true, http.StatusServiceUnavailable, "degraded"},
		{"not healthy", true, false, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newTestHealthServer(tt.ready, tt.healthy, false)

			w := probe(hs, "/health")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if body["status"] != tt.wantState {
				t.Errorf("status field = %v, want %q", body["status"], tt.wantState)
			}
			if body["ready"] != tt.ready {
				t.Errorf("ready field = %v, want %v", body["ready"], tt.ready)
			}
		})
	}
}
