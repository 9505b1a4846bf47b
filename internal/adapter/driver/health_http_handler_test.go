package driver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/alorle/iptv-guide/internal/adapter/driven"
	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/logging"
)

// mockCachePinger is a mock cache backend for health check testing.
type mockCachePinger struct {
	pingFunc func(ctx context.Context) error
}

func (m *mockCachePinger) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// mockBreakers reports fixed circuit breaker states.
type mockBreakers map[string]string

func (m mockBreakers) BreakerStates() map[string]string { return m }

func TestHealthHTTPHandler_ServeHTTP(t *testing.T) {
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "health.db"), 0600, nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer db.Close()

	store, err := driven.NewPlaylistBoltDBStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	tests := []struct {
		name       string
		cachePing  error
		breakers   mockBreakers
		wantCode   int
		wantStatus string
		wantCache  string
	}{
		{
			name:       "all dependencies healthy",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantCache:  "ok",
		},
		{
			name:       "cache unreachable",
			cachePing:  errors.New("dial tcp: connection refused"),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantCache:  "error",
		},
		{
			name:       "open upstream breaker is reported only",
			breakers:   mockBreakers{"example.com": "OPEN"},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantCache:  "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pinger := &mockCachePinger{pingFunc: func(ctx context.Context) error { return tt.cachePing }}
			service := application.NewHealthService(store, pinger, tt.breakers, logging.Discard())
			handler := NewHealthHTTPHandler(service, logging.Discard())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}

			var resp healthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
			if resp.DB != "ok" {
				t.Errorf("expected db 'ok', got %q", resp.DB)
			}
			if resp.Cache != tt.wantCache {
				t.Errorf("expected cache %q, got %q", tt.wantCache, resp.Cache)
			}
			for host, state := range tt.breakers {
				if resp.Upstream[host] != state {
					t.Errorf("expected upstream %s %q, got %q", host, state, resp.Upstream[host])
				}
			}
		})
	}
}
