package application

import (
	"context"
	"errors"
	"testing"

	"github.com/alorle/iptv-guide/logging"
)

type staticBreakers map[string]string

func (s staticBreakers) BreakerStates() map[string]string {
	return s
}

func TestHealthService_Check(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		cache      Pinger
		wantStatus string
		wantDB     string
		wantCache  string
	}{
		{"all healthy", nil, &mockPinger{}, "ok", "ok", "ok"},
		{"local cache", nil, nil, "ok", "ok", "ok"},
		{"database down", errors.New("database closed"), nil, "degraded", "error", "ok"},
		{"cache down", nil, &mockPinger{err: errors.New("redis: connection refused")}, "degraded", "ok", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockPlaylistStore{pingFunc: func(ctx context.Context) error { return tt.dbErr }}
			service := NewHealthService(store, tt.cache, staticBreakers{"example.com": "OPEN"}, logging.Discard())

			status := service.Check(context.Background())

			if status.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", status.Status, tt.wantStatus)
			}
			if status.DB.Status != tt.wantDB {
				t.Errorf("DB.Status = %q, want %q", status.DB.Status, tt.wantDB)
			}
			if status.Cache.Status != tt.wantCache {
				t.Errorf("Cache.Status = %q, want %q", status.Cache.Status, tt.wantCache)
			}
			if tt.dbErr != nil && status.DB.Error != tt.dbErr.Error() {
				t.Errorf("DB.Error = %q", status.DB.Error)
			}
			if status.Upstream["example.com"] != "OPEN" {
				t.Errorf("Upstream = %v", status.Upstream)
			}
		})
	}
}
