package driver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.etcd.io/bbolt"

	"github.com/alorle/iptv-guide/cache"
	"github.com/alorle/iptv-guide/fetcher"
	"github.com/alorle/iptv-guide/internal/adapter/driven"
	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/internal/parser"
	"github.com/alorle/iptv-guide/logging"
)

const testM3U = `#EXTM3U
#EXTINF:-1 tvg-id="bbc1.uk" group-title="News",BBC One
http://example.com/bbc1.m3u8
#EXTINF:-1,Channel Four
http://example.com/c4.m3u8
`

const testGuide = `<tv>
  <programme start="20250728120000 +0000" stop="20250728130000 +0000" channel="bbc1.uk"><title>News</title></programme>
</tv>`

// newTestRouter wires every handler against a temporary BoltDB store and a
// fetcher serving documents from memory
func newTestRouter(t *testing.T, documents map[string]string) *mux.Router {
	t.Helper()
	logger := logging.Discard()

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := driven.NewPlaylistBoltDBStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	f := &fetcher.MockFetcher{
		FetchFunc: func(ctx context.Context, url string) (string, error) {
			if content, ok := documents[url]; ok {
				return content, nil
			}
			return "", &fetcher.Error{URL: url, Kind: fetcher.KindNetwork, Err: errors.New("connection refused")}
		},
	}

	remoteConfigPath := filepath.Join(t.TempDir(), "remote.yaml")
	if err := os.WriteFile(remoteConfigPath, []byte("ads_url: http://example.com/ads.json\n"), 0644); err != nil {
		t.Fatalf("failed to write remote config: %v", err)
	}

	storage, err := cache.NewMemoryStorage(16)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	ingest, err := application.NewIngestService(f, parser.NewService(logger), store, application.IngestOptions{Workers: 2, AutoFetchEPG: true}, logger)
	if err != nil {
		t.Fatalf("failed to create ingest service: %v", err)
	}
	t.Cleanup(ingest.Close)

	guide := application.NewGuideService(store)
	promotions := application.NewPromotionService(
		driven.NewRemoteConfigYAML(remoteConfigPath),
		f,
		cache.NewRemote[[]application.Promotion](storage, 300*time.Second, logger),
		logger,
	)

	return NewRouter(logger,
		NewPlaylistHTTPHandler(ingest, application.NewPlaylistService(store), guide, logger),
		NewSelectionHTTPHandler(guide, logger),
		NewPromotionHTTPHandler(promotions, logger),
		NewHealthHTTPHandler(application.NewHealthService(store, nil, nil, logger), logger),
	)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func ingestBody(t *testing.T, fields map[string]string) string {
	t.Helper()
	b, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	return string(b)
}

func TestPlaylistRoutes(t *testing.T) {
	router := newTestRouter(t, map[string]string{
		"http://example.com/list.m3u": testM3U,
		"http://example.com/epg.xml":  testGuide,
	})

	rec := doRequest(t, router, http.MethodPost, "/api/playlists", ingestBody(t, map[string]string{
		"id":      "uk",
		"name":    "UK",
		"url":     "http://example.com/list.m3u",
		"epg_url": "http://example.com/epg.xml",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/playlists: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[ingestResponse](t, rec)
	if created.Channels != 2 || created.Programs != 1 || created.Format != "m3u" {
		t.Errorf("unexpected ingest response: %+v", created)
	}

	t.Run("GET /api/playlists lists summaries", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/playlists", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		list := decode[[]summaryResponse](t, rec)
		if len(list) != 1 || list[0].ID != "uk" || list[0].Name != "UK" || list[0].ChannelCount != 2 {
			t.Errorf("unexpected summaries: %+v", list)
		}
	})

	t.Run("GET /api/playlists/{id} returns the playlist", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/playlists/uk", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		p := decode[playlistResponse](t, rec)
		if len(p.Channels) != 2 || p.Channels[0].EPGID != "bbc1.uk" || p.EPGURL != "http://example.com/epg.xml" {
			t.Errorf("unexpected playlist: %+v", p)
		}
		if len(p.Groups) != 1 || p.Groups[0].ID != "news" {
			t.Errorf("unexpected groups: %+v", p.Groups)
		}
	})

	t.Run("GET channels returns program counts", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/playlists/uk/channels", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		views := decode[[]channelWithCountResponse](t, rec)
		if len(views) != 2 || views[0].ProgramCount != 1 || views[1].ProgramCount != 0 {
			t.Errorf("unexpected channel views: %+v", views)
		}
	})

	t.Run("GET now returns the airing program", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/playlists/uk/channels/bbc1.uk/now?at=2025-07-28T12:30:00Z", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if p := decode[programResponse](t, rec); p.Title != "News" || p.Start != "2025-07-28T12:00:00Z" {
			t.Errorf("unexpected program: %+v", p)
		}
	})

	t.Run("GET now without an airing program returns null", func(t *testing.T) {
		views := decode[[]channelWithCountResponse](t, doRequest(t, router, http.MethodGet, "/api/playlists/uk/channels", ""))
		if len(views) != 2 {
			t.Fatalf("expected 2 channels, got %d", len(views))
		}
		paths := []string{
			"/api/playlists/uk/channels/bbc1.uk/now?at=2025-07-28T15:00:00Z",
			"/api/playlists/uk/channels/" + views[1].ID + "/now?at=2025-07-28T12:30:00Z",
		}
		for _, path := range paths {
			rec := doRequest(t, router, http.MethodGet, path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
			}
			if body := strings.TrimSpace(rec.Body.String()); body != "null" {
				t.Errorf("%s: expected null program, got %s", path, body)
			}
		}
	})

	t.Run("GET now errors", func(t *testing.T) {
		tests := []struct {
			name string
			path string
			want int
		}{
			{"unknown playlist", "/api/playlists/fr/channels/bbc1.uk/now?at=2025-07-28T12:30:00Z", http.StatusNotFound},
			{"unknown channel", "/api/playlists/uk/channels/nope/now?at=2025-07-28T12:30:00Z", http.StatusNotFound},
			{"invalid instant", "/api/playlists/uk/channels/bbc1.uk/now?at=yesterday", http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if rec := doRequest(t, router, http.MethodGet, tt.path, ""); rec.Code != tt.want {
					t.Errorf("expected %d, got %d", tt.want, rec.Code)
				}
			})
		}
	})

	t.Run("GET playlist.m3u exports the playlist", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/playlists/uk/playlist.m3u", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "audio/mpegurl" {
			t.Errorf("expected Content-Type 'audio/mpegurl', got %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "http://example.com/c4.m3u8") {
			t.Errorf("export is missing a channel: %s", rec.Body.String())
		}
	})

	t.Run("DELETE removes the playlist", func(t *testing.T) {
		if rec := doRequest(t, router, http.MethodDelete, "/api/playlists/uk", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec := doRequest(t, router, http.MethodGet, "/api/playlists/uk", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", rec.Code)
		}
		if rec := doRequest(t, router, http.MethodDelete, "/api/playlists/uk", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 on second delete, got %d", rec.Code)
		}
	})
}

func TestIngestErrors(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"missing id", ingestBody(t, map[string]string{"content": testM3U}), http.StatusBadRequest},
		{"unknown format", ingestBody(t, map[string]string{"id": "x", "content": testM3U, "format": "pls"}), http.StatusBadRequest},
		{"unrecognized content", ingestBody(t, map[string]string{"id": "x", "content": "hello"}), http.StatusUnprocessableEntity},
		{"declared format mismatch", ingestBody(t, map[string]string{"id": "x", "content": testM3U, "format": "json"}), http.StatusUnprocessableEntity},
		{"unreachable source", ingestBody(t, map[string]string{"id": "x", "url": "http://example.com/down.m3u"}), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/playlists", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON error, got Content-Type %q", ct)
			}
		})
	}

	if rec := doRequest(t, router, http.MethodGet, "/api/playlists", ""); len(decode[[]summaryResponse](t, rec)) != 0 {
		t.Error("failed ingestions must not store anything")
	}
}

func TestSelectionRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	if rec := doRequest(t, router, http.MethodGet, "/api/selection", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET without selection: expected 404, got %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPut, "/api/selection", `{"playlist_id":"uk"}`); rec.Code != http.StatusNotFound {
		t.Errorf("PUT unknown playlist: expected 404, got %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPut, "/api/selection", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("PUT without id: expected 400, got %d", rec.Code)
	}

	body := ingestBody(t, map[string]string{"id": "uk", "content": testM3U})
	if rec := doRequest(t, router, http.MethodPost, "/api/playlists", body); rec.Code != http.StatusCreated {
		t.Fatalf("ingest failed: %d %s", rec.Code, rec.Body.String())
	}

	if rec := doRequest(t, router, http.MethodPut, "/api/selection", `{"playlist_id":"uk"}`); rec.Code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d", rec.Code)
	}
	rec := doRequest(t, router, http.MethodGet, "/api/selection", "")
	if got := decode[selectionBody](t, rec); rec.Code != http.StatusOK || got.PlaylistID != "uk" {
		t.Errorf("GET: expected uk, got %d %+v", rec.Code, got)
	}
	if rec := doRequest(t, router, http.MethodDelete, "/api/selection", ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE: expected 204, got %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/api/selection", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after clear: expected 404, got %d", rec.Code)
	}
}

func TestPromotionRoutes(t *testing.T) {
	router := newTestRouter(t, map[string]string{
		"http://example.com/ads.json": `{"total":1,"data":[{"_id":"a1","title":"Antenna","ctaUrl":"http://shop/a1"}]}`,
	})

	rec := doRequest(t, router, http.MethodGet, "/api/promotions/banner", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[promotionsResponse](t, rec)
	if len(resp.Data) != 1 || resp.Data[0].CTAURL != "http://shop/a1" || resp.Cache != cache.OutcomeMiss {
		t.Errorf("unexpected response: %+v", resp)
	}

	// ads_video is not published: served empty rather than failing
	rec = doRequest(t, router, http.MethodGet, "/api/promotions/video", "")
	if rec.Code != http.StatusOK || len(decode[promotionsResponse](t, rec).Data) != 0 {
		t.Errorf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := doRequest(t, router, http.MethodGet, "/api/promotions/popup", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown kind: expected 404, got %d", rec.Code)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decode[healthResponse](t, rec); resp.Status != "ok" || resp.DB != "ok" {
		t.Errorf("unexpected health: %+v", resp)
	}

	rec = doRequest(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected the default registry to be exported")
	}
}

func TestUnknownRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	if rec := doRequest(t, router, http.MethodGet, "/api/nothing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPatch, "/api/playlists", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
