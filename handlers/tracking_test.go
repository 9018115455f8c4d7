package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"showtrack/handlers"
	"showtrack/models"
	"showtrack/services/catalog"
	"showtrack/services/tracking"
)

type fakeCatalogService struct {
	episodes []models.Episode
	err      error
}

func (f *fakeCatalogService) Load(ctx context.Context, seriesID int) (*catalog.Catalog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return catalog.New(f.episodes), nil
}

func intPtr(n int) *int { return &n }

func openStore(t *testing.T) *tracking.Store {
	t.Helper()
	store, err := tracking.Open(filepath.Join(t.TempDir(), "tracking.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTrackingHandler_TrackEpisodeReportsNewlyAdded(t *testing.T) {
	store := openStore(t)
	handler := handlers.NewTrackingHandler(store, &fakeCatalogService{})

	vars := map[string]string{"seriesID": "100", "season": "1", "episode": "3"}
	body, _ := json.Marshal(map[string]string{"name": "Dark"})

	do := func() map[string]bool {
		req := httptest.NewRequest(http.MethodPut, "/tracked/100/seasons/1/episodes/3", bytes.NewReader(body))
		req = mux.SetURLVars(req, vars)
		rec := httptest.NewRecorder()
		handler.TrackEpisode(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
		}
		var response map[string]bool
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return response
	}

	if response := do(); !response["newlyAdded"] {
		t.Fatal("first track must report newlyAdded=true")
	}
	if response := do(); response["newlyAdded"] {
		t.Fatal("repeated track must report newlyAdded=false")
	}

	series := store.GetSeries(100)
	if series == nil || !series.IsEpisodeWatched(1, 3) {
		t.Fatal("episode not recorded in store")
	}
}

func TestTrackingHandler_UntrackedSeriesIs404(t *testing.T) {
	store := openStore(t)
	handler := handlers.NewTrackingHandler(store, &fakeCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/tracked/999", nil)
	req = mux.SetURLVars(req, map[string]string{"seriesID": "999"})
	rec := httptest.NewRecorder()

	handler.GetTracked(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestTrackingHandler_ToggleSeason(t *testing.T) {
	store := openStore(t)

	past := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	future := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	catalogs := &fakeCatalogService{episodes: []models.Episode{
		{Season: 1, Number: intPtr(1), Airstamp: past},
		{Season: 1, Number: intPtr(2), Airstamp: past},
		{Season: 1, Number: intPtr(3), Airstamp: future},
	}}
	handler := handlers.NewTrackingHandler(store, catalogs)

	toggle := func() *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"name": "Dark"})
		req := httptest.NewRequest(http.MethodPost, "/tracked/100/seasons/1/toggle", bytes.NewReader(body))
		req = mux.SetURLVars(req, map[string]string{"seriesID": "100", "season": "1"})
		rec := httptest.NewRecorder()
		handler.ToggleSeason(rec, req)
		return rec
	}

	// First toggle tracks every watchable episode and declares the order.
	if rec := toggle(); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	series := store.GetSeries(100)
	if series == nil {
		t.Fatal("series not created by toggle")
	}
	if got := series.EpisodesWatched(1); got != 2 {
		t.Fatalf("expected the 2 watchable episodes tracked, got %d", got)
	}
	if series.IsEpisodeWatched(1, 3) {
		t.Fatal("a future episode must not be tracked")
	}
	season, ok := series.Season(1)
	if !ok || season.EpisodeOrder != 2 {
		t.Fatalf("expected declared order 2, got %+v", season)
	}

	// Second toggle removes the fully-tracked season.
	if rec := toggle(); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := store.GetSeries(100).Season(1); ok {
		t.Fatal("fully tracked season must be removed by the second toggle")
	}
}

func TestTrackingHandler_UntrackEpisodePersists(t *testing.T) {
	store := openStore(t)
	series := store.NewSeries("Dark", 100)
	if _, err := series.AddEpisode(1, 1); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	handler := handlers.NewTrackingHandler(store, &fakeCatalogService{})

	req := httptest.NewRequest(http.MethodDelete, "/tracked/100/seasons/1/episodes/1", nil)
	req = mux.SetURLVars(req, map[string]string{"seriesID": "100", "season": "1", "episode": "1"})
	rec := httptest.NewRecorder()

	handler.UntrackEpisode(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if store.GetSeries(100).IsEpisodeWatched(1, 1) {
		t.Fatal("episode still marked watched")
	}
}
