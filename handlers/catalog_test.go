package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"showtrack/handlers"
	"showtrack/models"
)

func TestCatalogHandler_NextEpisode(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	future := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	svc := &fakeCatalogService{episodes: []models.Episode{
		{Season: 1, Number: intPtr(1), Name: "Aired", Airstamp: past},
		{Season: 1, Number: intPtr(2), Name: "Upcoming", Airstamp: future},
	}}
	handler := handlers.NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/series/42/next-episode", nil)
	req = mux.SetURLVars(req, map[string]string{"seriesID": "42"})
	rec := httptest.NewRecorder()

	handler.NextEpisode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Episode     models.Episode `json:"episode"`
		Remaining   string         `json:"remaining"`
		ReleaseTime string         `json:"releaseTime"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Episode.Name != "Upcoming" {
		t.Fatalf("unexpected next episode %q", response.Episode.Name)
	}
	if response.Remaining == "" {
		t.Fatal("expected a non-empty remaining-time string")
	}
	if response.ReleaseTime == "" {
		t.Fatal("expected a rendered release time")
	}
}

func TestCatalogHandler_NextEpisodeNoneUpcoming(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	svc := &fakeCatalogService{episodes: []models.Episode{
		{Season: 1, Number: intPtr(1), Airstamp: past},
	}}
	handler := handlers.NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/series/42/next-episode", nil)
	req = mux.SetURLVars(req, map[string]string{"seriesID": "42"})
	rec := httptest.NewRecorder()

	handler.NextEpisode(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestCatalogHandler_FetchFailureIsBadGateway(t *testing.T) {
	svc := &fakeCatalogService{err: errors.New("remote unavailable")}
	handler := handlers.NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/series/42/episodes", nil)
	req = mux.SetURLVars(req, map[string]string{"seriesID": "42"})
	rec := httptest.NewRecorder()

	handler.ListEpisodes(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestCatalogHandler_SeasonsAscending(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	svc := &fakeCatalogService{episodes: []models.Episode{
		{Season: 2, Number: intPtr(1), Airstamp: past},
		{Season: 1, Number: intPtr(1), Airstamp: past},
	}}
	handler := handlers.NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/series/42/seasons", nil)
	req = mux.SetURLVars(req, map[string]string{"seriesID": "42"})
	rec := httptest.NewRecorder()

	handler.ListSeasons(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var response []models.SeasonEpisodeCount
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 2 || response[0].Season != 1 || response[1].Season != 2 {
		t.Fatalf("seasons not ascending: %+v", response)
	}
}
