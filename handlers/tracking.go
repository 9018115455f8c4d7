package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"showtrack/services/tracking"
)

type TrackingHandler struct {
	Store    *tracking.Store
	Catalogs catalogService
}

func NewTrackingHandler(store *tracking.Store, catalogs catalogService) *TrackingHandler {
	return &TrackingHandler{Store: store, Catalogs: catalogs}
}

// seriesSummary is the read shape of one tracked series.
type seriesSummary struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	EpisodesWatched int             `json:"episodesWatched"`
	Seasons         []seasonSummary `json:"seasons"`
}

type seasonSummary struct {
	Number          int   `json:"number"`
	EpisodesWatched int   `json:"episodesWatched"`
	EpisodeOrder    int   `json:"episodeOrder,omitempty"`
	FullyTracked    bool  `json:"fullyTracked"`
	Watched         []int `json:"watched"`
}

func summarize(series *tracking.Series) seriesSummary {
	summary := seriesSummary{
		ID:              series.ID,
		Name:            series.Name(),
		EpisodesWatched: series.TotalEpisodesWatched(),
		Seasons:         []seasonSummary{},
	}
	for _, season := range series.SeasonSnapshots() {
		summary.Seasons = append(summary.Seasons, seasonSummary{
			Number:          season.Number,
			EpisodesWatched: season.EpisodesWatched(),
			EpisodeOrder:    season.EpisodeOrder,
			FullyTracked:    season.FullyTracked(),
			Watched:         season.WatchedEpisodes(),
		})
	}
	return summary
}

func (h *TrackingHandler) ListTracked(w http.ResponseWriter, r *http.Request) {
	collection := h.Store.GetSeriesCollection()
	summaries := make([]seriesSummary, 0, len(collection))
	for _, series := range collection {
		summaries = append(summaries, summarize(series))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

func (h *TrackingHandler) GetTracked(w http.ResponseWriter, r *http.Request) {
	series, ok := h.requireSeries(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summarize(series))
}

// TrackSeries creates (or renames) a tracked series record.
func (h *TrackingHandler) TrackSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := pathInt(w, r, "seriesID")
	if !ok {
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	series := h.Store.GetSeries(seriesID)
	if series == nil {
		series = h.Store.NewSeries(payload.Name, seriesID)
	} else {
		series.SetName(payload.Name)
	}
	if err := series.Update(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summarize(series))
}

func (h *TrackingHandler) UntrackSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := pathInt(w, r, "seriesID")
	if !ok {
		return
	}

	if err := h.Store.RemoveSeries(seriesID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSeason records a season as tracked without pre-populating watched
// episodes. An optional episodeOrder declares the expected count.
func (h *TrackingHandler) AddSeason(w http.ResponseWriter, r *http.Request) {
	series, ok := h.requireSeries(w, r)
	if !ok {
		return
	}
	season, ok := pathInt(w, r, "season")
	if !ok {
		return
	}

	var payload struct {
		EpisodeOrder int `json:"episodeOrder"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	series.AddSeason(season)
	if payload.EpisodeOrder > 0 {
		series.SetEpisodeOrder(season, payload.EpisodeOrder)
	}
	if err := series.Update(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summarize(series))
}

func (h *TrackingHandler) RemoveSeason(w http.ResponseWriter, r *http.Request) {
	series, ok := h.requireSeries(w, r)
	if !ok {
		return
	}
	season, ok := pathInt(w, r, "season")
	if !ok {
		return
	}

	series.RemoveSeason(season)
	if err := series.Update(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TrackEpisode marks one episode as watched and persists before responding.
// The response carries the newly-added signal so clients can roll back an
// optimistic mark when a dependent step fails.
func (h *TrackingHandler) TrackEpisode(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := pathInt(w, r, "seriesID")
	if !ok {
		return
	}
	season, ok := pathInt(w, r, "season")
	if !ok {
		return
	}
	episode, ok := pathInt(w, r, "episode")
	if !ok {
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	series := h.Store.GetSeries(seriesID)
	if series == nil {
		if strings.TrimSpace(payload.Name) == "" {
			http.Error(w, "series is not tracked; name is required to start tracking", http.StatusBadRequest)
			return
		}
		series = h.Store.NewSeries(payload.Name, seriesID)
	}

	added, err := series.AddEpisode(season, episode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"newlyAdded": added})
}

func (h *TrackingHandler) UntrackEpisode(w http.ResponseWriter, r *http.Request) {
	series, ok := h.requireSeries(w, r)
	if !ok {
		return
	}
	season, ok := pathInt(w, r, "season")
	if !ok {
		return
	}
	episode, ok := pathInt(w, r, "episode")
	if !ok {
		return
	}

	series.UntrackEpisode(season, episode)
	if err := series.Update(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSeason mirrors the season checkbox: when every watchable episode of
// the season is watched the season is removed; otherwise every watchable
// episode is tracked and the watchable count becomes the declared order.
func (h *TrackingHandler) ToggleSeason(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := pathInt(w, r, "seriesID")
	if !ok {
		return
	}
	season, ok := pathInt(w, r, "season")
	if !ok {
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	c, err := h.Catalogs.Load(r.Context(), seriesID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	var watchable []int
	for _, e := range c.SeasonEpisodes(season) {
		if isWatchable, ok := c.IsEpisodeWatchable(e); ok && isWatchable && e.Number != nil {
			watchable = append(watchable, *e.Number)
		}
	}

	series := h.Store.GetSeries(seriesID)
	if series == nil {
		if strings.TrimSpace(payload.Name) == "" {
			http.Error(w, "series is not tracked; name is required to start tracking", http.StatusBadRequest)
			return
		}
		series = h.Store.NewSeries(payload.Name, seriesID)
	}

	if series.EpisodesWatched(season) == len(watchable) && len(watchable) > 0 {
		series.RemoveSeason(season)
	} else {
		series.AddSeason(season)
		series.SetEpisodeOrder(season, len(watchable))
		for _, number := range watchable {
			series.TrackEpisode(season, number)
		}
	}

	if err := series.Update(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summarize(series))
}

func (h *TrackingHandler) requireSeries(w http.ResponseWriter, r *http.Request) (*tracking.Series, bool) {
	seriesID, ok := pathInt(w, r, "seriesID")
	if !ok {
		return nil, false
	}
	series := h.Store.GetSeries(seriesID)
	if series == nil {
		http.Error(w, "series is not tracked", http.StatusNotFound)
		return nil, false
	}
	return series, true
}
