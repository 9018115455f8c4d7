package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"showtrack/models"
	"showtrack/services/catalog"
)

type catalogService interface {
	Load(ctx context.Context, seriesID int) (*catalog.Catalog, error)
}

var _ catalogService = (*catalog.Service)(nil)

type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{Service: service}
}

// episodeListResponse is the payload for a full catalog request.
type episodeListResponse struct {
	Episodes       []models.Episode `json:"episodes"`
	TotalWatchable int              `json:"totalWatchable"`
}

// nextEpisodeResponse pairs the next episode with its release information.
type nextEpisodeResponse struct {
	Episode     models.Episode `json:"episode"`
	Remaining   string         `json:"remaining,omitempty"`
	ReleaseTime string         `json:"releaseTime"`
}

func (h *CatalogHandler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCatalog(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episodeListResponse{
		Episodes:       c.Episodes(),
		TotalWatchable: c.TotalWatchableEpisodes(),
	})
}

func (h *CatalogHandler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCatalog(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c.SeasonNumbersWithTotalEpisodes())
}

func (h *CatalogHandler) SeasonEpisodes(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCatalog(w, r)
	if !ok {
		return
	}

	season, ok := pathInt(w, r, "season")
	if !ok {
		return
	}

	episodes := c.SeasonEpisodes(season)
	if episodes == nil {
		episodes = []models.Episode{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episodes)
}

func (h *CatalogHandler) NextEpisode(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCatalog(w, r)
	if !ok {
		return
	}

	episode, releaseTime, ok := c.NextEpisodeAndTime()
	if !ok {
		http.Error(w, "no upcoming episode", http.StatusNotFound)
		return
	}

	resp := nextEpisodeResponse{
		Episode:     episode,
		ReleaseTime: releaseTime.FullDateAndTime(),
	}
	if remaining, ok := releaseTime.Remaining(time.Now()); ok {
		resp.Remaining = remaining
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *CatalogHandler) PreviousEpisode(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCatalog(w, r)
	if !ok {
		return
	}

	episode, ok := c.PreviousEpisode()
	if !ok {
		http.Error(w, "no previous episode", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episode)
}

func (h *CatalogHandler) loadCatalog(w http.ResponseWriter, r *http.Request) (*catalog.Catalog, bool) {
	seriesID, ok := pathInt(w, r, "seriesID")
	if !ok {
		return nil, false
	}

	c, err := h.Service.Load(r.Context(), seriesID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return nil, false
	}
	return c, true
}

// pathInt extracts an integer path variable, writing a 400 on failure.
func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		http.Error(w, name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return value, true
}
