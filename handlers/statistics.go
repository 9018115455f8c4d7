package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"showtrack/services/tracking"
)

type statisticsService interface {
	RankedSeries(ctx context.Context) ([]tracking.SeriesWatchtime, error)
}

var _ statisticsService = (*tracking.Statistics)(nil)

type StatisticsHandler struct {
	Service statisticsService
}

func NewStatisticsHandler(service statisticsService) *StatisticsHandler {
	return &StatisticsHandler{Service: service}
}

// Watchtime returns every tracked series with its aggregated watch-time
// figures, ranked by average minutes. The aggregation is all-or-nothing, so
// a single failed series yields an error rather than a partial ranking.
func (h *StatisticsHandler) Watchtime(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.Service.RankedSeries(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if ranked == nil {
		ranked = []tracking.SeriesWatchtime{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ranked)
}
