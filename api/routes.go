package api

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"showtrack/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogMiddleware tags each request with an id and logs its duration.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[api] %s %s %s (%s)", requestID[:8], r.Method, r.URL.Path, time.Since(start))
	})
}

// RegisterRoutes wires all API routes onto the router.
func RegisterRoutes(
	r *mux.Router,
	catalogHandler *handlers.CatalogHandler,
	trackingHandler *handlers.TrackingHandler,
	statisticsHandler *handlers.StatisticsHandler,
) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsMiddleware)
	apiRouter.Use(requestLogMiddleware)

	// Episode catalog (read-only, cache-or-fetch backed)
	apiRouter.HandleFunc("/series/{seriesID}/episodes", catalogHandler.ListEpisodes).Methods(http.MethodGet)
	apiRouter.HandleFunc("/series/{seriesID}/seasons", catalogHandler.ListSeasons).Methods(http.MethodGet)
	apiRouter.HandleFunc("/series/{seriesID}/seasons/{season}/episodes", catalogHandler.SeasonEpisodes).Methods(http.MethodGet)
	apiRouter.HandleFunc("/series/{seriesID}/next-episode", catalogHandler.NextEpisode).Methods(http.MethodGet)
	apiRouter.HandleFunc("/series/{seriesID}/previous-episode", catalogHandler.PreviousEpisode).Methods(http.MethodGet)

	// Watch tracking
	apiRouter.HandleFunc("/tracked", trackingHandler.ListTracked).Methods(http.MethodGet)
	apiRouter.HandleFunc("/tracked/{seriesID}", trackingHandler.GetTracked).Methods(http.MethodGet)
	apiRouter.HandleFunc("/tracked/{seriesID}", trackingHandler.TrackSeries).Methods(http.MethodPost)
	apiRouter.HandleFunc("/tracked/{seriesID}", trackingHandler.UntrackSeries).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/tracked/{seriesID}/seasons/{season}", trackingHandler.AddSeason).Methods(http.MethodPut)
	apiRouter.HandleFunc("/tracked/{seriesID}/seasons/{season}", trackingHandler.RemoveSeason).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/tracked/{seriesID}/seasons/{season}/toggle", trackingHandler.ToggleSeason).Methods(http.MethodPost)
	apiRouter.HandleFunc("/tracked/{seriesID}/seasons/{season}/episodes/{episode}", trackingHandler.TrackEpisode).Methods(http.MethodPut)
	apiRouter.HandleFunc("/tracked/{seriesID}/seasons/{season}/episodes/{episode}", trackingHandler.UntrackEpisode).Methods(http.MethodDelete)

	// Statistics
	apiRouter.HandleFunc("/statistics/watchtime", statisticsHandler.Watchtime).Methods(http.MethodGet)
}
