package tracking

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/pool"
)

// RuntimeLookup resolves the runtime in minutes of a single episode. It is
// the only remote collaborator the statistics aggregation depends on.
type RuntimeLookup interface {
	EpisodeRuntime(ctx context.Context, seriesID, season, number int) (int, error)
}

// SeriesWatchtime is one row of the ranked statistics view.
type SeriesWatchtime struct {
	SeriesID        int    `json:"seriesId"`
	Name            string `json:"name"`
	EpisodesWatched int    `json:"episodesWatched"`
	TotalMinutes    int    `json:"totalMinutes"`
	AverageMinutes  int    `json:"averageMinutes"`
}

// Statistics joins the store's series collection with per-episode runtime
// data fetched on demand.
type Statistics struct {
	store    *Store
	runtimes RuntimeLookup
}

func NewStatistics(store *Store, runtimes RuntimeLookup) *Statistics {
	return &Statistics{store: store, runtimes: runtimes}
}

// TotalAverageWatchtime aggregates the watched episodes of one series with
// their fetched runtimes into total and average minutes figures.
func (s *Statistics) TotalAverageWatchtime(ctx context.Context, series *Series) (SeriesWatchtime, error) {
	result := SeriesWatchtime{SeriesID: series.ID, Name: series.Name()}

	for _, season := range series.SeasonSnapshots() {
		for _, number := range season.WatchedEpisodes() {
			minutes, err := s.runtimes.EpisodeRuntime(ctx, series.ID, season.Number, number)
			if err != nil {
				return SeriesWatchtime{}, err
			}
			result.TotalMinutes += minutes
			result.EpisodesWatched++
		}
	}

	if result.EpisodesWatched > 0 {
		result.AverageMinutes = result.TotalMinutes / result.EpisodesWatched
	}
	return result, nil
}

// RankedSeries computes watch-time figures for every tracked series, one
// task per series, and returns them sorted by average minutes descending.
// The join is all-or-nothing: a single failed series aborts the whole
// aggregate rather than producing a partial ranking.
func (s *Statistics) RankedSeries(ctx context.Context) ([]SeriesWatchtime, error) {
	p := pool.NewWithResults[SeriesWatchtime]().WithErrors().WithContext(ctx)
	for _, series := range s.store.GetSeriesCollection() {
		series := series
		p.Go(func(ctx context.Context) (SeriesWatchtime, error) {
			return s.TotalAverageWatchtime(ctx, series)
		})
	}
	ranked, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AverageMinutes == ranked[j].AverageMinutes {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].AverageMinutes > ranked[j].AverageMinutes
	})
	return ranked, nil
}
