// Package catalog serves per-series ordered episode collections, populated
// through the file cache with a remote fallback, and answers timezone-aware
// watchability queries over them.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"showtrack/models"
	"showtrack/services/cache"
)

// Fetcher is the remote episode source. EpisodeList must return both the
// parsed episodes and the exact bytes fetched so the cache stores the
// untouched wire payload.
type Fetcher interface {
	EpisodeList(ctx context.Context, seriesID int) ([]models.Episode, []byte, error)
	Episode(ctx context.Context, seriesID, season, number int) (models.Episode, error)
}

// Service loads episode catalogs through the cache gateway with a network
// fallback. Concurrent loads of the same series share one in-flight fetch.
type Service struct {
	gateway *cache.Gateway
	fetcher Fetcher
	now     func() time.Time

	inflightMu sync.Mutex
	inflight   map[int]*inflightLoad
}

type inflightLoad struct {
	done    chan struct{}
	catalog *Catalog
	err     error
}

func NewService(gateway *cache.Gateway, fetcher Fetcher) *Service {
	return &Service{
		gateway:  gateway,
		fetcher:  fetcher,
		now:      time.Now,
		inflight: make(map[int]*inflightLoad),
	}
}

// Load returns the episode catalog for a series. Cache hits are served
// directly; a NotFound miss falls back to the remote fetch and writes the
// raw payload through; any other cache read error falls back to the fetch
// but leaves the existing entry untouched. A fetch failure is fatal for this
// call and is returned as-is; there is no retry.
func (s *Service) Load(ctx context.Context, seriesID int) (*Catalog, error) {
	s.inflightMu.Lock()
	if in, ok := s.inflight[seriesID]; ok {
		s.inflightMu.Unlock()
		select {
		case <-in.done:
			return in.catalog, in.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	in := &inflightLoad{done: make(chan struct{})}
	s.inflight[seriesID] = in
	s.inflightMu.Unlock()

	catalog, err := s.load(ctx, seriesID)

	in.catalog, in.err = catalog, err
	close(in.done)
	s.inflightMu.Lock()
	delete(s.inflight, seriesID)
	s.inflightMu.Unlock()

	return catalog, err
}

func (s *Service) load(ctx context.Context, seriesID int) (*Catalog, error) {
	id := fmt.Sprintf("%d", seriesID)

	raw, readErr := s.gateway.Read(cache.KindEpisodeList, id)
	if readErr != nil {
		log.Printf("[catalog] falling back online for episode list of series %d", seriesID)
		episodes, payload, err := s.fetcher.EpisodeList(ctx, seriesID)
		if err != nil {
			return nil, err
		}
		// Only a clean miss may write through; any other read error means
		// an existing entry is in a state we must not overwrite.
		if errors.Is(readErr, cache.ErrNotFound) {
			s.gateway.Write(cache.KindEpisodeList, id, payload)
		}
		return s.newCatalog(episodes), nil
	}

	var episodes []models.Episode
	if err := json.Unmarshal(raw, &episodes); err != nil {
		return nil, fmt.Errorf("decode cached episode list for series %d: %w", seriesID, err)
	}
	return s.newCatalog(episodes), nil
}

func (s *Service) newCatalog(episodes []models.Episode) *Catalog {
	return &Catalog{episodes: episodes, now: s.now}
}

// LoadSeasonEpisodes fetches every episode of a season, one task per episode
// number. The join is all-or-nothing: a single failed fetch aborts the whole
// batch. Results come back ordered by episode number.
func (s *Service) LoadSeasonEpisodes(ctx context.Context, seriesID, season int, numbers []int) ([]models.Episode, error) {
	p := pool.NewWithResults[models.Episode]().WithErrors().WithContext(ctx)
	for _, number := range numbers {
		number := number
		p.Go(func(ctx context.Context) (models.Episode, error) {
			return s.fetcher.Episode(ctx, seriesID, season, number)
		})
	}
	episodes, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(episodes, func(i, j int) bool {
		var a, b int
		if episodes[i].Number != nil {
			a = *episodes[i].Number
		}
		if episodes[j].Number != nil {
			b = *episodes[j].Number
		}
		return a < b
	})
	return episodes, nil
}

// Catalog is the ordered episode sequence of one series, non-decreasing by
// airstamp as served by the remote source. It is owned by its requester and
// read-only after construction.
type Catalog struct {
	episodes []models.Episode
	now      func() time.Time
}

// New builds a catalog over an already-fetched episode sequence.
func New(episodes []models.Episode) *Catalog {
	return &Catalog{episodes: episodes, now: time.Now}
}

// Episodes returns the full ordered sequence.
func (c *Catalog) Episodes() []models.Episode {
	return c.episodes
}

// Episode returns the episode with the exact (season, number) pair.
func (c *Catalog) Episode(season, number int) (models.Episode, bool) {
	for _, e := range c.episodes {
		if e.Season == season && e.Number != nil && *e.Number == number {
			return e, true
		}
	}
	return models.Episode{}, false
}

// SeasonEpisodes returns the episodes of one season, order preserved.
func (c *Catalog) SeasonEpisodes(season int) []models.Episode {
	var episodes []models.Episode
	for _, e := range c.episodes {
		if e.Season == season {
			episodes = append(episodes, e)
		}
	}
	return episodes
}

// TotalWatchableEpisodes counts the episodes whose watchability resolves to
// true.
func (c *Catalog) TotalWatchableEpisodes() int {
	count := 0
	for _, e := range c.episodes {
		if watchable, ok := c.IsEpisodeWatchable(e); ok && watchable {
			count++
		}
	}
	return count
}

// SeasonNumbersWithTotalEpisodes returns the distinct season numbers in
// ascending order, each paired with its {all, watchable} totals.
func (c *Catalog) SeasonNumbersWithTotalEpisodes() []models.SeasonEpisodeCount {
	seasons := c.seasonNumbers()
	counts := make([]models.SeasonEpisodeCount, 0, len(seasons))
	for _, season := range seasons {
		episodes := c.SeasonEpisodes(season)
		watchable := 0
		for _, e := range episodes {
			if w, ok := c.IsEpisodeWatchable(e); ok && w {
				watchable++
			}
		}
		counts = append(counts, models.SeasonEpisodeCount{
			Season: season,
			Totals: models.TotalEpisodes{All: len(episodes), Watchable: watchable},
		})
	}
	return counts
}

// SeasonNumbersWithTotalWatchableEpisodes returns the distinct season
// numbers in ascending order, each paired with its watchable episode count.
func (c *Catalog) SeasonNumbersWithTotalWatchableEpisodes() []models.SeasonWatchableCount {
	seasons := c.seasonNumbers()
	counts := make([]models.SeasonWatchableCount, 0, len(seasons))
	for _, season := range seasons {
		watchable := 0
		for _, e := range c.SeasonEpisodes(season) {
			if w, ok := c.IsEpisodeWatchable(e); ok && w {
				watchable++
			}
		}
		counts = append(counts, models.SeasonWatchableCount{Season: season, Watchable: watchable})
	}
	return counts
}

func (c *Catalog) seasonNumbers() []int {
	seen := make(map[int]struct{})
	var seasons []int
	for _, e := range c.episodes {
		if _, ok := seen[e.Season]; !ok {
			seen[e.Season] = struct{}{}
			seasons = append(seasons, e.Season)
		}
	}
	sort.Ints(seasons)
	return seasons
}

// IsEpisodeWatchable reports whether the episode's airstamp is not after the
// current local time. The second return is false when the episode has no
// airstamp, or its airstamp does not parse; such an episode is skipped by
// the counting queries rather than failing the whole catalog.
func (c *Catalog) IsEpisodeWatchable(e models.Episode) (watchable, ok bool) {
	if e.Airstamp == "" {
		return false, false
	}
	rt, err := ParseReleaseTime(e.Airstamp)
	if err != nil {
		log.Printf("[catalog] %v", err)
		return false, false
	}
	return !rt.Time().After(c.now().Local()), true
}

// PreviousEpisode scans the catalog in order and returns the episode whose
// successor is not yet watchable, or the last episode when nothing follows
// it. When a lookahead episode's watchability cannot be determined the scan
// aborts and returns nothing rather than skipping it.
func (c *Catalog) PreviousEpisode() (models.Episode, bool) {
	for i, e := range c.episodes {
		if i+1 >= len(c.episodes) {
			return e, true
		}
		watchable, ok := c.IsEpisodeWatchable(c.episodes[i+1])
		if !ok {
			return models.Episode{}, false
		}
		if !watchable {
			return e, true
		}
	}
	return models.Episode{}, false
}

// NextEpisode returns the first episode whose watchability resolves to
// false.
func (c *Catalog) NextEpisode() (models.Episode, bool) {
	for _, e := range c.episodes {
		if watchable, ok := c.IsEpisodeWatchable(e); ok && !watchable {
			return e, true
		}
	}
	return models.Episode{}, false
}

// NextEpisodeAndTime pairs the next episode with its release time. The
// second return is false when there is no next episode or it carries no
// airstamp.
func (c *Catalog) NextEpisodeAndTime() (models.Episode, ReleaseTime, bool) {
	next, ok := c.NextEpisode()
	if !ok || next.Airstamp == "" {
		return models.Episode{}, ReleaseTime{}, false
	}
	rt, err := ParseReleaseTime(next.Airstamp)
	if err != nil {
		return models.Episode{}, ReleaseTime{}, false
	}
	return next, rt, true
}
