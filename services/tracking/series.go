package tracking

import (
	"sort"
	"sync"
)

// Series is one durable watch-progress record: the seasons of a show and the
// episode numbers watched in each. A Series is handed out by the store,
// mutated in memory, and persisted only by an explicit Update (or by
// AddEpisode, which flushes before returning). Readers may enumerate it
// concurrently with a single in-flight writer.
type Series struct {
	ID      int
	Seasons map[int]*Season

	mu    sync.RWMutex
	name  string
	store *Store
}

// Name returns the series display name.
func (s *Series) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// SetName renames the series in memory; a following Update persists it.
func (s *Series) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Season is the per-season watch record: the set of watched episode numbers
// and, when known, the declared episode order (expected count). The watched
// set may be populated even when the order is unknown.
type Season struct {
	Number       int          `json:"number"`
	Watched      map[int]bool `json:"watched"`
	EpisodeOrder int          `json:"episodeOrder,omitempty"`
}

// TrackEpisode records an episode number as watched. Idempotent.
func (s *Season) TrackEpisode(number int) {
	if s.Watched == nil {
		s.Watched = make(map[int]bool)
	}
	s.Watched[number] = true
}

// UntrackEpisode removes an episode number from the watched set. A no-op on
// a non-member.
func (s *Season) UntrackEpisode(number int) {
	delete(s.Watched, number)
}

// IsEpisodeWatched reports membership of the watched set.
func (s *Season) IsEpisodeWatched(number int) bool {
	return s.Watched[number]
}

// EpisodesWatched returns the watched-episode count.
func (s *Season) EpisodesWatched() int {
	return len(s.Watched)
}

// FullyTracked reports whether the watched count equals the declared episode
// order. A season with an unknown order is never fully tracked.
func (s *Season) FullyTracked() bool {
	return s.EpisodeOrder > 0 && len(s.Watched) == s.EpisodeOrder
}

// WatchedEpisodes returns the watched episode numbers in ascending order.
func (s *Season) WatchedEpisodes() []int {
	numbers := make([]int, 0, len(s.Watched))
	for n := range s.Watched {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

func (s *Season) clone() *Season {
	watched := make(map[int]bool, len(s.Watched))
	for n := range s.Watched {
		watched[n] = true
	}
	return &Season{Number: s.Number, Watched: watched, EpisodeOrder: s.EpisodeOrder}
}

// AddSeason records the season as tracked without pre-populating watched
// episodes. Adding an existing season keeps its record.
func (s *Series) AddSeason(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSeasonLocked(number)
}

func (s *Series) addSeasonLocked(number int) *Season {
	if s.Seasons == nil {
		s.Seasons = make(map[int]*Season)
	}
	season, ok := s.Seasons[number]
	if !ok {
		season = &Season{Number: number, Watched: make(map[int]bool)}
		s.Seasons[number] = season
	}
	return season
}

// RemoveSeason drops the season record unconditionally, resetting it to
// untracked.
func (s *Series) RemoveSeason(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Seasons, number)
}

// Season returns a snapshot copy of the season record.
func (s *Series) Season(number int) (*Season, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	season, ok := s.Seasons[number]
	if !ok {
		return nil, false
	}
	return season.clone(), true
}

// TrackEpisode marks one episode of a season as watched, creating the season
// record on first use. Idempotent.
func (s *Series) TrackEpisode(season, number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSeasonLocked(season).TrackEpisode(number)
}

// UntrackEpisode removes one episode from a season's watched set. The season
// record persists even when its watched count drops to zero; only
// RemoveSeason prunes it.
func (s *Series) UntrackEpisode(season, number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.Seasons[season]; ok {
		rec.UntrackEpisode(number)
	}
}

// SetEpisodeOrder declares the expected episode count of a season.
func (s *Series) SetEpisodeOrder(season, order int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSeasonLocked(season).EpisodeOrder = order
}

// IsEpisodeWatched reports whether the episode is in the season's watched
// set.
func (s *Series) IsEpisodeWatched(season, number int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.Seasons[season]
	return ok && rec.IsEpisodeWatched(number)
}

// EpisodesWatched returns the watched count of one season.
func (s *Series) EpisodesWatched(season int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.Seasons[season]; ok {
		return rec.EpisodesWatched()
	}
	return 0
}

// TotalEpisodesWatched returns the watched count across all seasons.
func (s *Series) TotalEpisodesWatched() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, rec := range s.Seasons {
		total += rec.EpisodesWatched()
	}
	return total
}

// SeasonSnapshots returns copies of all season records in ascending season
// order, for enumeration without holding the series lock.
func (s *Series) SeasonSnapshots() []*Season {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seasons := make([]*Season, 0, len(s.Seasons))
	for _, rec := range s.Seasons {
		seasons = append(seasons, rec.clone())
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].Number < seasons[j].Number })
	return seasons
}

// AddEpisode records one episode as watched and persists durably before
// returning. The boolean reports whether the episode was newly added;
// callers use it to roll back the mark if a dependent step fails.
func (s *Series) AddEpisode(season, number int) (bool, error) {
	s.mu.Lock()
	rec := s.addSeasonLocked(season)
	if rec.IsEpisodeWatched(number) {
		s.mu.Unlock()
		return false, nil
	}
	rec.TrackEpisode(number)
	s.mu.Unlock()

	if err := s.Update(); err != nil {
		return false, err
	}
	return true, nil
}

// AddEpisodeUnchecked records one episode as watched without the newly-added
// signal and without persisting; a following Update is still required to
// guarantee durability.
func (s *Series) AddEpisodeUnchecked(season, number int) {
	s.TrackEpisode(season, number)
}

// Update is the one explicit durability flush for this series record.
// Mutations are not auto-persisted per call; batched actions call Update
// once after a logical unit of change. Persistence failures are surfaced,
// never swallowed.
func (s *Series) Update() error {
	return s.store.persist(s)
}
