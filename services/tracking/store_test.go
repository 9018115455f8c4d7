package tracking

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	store, err := Open(filepath.Join(dir, "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSeriesNotDurableUntilUpdate(t *testing.T) {
	store := openTestStore(t, t.TempDir())

	series := store.NewSeries("Dark", 100)
	assert.Nil(t, store.GetSeries(100))
	assert.Empty(t, store.GetSeriesCollection())

	require.NoError(t, series.Update())
	assert.Same(t, series, store.GetSeries(100))
	assert.Len(t, store.GetSeriesCollection(), 1)
}

func TestAddEpisodeReportsNewlyAdded(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	series := store.NewSeries("Dark", 100)

	added, err := series.AddEpisode(1, 3)
	require.NoError(t, err)
	assert.True(t, added, "first call must report a new addition")

	added, err = series.AddEpisode(1, 3)
	require.NoError(t, err)
	assert.False(t, added, "repeated call must report no addition")

	assert.True(t, series.IsEpisodeWatched(1, 3))
}

func TestTrackEpisodeIdempotentAndUntrackNoop(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	series := store.NewSeries("Dark", 100)

	series.TrackEpisode(1, 2)
	series.TrackEpisode(1, 2)
	assert.Equal(t, 1, series.EpisodesWatched(1))

	// Untracking a non-member changes nothing.
	series.UntrackEpisode(1, 7)
	assert.Equal(t, 1, series.EpisodesWatched(1))

	series.UntrackEpisode(1, 2)
	assert.Equal(t, 0, series.EpisodesWatched(1))
}

func TestFullyTrackedMatchesDeclaredOrder(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	series := store.NewSeries("Dark", 100)

	series.SetEpisodeOrder(1, 3)
	series.TrackEpisode(1, 1)
	series.TrackEpisode(1, 2)

	season, ok := series.Season(1)
	require.True(t, ok)
	assert.False(t, season.FullyTracked())

	series.TrackEpisode(1, 3)
	season, ok = series.Season(1)
	require.True(t, ok)
	assert.True(t, season.FullyTracked())
	assert.Equal(t, season.EpisodeOrder, season.EpisodesWatched())

	// A season without a declared order is never fully tracked.
	series.TrackEpisode(2, 1)
	season, ok = series.Season(2)
	require.True(t, ok)
	assert.False(t, season.FullyTracked())
}

func TestAddSeasonDoesNotPrepopulate(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	series := store.NewSeries("Dark", 100)

	series.AddSeason(2)
	season, ok := series.Season(2)
	require.True(t, ok)
	assert.Equal(t, 0, season.EpisodesWatched())
}

func TestUntrackToZeroKeepsSeasonRecord(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	series := store.NewSeries("Dark", 100)

	series.TrackEpisode(1, 1)
	series.UntrackEpisode(1, 1)

	// The season record persists as an empty record until explicitly removed.
	season, ok := series.Season(1)
	require.True(t, ok)
	assert.Equal(t, 0, season.EpisodesWatched())

	series.RemoveSeason(1)
	_, ok = series.Season(1)
	assert.False(t, ok)
}

func TestUpdatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(filepath.Join(dir, "tracking.db"))
	require.NoError(t, err)

	series := store.NewSeries("Dark", 100)
	series.SetEpisodeOrder(1, 8)
	series.TrackEpisode(1, 1)
	series.TrackEpisode(1, 2)
	require.NoError(t, series.Update())

	other := store.NewSeries("Severance", 200)
	_, err = other.AddEpisode(1, 1)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(filepath.Join(dir, "tracking.db"))
	require.NoError(t, err)
	defer reopened.Close()

	restored := reopened.GetSeries(100)
	require.NotNil(t, restored)
	assert.Equal(t, "Dark", restored.Name())
	assert.Equal(t, 2, restored.EpisodesWatched(1))
	assert.True(t, restored.IsEpisodeWatched(1, 2))
	season, ok := restored.Season(1)
	require.True(t, ok)
	assert.Equal(t, 8, season.EpisodeOrder)

	collection := reopened.GetSeriesCollection()
	require.Len(t, collection, 2)
	assert.Equal(t, 100, collection[0].ID)
	assert.Equal(t, 200, collection[1].ID)
}

func TestMutationsNotDurableWithoutUpdate(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(filepath.Join(dir, "tracking.db"))
	require.NoError(t, err)

	series := store.NewSeries("Dark", 100)
	require.NoError(t, series.Update())

	// AddEpisodeUnchecked marks optimistically; durability requires Update.
	series.AddEpisodeUnchecked(1, 1)
	require.NoError(t, store.Close())

	reopened, err := Open(filepath.Join(dir, "tracking.db"))
	require.NoError(t, err)
	defer reopened.Close()

	restored := reopened.GetSeries(100)
	require.NotNil(t, restored)
	assert.False(t, restored.IsEpisodeWatched(1, 1))
}

func TestRemoveSeriesIsExplicitAndDurable(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(filepath.Join(dir, "tracking.db"))
	require.NoError(t, err)

	series := store.NewSeries("Dark", 100)
	require.NoError(t, series.Update())
	require.NoError(t, store.RemoveSeries(100))
	assert.Nil(t, store.GetSeries(100))
	require.NoError(t, store.Close())

	reopened, err := Open(filepath.Join(dir, "tracking.db"))
	require.NoError(t, err)
	defer reopened.Close()
	assert.Nil(t, reopened.GetSeries(100))
}
