package models

// Episode is one entry of a series' episode list as fetched from the remote
// catalog. Number is a pointer because specials carry no episode number.
// Airstamp, when present, is an RFC3339 timestamp. Episodes are immutable
// once fetched.
type Episode struct {
	Season   int    `json:"season"`
	Number   *int   `json:"number"`
	Name     string `json:"name"`
	Airstamp string `json:"airstamp,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Runtime  int    `json:"runtime,omitempty"`
}

// HasNumber reports whether the episode carries a regular episode number.
func (e Episode) HasNumber() bool {
	return e.Number != nil
}

// TotalEpisodes is the per-season {all, watchable} aggregate pair. It is
// derived on demand and never persisted.
type TotalEpisodes struct {
	All       int `json:"all"`
	Watchable int `json:"watchable"`
}

// SeasonEpisodeCount pairs a season number with its episode totals.
type SeasonEpisodeCount struct {
	Season int           `json:"season"`
	Totals TotalEpisodes `json:"totals"`
}

// SeasonWatchableCount pairs a season number with its watchable episode count.
type SeasonWatchableCount struct {
	Season    int `json:"season"`
	Watchable int `json:"watchable"`
}
