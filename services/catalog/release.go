package catalog

import (
	"fmt"
	"time"

	"showtrack/models"
)

// ParseError reports a malformed airstamp. It is always recoverable; a bad
// record never aborts the process.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse airstamp %q: %v", e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReleaseTime wraps one timestamp normalized to the local zone.
type ReleaseTime struct {
	t time.Time
}

// NewReleaseTime builds a release time from a UTC instant.
func NewReleaseTime(utc time.Time) ReleaseTime {
	return ReleaseTime{t: utc.Local()}
}

// ParseReleaseTime builds a release time from an RFC3339 string.
func ParseReleaseTime(value string) (ReleaseTime, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return ReleaseTime{}, &ParseError{Value: value, Err: err}
	}
	return ReleaseTime{t: t.Local()}, nil
}

// Time returns the wrapped local-zone timestamp.
func (rt ReleaseTime) Time() time.Time { return rt.t }

// Remaining returns the remaining time until release, as the coarsest
// non-zero unit among weeks, days, hours and minutes. A future delta that
// rounds to zero in all of these yields "Now". If the release time is not
// strictly in the future the second return is false.
func (rt ReleaseTime) Remaining(now time.Time) (string, bool) {
	return remainingUntil(rt.t, now)
}

// FullDateAndTime renders "<date> <weekday> <hour>:<minute> <a.m./p.m.>"
// on a 12-hour clock with zero-padded minutes.
func (rt ReleaseTime) FullDateAndTime() string {
	hour := rt.t.Hour()
	meridiem := "a.m."
	if hour >= 12 {
		meridiem = "p.m."
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%s %s %d:%02d %s",
		rt.t.Format("2006-01-02"),
		rt.t.Format("Mon"),
		hour12,
		rt.t.Minute(),
		meridiem,
	)
}

// RemainingForEpisode returns the remaining release time for an episode's
// airstamp. The second return is false when the episode carries no airstamp
// or its release time is not in the future. It delegates to the same routine
// as ReleaseTime.Remaining.
func RemainingForEpisode(e models.Episode, now time.Time) (string, bool, error) {
	if e.Airstamp == "" {
		return "", false, nil
	}
	rt, err := ParseReleaseTime(e.Airstamp)
	if err != nil {
		return "", false, err
	}
	remaining, ok := remainingUntil(rt.t, now)
	return remaining, ok, nil
}

// remainingUntil is the single remaining-time computation; every call site
// delegates here. Boundary equal-to-now counts as not future.
func remainingUntil(t, now time.Time) (string, bool) {
	if !t.After(now) {
		return "", false
	}
	diff := t.Sub(now)
	if weeks := int(diff.Hours() / (24 * 7)); weeks != 0 {
		return fmt.Sprintf("%d weeks", weeks), true
	}
	if days := int(diff.Hours() / 24); days != 0 {
		return fmt.Sprintf("%d days", days), true
	}
	if hours := int(diff.Hours()); hours != 0 {
		return fmt.Sprintf("%d hours", hours), true
	}
	if minutes := int(diff.Minutes()); minutes != 0 {
		return fmt.Sprintf("%d minutes", minutes), true
	}
	return "Now", true
}
