package config

import (
	"strings"
	"time"

	"github.com/autobrr/seedgc/pkg/regex"
)

const StatusSeeding = "seeding"

type Torrent struct {
	// torrent
	ID         string    `json:"ID"`
	Hash       string    `json:"Hash"`
	Name       string    `json:"Name"`
	Status     string    `json:"Status"`
	DoneDate   time.Time `json:"DoneDate"`
	Ratio      float64   `json:"Ratio"`
	TotalBytes int64     `json:"TotalBytes"`
	Label      string    `json:"Label"`

	// tracker
	TrackerName string `json:"TrackerName"`

	regexPattern *regex.Pattern
}

// IsSeeding reports whether the client considers the torrent to be seeding.
// Clients disagree on casing, so the comparison ignores case and padding.
func (t *Torrent) IsSeeding() bool {
	return strings.EqualFold(strings.TrimSpace(t.Status), StatusSeeding)
}

// Completed reports whether the torrent carries a usable completion time.
func (t *Torrent) Completed() bool {
	return !t.DoneDate.IsZero() && t.DoneDate.Unix() > 0
}

// AgeDays returns the number of whole days between now and the completion time.
func (t *Torrent) AgeDays(now time.Time) int {
	d := now.UTC().Sub(t.DoneDate.UTC())
	if d < 0 {
		d = -d
	}

	return int(d / (24 * time.Hour))
}

// RegexMatch delegates to the regex checker
func (t *Torrent) RegexMatch(pattern string) bool {
	// Compile pattern if needed
	if t.regexPattern == nil || t.regexPattern.Expression.String() != pattern {
		compiled, err := regex.Compile(pattern)
		if err != nil {
			return false
		}
		t.regexPattern = compiled
	}

	match, err := regex.Check(t.Name, t.regexPattern)
	if err != nil {
		return false
	}

	return match
}

// RegexMatchAny checks if the torrent name matches any of the comma separated patterns
func (t *Torrent) RegexMatchAny(patternsStr string) bool {
	var compiledPatterns []*regex.Pattern
	for _, p := range strings.Split(patternsStr, ",") {
		compiled, err := regex.Compile(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		compiledPatterns = append(compiledPatterns, compiled)
	}

	match, err := regex.CheckAny(t.Name, compiledPatterns)
	if err != nil {
		return false
	}
	return match
}
