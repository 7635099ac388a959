package policy

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/config"
)

type Reason string

const (
	ReasonRatio     Reason = "ratio"
	ReasonMaxAge    Reason = "max-age"
	ReasonFreeSpace Reason = "free-space"
)

// Decision records why a torrent was selected for removal.
type Decision struct {
	Torrent config.Torrent
	Reason  Reason
	AgeDays int

	// FreeSpaceGB is the free space seen right before an eviction.
	FreeSpaceGB int64
}

// Result partitions the evaluated torrents. Both slices keep ascending completion order.
type Result struct {
	Delete    []Decision
	Remaining []config.Torrent
}

// IDs returns the ids of the deletion batch in evaluation order.
func (r Result) IDs() []string {
	ids := make([]string, 0, len(r.Delete))
	for _, d := range r.Delete {
		ids = append(ids, d.Torrent.ID)
	}
	return ids
}

// Evaluate applies the retention rules to torrents as of now. The ratio rule is
// checked before the max age rule. It makes no remote calls and does not modify
// the input slice.
func Evaluate(log *logrus.Entry, torrents []config.Torrent, now time.Time, p config.Policy) Result {
	sorted := make([]config.Torrent, len(torrents))
	copy(sorted, torrents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DoneDate.Before(sorted[j].DoneDate)
	})

	res := Result{
		Delete:    make([]Decision, 0),
		Remaining: make([]config.Torrent, 0, len(sorted)),
	}

	for _, t := range sorted {
		if !t.IsSeeding() {
			log.Debugf("%q is not seeding (%s)", t.Name, t.Status)
			res.Remaining = append(res.Remaining, t)
			continue
		}

		if !t.Completed() {
			log.Debugf("%q has no completion date, not eligible for removal", t.Name)
			res.Remaining = append(res.Remaining, t)
			continue
		}

		age := t.AgeDays(now)

		switch {
		case t.Ratio >= p.DeleteRatio && age >= p.MinAge:
			log.Infof("%q with ratio %.2f exceeded the delete ratio %.2f and is at least %d days old",
				t.Name, t.Ratio, p.DeleteRatio, p.MinAge)
			res.Delete = append(res.Delete, Decision{Torrent: t, Reason: ReasonRatio, AgeDays: age})

		case age >= p.MaxAge:
			log.Infof("%q with ratio %.2f is older than %d days", t.Name, t.Ratio, p.MaxAge)
			res.Delete = append(res.Delete, Decision{Torrent: t, Reason: ReasonMaxAge, AgeDays: age})

		default:
			log.Debugf("%q with ratio %.2f which is %d days old is being kept", t.Name, t.Ratio, age)
			res.Remaining = append(res.Remaining, t)
		}
	}

	return res
}
