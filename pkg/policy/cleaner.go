package policy

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/expression"
)

type Client interface {
	RemoteClient
	GetTorrents(ctx context.Context) ([]config.Torrent, error)
}

// Report summarises one run.
type Report struct {
	Started  time.Time
	Finished time.Time
	DryRun   bool

	Retrieved int
	Ignored   int

	Retention []Decision
	// RetentionRemoved holds the retention decisions the client actually removed.
	RetentionRemoved []Decision

	Evicted  []Decision
	Failures []Failure

	FreeSpaceGB    int64
	BelowThreshold bool
}

// Removed returns the torrents actually removed during the run.
func (r *Report) Removed() []Decision {
	removed := make([]Decision, 0, len(r.RetentionRemoved)+len(r.Evicted))
	removed = append(removed, r.RetentionRemoved...)
	return append(removed, r.Evicted...)
}

func (r *Report) RemovedBytes() int64 {
	return sumBytes(r.Removed())
}

type Cleaner struct {
	Client  Client
	Probe   Prober
	Filters *expression.Expressions
	Policy  config.Policy
	Log     *logrus.Entry

	Now   func() time.Time
	Sleep SleepFunc
}

// Run performs a single cleanup pass. The returned report is never nil; it holds
// whatever was done before an error ended the run.
func (c *Cleaner) Run(ctx context.Context) (*Report, error) {
	now := time.Now().UTC()
	if c.Now != nil {
		now = c.Now().UTC()
	}

	log := c.Log
	rep := &Report{Started: now, DryRun: c.Policy.DryRun}
	defer func() { rep.Finished = time.Now().UTC() }()

	// retrieve torrents
	torrents, err := c.Client.GetTorrents(ctx)
	if err != nil {
		return rep, err
	}
	rep.Retrieved = len(torrents)
	log.Infof("Retrieved %d torrents", len(torrents))

	candidates := c.filter(log, torrents, now)
	rep.Ignored = len(torrents) - len(candidates)

	// retention
	res := Evaluate(log, candidates, now, c.Policy)
	rep.Retention = res.Delete
	c.applyRetention(ctx, log, res, rep)

	// free space
	free, err := c.Probe.FreeSpaceGB(c.Policy.Mountpoint)
	if err != nil {
		return rep, probeError(err)
	}
	rep.FreeSpaceGB = free

	if free >= c.Policy.MountpointThreshold {
		log.Infof("Free space %dGB on %q meets the threshold of %dGB", free, c.Policy.Mountpoint,
			c.Policy.MountpointThreshold)
		return rep, nil
	}

	rep.BelowThreshold = true
	log.Infof("Free space %dGB on %q is below the threshold of %dGB", free, c.Policy.Mountpoint,
		c.Policy.MountpointThreshold)

	// eviction
	ev := &Evictor{Probe: c.Probe, Client: c.Client, Sleep: c.Sleep}
	er, err := ev.Evict(ctx, log, res.Remaining, c.Policy)
	rep.Evicted = er.Evicted
	rep.Failures = append(rep.Failures, er.Failures...)
	if er.Probes > 0 {
		rep.FreeSpaceGB = er.FreeSpaceGB
	}
	rep.BelowThreshold = rep.FreeSpaceGB < c.Policy.MountpointThreshold

	if len(er.Evicted) > 0 {
		log.Infof("Evicted %d torrent(s) (%v)", len(er.Evicted), humanize.IBytes(uint64(sumBytes(er.Evicted))))
	}

	return rep, err
}

func (c *Cleaner) filter(log *logrus.Entry, torrents []config.Torrent, now time.Time) []config.Torrent {
	if c.Filters == nil || len(c.Filters.Ignores) == 0 {
		return torrents
	}

	kept := make([]config.Torrent, 0, len(torrents))
	for _, t := range torrents {
		ignored, reason, err := c.Filters.ShouldIgnore(&t, now)
		if err != nil {
			log.WithError(err).Errorf("Failed checking ignore filters for torrent: %q", t.Name)
			continue
		} else if ignored {
			log.Debugf("Ignoring torrent %q: %s", t.Name, reason)
			continue
		}

		kept = append(kept, t)
	}

	return kept
}

func (c *Cleaner) applyRetention(ctx context.Context, log *logrus.Entry, res Result, rep *Report) {
	if len(res.Delete) == 0 {
		log.Info("No torrents met the retention thresholds")
		return
	}

	ids := res.IDs()
	size := humanize.IBytes(uint64(sumBytes(res.Delete)))

	if c.Policy.DryRun {
		log.Infof("[DRY-RUN] Would remove %d torrent(s) (%v) with ids %v", len(ids), size, ids)
		return
	}

	log.Infof("Removing %d torrent(s) (%v) with ids %v", len(ids), size, ids)
	if err := removeWithData(ctx, c.Client, ids); err != nil {
		removed := strset.New(removedIDs(err)...)
		log.WithError(err).Errorf("Failed removing %d of %d torrent(s)", len(ids)-removed.Size(), len(ids))

		for _, d := range res.Delete {
			if removed.Has(d.Torrent.ID) {
				rep.RetentionRemoved = append(rep.RetentionRemoved, d)
				continue
			}
			rep.Failures = append(rep.Failures, Failure{Torrent: d.Torrent, Err: err})
		}
		return
	}

	rep.RetentionRemoved = res.Delete
}

func sumBytes(decisions []Decision) int64 {
	var n int64
	for _, d := range decisions {
		n += d.Torrent.TotalBytes
	}
	return n
}
