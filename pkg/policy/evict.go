package policy

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/diskspace"
)

type Prober interface {
	FreeSpaceGB(path string) (int64, error)
}

type RemoteClient interface {
	StopTorrents(ctx context.Context, ids []string) error
	RemoveTorrents(ctx context.Context, ids []string, deleteData bool) error
}

// SleepFunc pauses between evictions. It must return early with ctx.Err() when ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Failure struct {
	Torrent config.Torrent
	Err     error
}

type EvictResult struct {
	Evicted     []Decision
	Failures    []Failure
	FreeSpaceGB int64
	Probes      int
}

type Evictor struct {
	Probe  Prober
	Client RemoteClient
	Sleep  SleepFunc
}

// Evict removes the oldest seeding torrents of remaining, one at a time, until the
// probe reports free space at or above the threshold or no candidate is left.
// Free space is probed again after every removal. A torrent whose removal failed
// is not retried during the same call.
func (e *Evictor) Evict(ctx context.Context, log *logrus.Entry, remaining []config.Torrent, p config.Policy) (*EvictResult, error) {
	res := &EvictResult{}
	tried := strset.New()

	sleep := e.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		free, err := e.Probe.FreeSpaceGB(p.Mountpoint)
		if err != nil {
			return res, probeError(err)
		}
		res.FreeSpaceGB = free
		res.Probes++

		if free >= p.MountpointThreshold {
			log.Debugf("Free space %dGB on %q meets the threshold of %dGB", free, p.Mountpoint, p.MountpointThreshold)
			return res, nil
		}

		if p.DryRun {
			log.Infof("[DRY-RUN] Free space %dGB is below the threshold of %dGB, skipping eviction",
				free, p.MountpointThreshold)
			return res, nil
		}

		if p.MaxEvictions > 0 && len(res.Evicted) >= p.MaxEvictions {
			log.Warnf("Reached the limit of %d eviction(s) with %dGB free", p.MaxEvictions, free)
			return res, nil
		}

		t, ok := nextCandidate(remaining, tried)
		if !ok {
			log.Warnf("No seeding torrents left to evict, free space %dGB is below the threshold of %dGB",
				free, p.MountpointThreshold)
			return res, nil
		}
		tried.Add(t.ID)

		log.Infof("Evicting %q (free space %dGB)", t.Name, free)
		if err := removeWithData(ctx, e.Client, []string{t.ID}); err != nil {
			log.WithError(err).Errorf("Failed evicting torrent: %q", t.Name)
			res.Failures = append(res.Failures, Failure{Torrent: t, Err: err})
			continue
		}

		res.Evicted = append(res.Evicted, Decision{Torrent: t, Reason: ReasonFreeSpace, FreeSpaceGB: free})

		if err := sleep(ctx, p.EvictDelay); err != nil {
			return res, err
		}
	}
}

// nextCandidate returns the first seeding, completed torrent not yet tried.
func nextCandidate(remaining []config.Torrent, tried *strset.Set) (config.Torrent, bool) {
	for _, t := range remaining {
		if !t.IsSeeding() || !t.Completed() || tried.Has(t.ID) {
			continue
		}
		return t, true
	}

	return config.Torrent{}, false
}

func removeWithData(ctx context.Context, c RemoteClient, ids []string) error {
	if err := c.StopTorrents(ctx, ids); err != nil {
		return err
	}

	return c.RemoveTorrents(ctx, ids, true)
}

// removedIDs returns the ids a failed remove call reports as already gone.
func removedIDs(err error) []string {
	var partial interface{ RemovedIDs() []string }
	if errors.As(err, &partial) {
		return partial.RemovedIDs()
	}

	return nil
}

func probeError(err error) error {
	if errors.Is(err, diskspace.ErrProbe) {
		return err
	}

	return errors.Wrap(diskspace.ErrProbe, err.Error())
}
