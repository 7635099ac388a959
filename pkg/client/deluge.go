package client

import (
	"context"
	"strings"
	"time"

	delugeclient "github.com/autobrr/go-deluge"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/logger"
)

/* Struct */

type Deluge struct {
	V2 bool

	// internal
	log        *logrus.Entry
	clientType string
	client     *delugeclient.LabelPlugin
	client1    *delugeclient.Client
	client2    *delugeclient.ClientV2
	now        func() time.Time
}

/* Initializer */

func NewDeluge(cfg config.ClientConfig) (Interface, error) {
	tc := Deluge{
		V2:         cfg.V2,
		log:        logger.GetLogger("deluge"),
		clientType: "Deluge",
		now:        time.Now,
	}

	settings := delugeclient.Settings{
		Hostname: cfg.URL,
		Port:     uint(cfg.Port),
		Login:    cfg.User,
		Password: cfg.Password,
	}

	if tc.V2 {
		tc.client2 = delugeclient.NewV2(settings)
	} else {
		tc.client1 = delugeclient.NewV1(settings)
	}

	return &tc, nil
}

/* Interface */

func (c *Deluge) Type() string {
	return c.clientType
}

func (c *Deluge) Connect(ctx context.Context) error {
	var err error

	// connect to deluge daemon
	if c.V2 {
		err = c.client2.Connect(ctx)
	} else {
		err = c.client1.Connect(ctx)
	}

	if err != nil {
		return connectionError("login", err)
	}

	// retrieve & set common label client
	var lc *delugeclient.LabelPlugin

	if c.V2 {
		lc, err = c.client2.LabelPlugin(ctx)
	} else {
		lc, err = c.client1.LabelPlugin(ctx)
	}

	if err != nil {
		return connectionError("get label plugin", err)
	}

	// retrieve daemon version
	daemonVersion, err := lc.DaemonVersion(ctx)
	if err != nil {
		return connectionError("get daemon version", err)
	}
	c.log.Debugf("Daemon Version: %v", daemonVersion)

	c.client = lc
	return nil
}

func (c *Deluge) GetTorrents(ctx context.Context) ([]config.Torrent, error) {
	// retrieve torrents from client
	c.log.Tracef("Retrieving torrents...")
	t, err := c.client.TorrentsStatus(ctx, delugeclient.StateUnspecified, nil)
	if err != nil {
		return nil, connectionError("get torrents", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(t))

	// retrieve torrent labels
	labels, err := c.client.GetTorrentsLabels(delugeclient.StateUnspecified, nil)
	if err != nil {
		return nil, connectionError("get torrent labels", err)
	}
	c.log.Tracef("Retrieved labels for %d torrents", len(labels))

	now := c.now()
	torrents := make([]config.Torrent, 0, len(t))
	for h, t := range t {
		torrents = append(torrents, delugeTorrent(h, t, labels[h], now))
	}

	return torrents, nil
}

func (c *Deluge) StopTorrents(ctx context.Context, ids []string) error {
	if err := c.client.PauseTorrents(ctx, ids...); err != nil {
		return remoteOperationError("pause torrents", ids, err)
	}

	return nil
}

func (c *Deluge) RemoveTorrents(ctx context.Context, ids []string, deleteData bool) error {
	return removeEach(ids, func(id string) error {
		ok, err := c.client.RemoveTorrent(ctx, id, deleteData)
		if err != nil {
			return err
		} else if !ok {
			return errNotRemoved
		}
		return nil
	})
}

/* Private */

// removeEach removes ids one call at a time and stops at the first failure.
func removeEach(ids []string, remove func(id string) error) error {
	for i, id := range ids {
		if err := remove(id); err != nil {
			err = remoteOperationError("remove torrent", []string{id}, err)
			if i == 0 {
				return err
			}
			return &PartialRemoveError{Removed: ids[:i:i], Err: err}
		}
	}

	return nil
}

// deluge has no completion timestamp, derive it from the time spent seeding
func delugeTorrent(hash string, t *delugeclient.TorrentStatus, label string, now time.Time) config.Torrent {
	var doneDate time.Time
	if t.IsSeed {
		doneDate = now.Add(-time.Duration(t.SeedingTime) * time.Second).UTC()
	}

	return config.Torrent{
		ID:          hash,
		Hash:        hash,
		Name:        t.Name,
		Status:      strings.ToLower(t.State),
		DoneDate:    doneDate,
		Ratio:       float64(t.Ratio),
		TotalBytes:  t.TotalSize,
		Label:       label,
		TrackerName: parseTrackerDomain(t.TrackerHost),
	}
}
