package client

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/logger"
	"github.com/autobrr/seedgc/pkg/transmission"
)

/* Struct */

type Transmission struct {
	// internal
	log        *logrus.Entry
	clientType string
	client     *transmission.Client
}

/* Initializer */

func NewTransmission(cfg config.ClientConfig) (Interface, error) {
	c, err := transmission.New(transmission.Config{
		URL:      cfg.URL,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &Transmission{
		log:        logger.GetLogger("transmission"),
		clientType: "Transmission",
		client:     c,
	}, nil
}

/* Interface */

func (c *Transmission) Type() string {
	return c.clientType
}

func (c *Transmission) Connect(ctx context.Context) error {
	c.log.Tracef("Connecting to %s", c.client.Endpoint())

	session, err := c.client.SessionGet(ctx)
	if err != nil {
		return connectionError("get session", err)
	}

	c.log.Debugf("Daemon Version: %v (rpc %d)", session.Version, session.RPCVersion)
	return nil
}

func (c *Transmission) GetTorrents(ctx context.Context) ([]config.Torrent, error) {
	c.log.Tracef("Retrieving torrents...")
	t, err := c.client.TorrentGet(ctx, transmission.TorrentFields)
	if err != nil {
		return nil, connectionError("get torrents", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(t))

	torrents := make([]config.Torrent, 0, len(t))
	for _, t := range t {
		torrents = append(torrents, transmissionTorrent(t))
	}

	return torrents, nil
}

func (c *Transmission) StopTorrents(ctx context.Context, ids []string) error {
	if err := c.client.TorrentStop(ctx, transmission.ParseIDs(ids)); err != nil {
		return remoteOperationError("stop torrents", ids, err)
	}

	return nil
}

func (c *Transmission) RemoveTorrents(ctx context.Context, ids []string, deleteData bool) error {
	if err := c.client.TorrentRemove(ctx, transmission.ParseIDs(ids), deleteData); err != nil {
		return remoteOperationError("remove torrents", ids, err)
	}

	return nil
}

/* Private */

func transmissionTorrent(t transmission.Torrent) config.Torrent {
	ratio := t.UploadRatio
	switch {
	case ratio == transmission.RatioInfinite:
		ratio = math.Inf(1)
	case ratio < 0:
		ratio = 0
	}

	var doneDate time.Time
	if t.DoneDate > 0 {
		doneDate = time.Unix(t.DoneDate, 0).UTC()
	}

	label := ""
	if len(t.Labels) > 0 {
		label = t.Labels[0]
	}

	trackerName := ""
	for _, tr := range t.Trackers {
		if trackerName = parseTrackerDomain(tr.Announce); trackerName != "" {
			break
		}
	}

	return config.Torrent{
		ID:          strconv.FormatInt(t.ID, 10),
		Hash:        t.HashString,
		Name:        t.Name,
		Status:      t.Status.String(),
		DoneDate:    doneDate,
		Ratio:       ratio,
		TotalBytes:  t.TotalSize,
		Label:       label,
		TrackerName: trackerName,
	}
}
