package client

import (
	"context"
	"time"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/logger"
	"github.com/autobrr/seedgc/pkg/sliceutils"
)

var qbitSeedingStates = []string{
	"uploading",
	"stalledUP",
	"forcedUP",
}

/* Struct */

type QBittorrent struct {
	// internal
	log        *logrus.Entry
	clientType string
	client     *qbit.Client
}

/* Initializer */

func NewQBittorrent(cfg config.ClientConfig) (Interface, error) {
	host, err := webURL(cfg.URL, cfg.Port)
	if err != nil {
		return nil, err
	}

	return &QBittorrent{
		log:        logger.GetLogger("qbittorrent"),
		clientType: "qBittorrent",
		client: qbit.NewClient(qbit.Config{
			Host:          host,
			Username:      cfg.User,
			Password:      cfg.Password,
			TLSSkipVerify: true,
			BasicUser:     cfg.User,
			BasicPass:     cfg.Password,
			Log:           nil,
		}),
	}, nil
}

/* Interface */

func (c *QBittorrent) Type() string {
	return c.clientType
}

func (c *QBittorrent) Connect(context.Context) error {
	// login
	if err := c.client.Login(); err != nil {
		return connectionError("login", err)
	}

	// retrieve api version
	apiVersion, err := c.client.GetWebAPIVersion()
	if err != nil {
		return connectionError("get api version", err)
	}

	c.log.Debugf("API Version: %v", apiVersion)
	return nil
}

func (c *QBittorrent) GetTorrents(ctx context.Context) ([]config.Torrent, error) {
	c.log.Tracef("Retrieving torrents...")
	t, err := c.client.GetTorrentsCtx(ctx, qbit.TorrentFilterOptions{})
	if err != nil {
		return nil, connectionError("get torrents", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(t))

	torrents := make([]config.Torrent, 0, len(t))
	for _, t := range t {
		torrents = append(torrents, qbitTorrent(t))
	}

	return torrents, nil
}

func (c *QBittorrent) StopTorrents(ctx context.Context, ids []string) error {
	if err := c.client.PauseCtx(ctx, ids); err != nil {
		return remoteOperationError("pause torrents", ids, err)
	}

	return nil
}

func (c *QBittorrent) RemoveTorrents(ctx context.Context, ids []string, deleteData bool) error {
	if err := c.client.DeleteTorrentsCtx(ctx, ids, deleteData); err != nil {
		return remoteOperationError("delete torrents", ids, err)
	}

	return nil
}

/* Private */

func qbitTorrent(t qbit.Torrent) config.Torrent {
	status := string(t.State)
	if sliceutils.StringSliceContains(qbitSeedingStates, status, true) {
		status = config.StatusSeeding
	}

	// completion_on is -1 (or 0) until the download finished
	var doneDate time.Time
	if t.CompletionOn > 0 {
		doneDate = time.Unix(t.CompletionOn, 0).UTC()
	}

	return config.Torrent{
		ID:          t.Hash,
		Hash:        t.Hash,
		Name:        t.Name,
		Status:      status,
		DoneDate:    doneDate,
		Ratio:       t.Ratio,
		TotalBytes:  t.Size,
		Label:       t.Category,
		TrackerName: parseTrackerDomain(t.Tracker),
	}
}
