package client

import (
	"context"

	"github.com/autobrr/seedgc/pkg/config"
)

type Interface interface {
	Type() string
	Connect(ctx context.Context) error
	GetTorrents(ctx context.Context) ([]config.Torrent, error)
	StopTorrents(ctx context.Context, ids []string) error
	RemoveTorrents(ctx context.Context, ids []string, deleteData bool) error
}
