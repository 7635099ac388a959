package notification

import (
	"context"
	"time"

	"github.com/autobrr/seedgc/pkg/config"
)

type Action int

const (
	// ActionRetention is a removal because the ratio or age threshold was met.
	ActionRetention Action = iota + 1
	// ActionEviction is a removal to bring free space back above the threshold.
	ActionEviction
	// ActionFailure is a removal the client rejected.
	ActionFailure
)

type Sender interface {
	Name() string
	CanSend() bool
	Send(ctx context.Context, msg Message) error
	BuildField(action Action, options BuildOptions) Field
}

// Message is one run summary, split into as many webhook calls as needed.
type Message struct {
	Title       string
	Description string
	Client      string
	RunTime     time.Duration
	Fields      []Field
	DryRun      bool
}

type Field struct {
	Name   string
	Value  string
	Action Action
}

type BuildOptions struct {
	Torrent config.Torrent

	Reason      string
	AgeDays     int
	FreeSpaceGB int64
	Err         error
}
