package policy

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/config"
)

var errRemote = errors.New("rpc failed")

func testLog() *logrus.Entry {
	l := logrus.New()
	l.Out = io.Discard
	l.SetLevel(logrus.TraceLevel)
	return logrus.NewEntry(l)
}

type call struct {
	Method string
	IDs    []string
}

type fakeClient struct {
	torrents []config.Torrent
	listErr  error

	// failing ids make stop calls error
	failing map[string]bool
	// removeFailing ids make remove calls error once reached, after removing the ids before them
	removeFailing map[string]bool

	calls []call
}

func (f *fakeClient) GetTorrents(context.Context) ([]config.Torrent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.torrents, nil
}

func (f *fakeClient) StopTorrents(_ context.Context, ids []string) error {
	f.calls = append(f.calls, call{Method: "stop", IDs: ids})
	for _, id := range ids {
		if f.failing[id] {
			return errRemote
		}
	}
	return nil
}

func (f *fakeClient) RemoveTorrents(_ context.Context, ids []string, deleteData bool) error {
	if !deleteData {
		return errors.New("remove called without deleting data")
	}
	for i, id := range ids {
		if f.removeFailing[id] {
			f.calls = append(f.calls, call{Method: "remove", IDs: ids[:i:i]})
			if i == 0 {
				return errRemote
			}
			return &partialRemoveError{removed: ids[:i:i], err: errRemote}
		}
	}

	f.calls = append(f.calls, call{Method: "remove", IDs: ids})
	return nil
}

type partialRemoveError struct {
	removed []string
	err     error
}

func (e *partialRemoveError) Error() string        { return e.err.Error() }
func (e *partialRemoveError) Unwrap() error        { return e.err }
func (e *partialRemoveError) RemovedIDs() []string { return e.removed }

func (f *fakeClient) mutatingCalls() int {
	return len(f.calls)
}

func (f *fakeClient) removedIDs() []string {
	ids := make([]string, 0)
	for _, c := range f.calls {
		if c.Method == "remove" {
			ids = append(ids, c.IDs...)
		}
	}
	return ids
}

// fakeProbe returns values in order and repeats the last one once exhausted.
type fakeProbe struct {
	values []int64
	err    error
	calls  int
	paths  []string
}

func (f *fakeProbe) FreeSpaceGB(path string) (int64, error) {
	f.calls++
	f.paths = append(f.paths, path)
	if f.err != nil {
		return 0, f.err
	}

	i := f.calls - 1
	if i >= len(f.values) {
		i = len(f.values) - 1
	}
	return f.values[i], nil
}

type fakeSleep struct {
	delays []time.Duration
}

func (f *fakeSleep) Sleep(ctx context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	return ctx.Err()
}

func torrent(id, status string, ratio float64, done time.Time) config.Torrent {
	return config.Torrent{
		ID:         id,
		Hash:       "hash-" + id,
		Name:       "torrent-" + id,
		Status:     status,
		Ratio:      ratio,
		DoneDate:   done,
		TotalBytes: 1 << 30,
	}
}

func ids(torrents []config.Torrent) []string {
	out := make([]string, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, t.ID)
	}
	return out
}

func decisionIDs(decisions []Decision) []string {
	out := make([]string, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, d.Torrent.ID)
	}
	return out
}
