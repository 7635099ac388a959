package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/policy"
)

func testReport() *policy.Report {
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	retention := []policy.Decision{
		{Torrent: config.Torrent{ID: "1", TotalBytes: 1 << 30}, Reason: policy.ReasonRatio},
		{Torrent: config.Torrent{ID: "2", TotalBytes: 1 << 30}, Reason: policy.ReasonMaxAge},
		{Torrent: config.Torrent{ID: "3", TotalBytes: 1 << 30}, Reason: policy.ReasonRatio},
	}

	return &policy.Report{
		Started:          started,
		Finished:         started.Add(5 * time.Second),
		Retrieved:        10,
		Ignored:          2,
		Retention:        retention,
		RetentionRemoved: retention,
		Evicted: []policy.Decision{
			{Torrent: config.Torrent{ID: "4", TotalBytes: 2 << 30}, Reason: policy.ReasonFreeSpace},
		},
		Failures: []policy.Failure{
			{Torrent: config.Torrent{ID: "5"}, Err: errors.New("rpc failed")},
		},
		FreeSpaceGB:    80,
		BelowThreshold: true,
	}
}

func TestRun_Record(t *testing.T) {
	r := NewRun("Transmission")
	r.Record(testReport())

	assert.Equal(t, float64(2), testutil.ToFloat64(r.removed.WithLabelValues("ratio")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.removed.WithLabelValues("max-age")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.removed.WithLabelValues("free-space")))
	assert.Equal(t, float64(5<<30), testutil.ToFloat64(r.freed))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.failures))
	assert.Equal(t, float64(80), testutil.ToFloat64(r.freeSpace))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.below))
	assert.Equal(t, float64(5), testutil.ToFloat64(r.duration))
	assert.Equal(t, float64(10), testutil.ToFloat64(r.retrieved.WithLabelValues("retrieved")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.retrieved.WithLabelValues("ignored")))
}

func TestRun_RecordDryRun(t *testing.T) {
	rep := testReport()
	rep.RetentionRemoved = nil
	rep.Evicted = nil

	r := NewRun("Transmission")
	r.Record(rep)

	assert.Zero(t, testutil.ToFloat64(r.removed.WithLabelValues("ratio")))
	assert.Zero(t, testutil.ToFloat64(r.freed))
}

func TestRun_RecordNil(t *testing.T) {
	r := NewRun("Transmission")
	r.Record(nil)

	assert.Zero(t, testutil.ToFloat64(r.freeSpace))
}

func TestRun_WriteTextfile(t *testing.T) {
	r := NewRun("Transmission")
	r.Record(testReport())

	path := filepath.Join(t.TempDir(), "seedgc.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(b)
	assert.Contains(t, out, `seedgc_removed_torrents_total{client="Transmission",reason="ratio"} 2`)
	assert.Contains(t, out, `seedgc_free_space_gigabytes{client="Transmission"} 80`)
	assert.Contains(t, out, "# TYPE seedgc_below_threshold gauge")
}

func TestRun_WriteTextfileError(t *testing.T) {
	r := NewRun("Transmission")

	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "seedgc.prom"))
	assert.Error(t, err)
}
