package diskspace

import (
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/logger"
)

const bytesPerGB = 1 << 30

// ErrProbe is returned when free space cannot be determined for a path.
var ErrProbe = errors.New("free space probe failed")

type Probe struct {
	log *logrus.Entry
}

func New() *Probe {
	return &Probe{
		log: logger.GetLogger("diskspace"),
	}
}

// FreeSpaceGB returns the space available to unprivileged users on the filesystem
// holding path, in whole gigabytes rounded down.
func (p *Probe) FreeSpaceGB(path string) (int64, error) {
	free, err := freeBytes(path)
	if err != nil {
		return 0, errors.Wrapf(ErrProbe, "%s: %v", path, err)
	}

	if p.log != nil {
		p.log.Tracef("Free space on %q: %v", path, humanize.IBytes(free))
	}

	return toGB(free), nil
}

func toGB(b uint64) int64 {
	return int64(b / bytesPerGB)
}
