//go:build unix

package diskspace

import (
	"golang.org/x/sys/unix"
)

func freeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}

	// Bavail excludes blocks reserved for root
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
