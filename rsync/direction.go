package rsync

import (
	"strings"

	"github.com/t3bol90/csync/errors"
)

// Direction selects which side of a transfer is the source.
type Direction int

const (
	// Upload copies the local tree to the remote host.
	Upload Direction = iota
	// Download copies the remote tree to the local directory.
	Download
)

// String returns "upload" or "download".
func (d Direction) String() string {
	if d == Download {
		return "download"
	}
	return "upload"
}

// ParseDirection accepts upload, push, download and pull, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upload", "push":
		return Upload, nil
	case "download", "pull":
		return Download, nil
	default:
		return Upload, errors.Newf(errors.CodeInvalidInput, "unknown direction %q: want upload, push, download or pull", s)
	}
}
