// Package fsbridge provides adapters between fs.Filesystem and billy.Filesystem.
// This lets go-git's ignore matcher walk the same tree csync resolves configuration from.
package fsbridge

import (
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/t3bol90/csync/fs"
	fsb "github.com/t3bol90/csync/fs/billy"
)

// ToBillyFilesystem converts an fs.Filesystem to a billy.Filesystem.
// The passed filesystem must be a billy.FS wrapper from the fs/billy package.
// If not, an error is returned.
//
//nolint:ireturn // returns interface as required by billy.Filesystem interface
func ToBillyFilesystem(fsys fs.Filesystem) (billy.Filesystem, error) {
	billyFS, ok := fsys.(*fsb.FS)
	if !ok {
		return nil, fmt.Errorf("filesystem must be a billy.FS from fs/billy package, got %T", fsys)
	}

	return billyFS.Raw(), nil
}

// Chroot converts fsys and roots the result at dir.
//
//nolint:ireturn // returns interface as required by billy.Filesystem interface
func Chroot(fsys fs.Filesystem, dir string) (billy.Filesystem, error) {
	bfs, err := ToBillyFilesystem(fsys)
	if err != nil {
		return nil, err
	}
	root, err := bfs.Chroot(dir)
	if err != nil {
		return nil, fmt.Errorf("chroot %q: %w", dir, err)
	}
	return root, nil
}
