package rsync

import (
	"context"
	"regexp"

	"github.com/Masterminds/semver/v3"

	"github.com/t3bol90/csync/errors"
	"github.com/t3bol90/csync/executor"
)

// MinimumVersion is the oldest rsync release csync is tested against.
// Older releases still run; callers only warn.
var MinimumVersion = semver.MustParse("3.0.0")

var versionPattern = regexp.MustCompile(`version\s+v?(\d+\.\d+(?:\.\d+)?)`)

// Version runs `<program> --version` through r and returns the reported release.
func Version(ctx context.Context, r *Runner) (*semver.Version, error) {
	path, err := r.lookPath(r.program)
	if err != nil {
		return nil, errors.ToolNotFound(r.program, r.program+" --version", err)
	}

	result, err := r.newExecutor(path, "--version").Execute(ctx, executor.SilentMode())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "running "+r.program+" --version")
	}

	return ParseVersion(result.Stdout)
}

// ParseVersion extracts the release number from rsync --version output, as in
// "rsync  version 3.2.7  protocol version 31".
func ParseVersion(output string) (*semver.Version, error) {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, errors.New(errors.CodeInternal, "no version number in rsync --version output")
	}

	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "parsing rsync version "+m[1])
	}
	return v, nil
}

// Outdated reports whether v is older than MinimumVersion.
func Outdated(v *semver.Version) bool {
	return v.LessThan(MinimumVersion)
}
