package rsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t3bol90/csync/errors"
	"github.com/t3bol90/csync/executor"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{
			name:   "rsync 3",
			output: "rsync  version 3.2.7  protocol version 31\nCopyright (C) 1996-2022 by Andrew Tridgell, Wayne Davison, and others.\n",
			want:   "3.2.7",
		},
		{
			name:   "openrsync",
			output: "openrsync: protocol version 29\nrsync version 2.6.9 compatible\n",
			want:   "2.6.9",
		},
		{
			name:   "prefixed",
			output: "rsync  version v3.3.0  protocol version 32\n",
			want:   "3.3.0",
		},
		{
			name:    "garbage",
			output:  "command not found",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersion(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestOutdated(t *testing.T) {
	old, err := ParseVersion("rsync version 2.6.9 compatible")
	require.NoError(t, err)
	assert.True(t, Outdated(old))

	current, err := ParseVersion("rsync  version 3.0.0  protocol version 30")
	require.NoError(t, err)
	assert.False(t, Outdated(current))
}

func TestVersion(t *testing.T) {
	rec := newSpawnRecorder(func(ctx context.Context, opts ...executor.Option) (*executor.Result, error) {
		return &executor.Result{Stdout: "rsync  version 3.2.7  protocol version 31\n"}, nil
	})
	r := NewRunner(WithLookPath(foundAt("/usr/bin/rsync")), WithExecutorFactory(rec.factory))

	v, err := Version(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "3.2.7", v.String())
	assert.Equal(t, []string{"--version"}, rec.args)
	assert.True(t, rec.options.CaptureStdout)

	missing := NewRunner(WithLookPath(func(string) (string, error) {
		return "", assert.AnError
	}))
	_, err = Version(context.Background(), missing)
	assert.True(t, errors.HasCode(err, errors.CodeToolNotFound))
}
