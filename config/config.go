// Package config resolves the csync project configuration.
//
// A project is configured by a small file in one of three formats (INI, JSON
// or YAML) placed in the project directory or any of its ancestors. The
// package locates that file, decodes it, applies defaults, merges exclude
// patterns derived from the project's .gitignore and validates the result
// into a SyncConfig.
//
// # Basic Usage
//
//	import (
//	    "context"
//	    "github.com/t3bol90/csync/config"
//	    "github.com/t3bol90/csync/fs/billy"
//	)
//
//	func main() {
//	    cwd, _ := os.Getwd()
//	    home, _ := os.UserHomeDir()
//
//	    cfg, err := config.Resolve(context.Background(), billy.NewBaseOSFS(), config.ResolveOptions{
//	        StartDir: cwd,
//	        HomeDir:  home,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(cfg.RemoteTarget())
//	}
//
// # Recognised files
//
// Discovery checks, in priority order, .csync.cfg and .csync.ini (INI),
// .csync.json and .csync_config.json (JSON), then .csync.yaml, .csync.yml,
// .csync_config.yaml and .csync_config.yml (YAML). See Discover.
package config

import (
	"strings"

	"github.com/t3bol90/csync/errors"
)

// Field names as they appear in configuration files.
const (
	KeyLocalPath        = "local_path"
	KeyRemoteHost       = "remote_host"
	KeyRemotePath       = "remote_path"
	KeySSHUser          = "ssh_user"
	KeySSHPort          = "ssh_port"
	KeySyncOptions      = "sync_options"
	KeyExcludePatterns  = "exclude_patterns"
	KeyRespectGitignore = "respect_gitignore"

	// keyRsyncOptions is accepted as an alias of KeySyncOptions.
	keyRsyncOptions = "rsync_options"
)

// MaxPort is the largest valid TCP port.
const MaxPort = 65535

// DefaultSyncOptions returns the options passed to rsync when a configuration
// does not list its own. A fresh slice is returned on every call.
func DefaultSyncOptions() []string {
	return []string{"-av", "--progress"}
}

// DefaultExcludePatterns returns the exclude patterns used when a
// configuration does not list its own. A fresh slice is returned on every call.
func DefaultExcludePatterns() []string {
	return []string{
		".git/",
		"__pycache__/",
		"*.pyc",
		".DS_Store",
		"node_modules/",
		".venv/",
		"venv/",
		".pytest_cache/",
		"*.log",
	}
}

// SyncConfig is a fully resolved project configuration.
// Values are returned by Resolve and are not modified afterwards; callers that
// need to extend a slice must copy it first.
type SyncConfig struct {
	// LocalPath is the absolute project directory. A trailing separator written
	// in the file is kept so rsync copies the directory contents.
	LocalPath string

	// RemoteHost is the SSH host name or address.
	RemoteHost string

	// RemotePath is the destination path on the remote host, used verbatim.
	RemotePath string

	// SSHUser is the remote login. Empty means the transport default.
	SSHUser string

	// SSHPort is the remote SSH port. Zero means the transport default.
	SSHPort int

	// SyncOptions are passed to rsync in order before any generated argument.
	SyncOptions []string

	// ExcludePatterns are passed to rsync as --exclude arguments, in order.
	ExcludePatterns []string

	// RespectGitignore adds the project's .gitignore patterns to ExcludePatterns.
	RespectGitignore bool

	// Source is the file the configuration was read from.
	Source string
}

// RemoteTarget returns the rsync remote operand, [user@]host:path.
// IPv6 literals are bracketed so the host/path separator stays unambiguous.
func (c SyncConfig) RemoteTarget() string {
	host := c.RemoteHost
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}

	var b strings.Builder
	if c.SSHUser != "" {
		b.WriteString(c.SSHUser)
		b.WriteByte('@')
	}
	b.WriteString(host)
	b.WriteByte(':')
	b.WriteString(c.RemotePath)
	return b.String()
}

// Validate checks the invariants of a resolved configuration.
// Required fields are checked in the order local_path, remote_host, remote_path.
func (c SyncConfig) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyLocalPath, c.LocalPath},
		{KeyRemoteHost, c.RemoteHost},
		{KeyRemotePath, c.RemotePath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.Validation(r.key, "required field is missing or empty")
		}
	}

	if c.SSHPort != 0 && (c.SSHPort < 1 || c.SSHPort > MaxPort) {
		return errors.Validation(KeySSHPort, "must be between 1 and 65535")
	}

	return nil
}
