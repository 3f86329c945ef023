package remote

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/t3bol90/csync/config"
	"github.com/t3bol90/csync/errors"
)

const (
	// DefaultPort is used when the configuration leaves ssh_port unset.
	DefaultPort = 22

	// DefaultTimeout bounds the whole probe.
	DefaultTimeout = 10 * time.Second
)

// rsyncLookup is run on the remote to locate rsync.
const rsyncLookup = "command -v rsync"

// ProbeOptions configures Probe.
type ProbeOptions struct {
	// User is used when the configuration has no ssh_user. Defaults to $USER.
	User string

	// KeyFiles replaces the default ~/.ssh key files.
	KeyFiles []string

	// KnownHostsFile replaces ~/.ssh/known_hosts.
	KnownHostsFile string

	// InsecureIgnoreHostKey accepts any host key.
	InsecureIgnoreHostKey bool

	// AgentSocket replaces $SSH_AUTH_SOCK.
	AgentSocket string

	// HomeDir replaces the user's home directory when locating ~/.ssh.
	HomeDir string

	// Timeout bounds dialing, the handshake and the remote command.
	Timeout time.Duration

	Logger *slog.Logger
}

// ProbeResult describes a successful connection.
type ProbeResult struct {
	Addr          string
	User          string
	ServerVersion string

	// RemoteRsync is the path of rsync on the remote, or empty when it is
	// not installed.
	RemoteRsync string
}

// HasRemoteRsync reports whether rsync was found on the remote.
func (r ProbeResult) HasRemoteRsync() bool {
	return r.RemoteRsync != ""
}

// Probe connects to the host in cfg, authenticates and checks for rsync.
// Connection and authentication failures are SERVICE_UNAVAILABLE errors; a
// missing remote rsync is reported in the result.
func Probe(ctx context.Context, cfg config.SyncConfig, opts ProbeOptions) (ProbeResult, error) {
	if err := ctx.Err(); err != nil {
		return ProbeResult{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ProbeResult{}, err
	}

	logger := opts.Logger
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	res := ProbeResult{
		Addr: Address(cfg),
		User: probeUser(cfg, opts),
	}
	if res.User == "" {
		return res, errors.New(errors.CodeUnavailable, "no SSH user: set ssh_user or $USER")
	}

	home := opts.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	hostKeys, err := hostKeyCallback(opts, home, res.Addr, logger)
	if err != nil {
		return res, err
	}

	creds, err := buildCredentials(opts, home, logger)
	if err != nil {
		return res, err
	}
	defer creds.Close()

	clientConfig := &ssh.ClientConfig{
		User:            res.User,
		Auth:            creds.methods,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}

	if logger != nil {
		logger.DebugContext(ctx, "probing remote host", "addr", res.Addr, "user", res.User)
	}

	client, err := dial(ctx, res.Addr, clientConfig, timeout)
	if err != nil {
		return res, err
	}
	defer client.Close()

	res.ServerVersion = string(client.ServerVersion())

	path, err := lookupRsync(client)
	if err != nil {
		return res, errors.Wrap(err, errors.CodeUnavailable, "running "+rsyncLookup+" on "+res.Addr)
	}
	res.RemoteRsync = path

	if logger != nil {
		logger.DebugContext(ctx, "probe finished",
			"addr", res.Addr,
			"server_version", res.ServerVersion,
			"remote_rsync", res.RemoteRsync,
		)
	}
	return res, nil
}

// Address returns the host:port Probe dials for cfg.
func Address(cfg config.SyncConfig) string {
	port := cfg.SSHPort
	if port == 0 {
		port = DefaultPort
	}
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(cfg.RemoteHost), "["), "]")
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func probeUser(cfg config.SyncConfig, opts ProbeOptions) string {
	if cfg.SSHUser != "" {
		return cfg.SSHUser
	}
	if opts.User != "" {
		return opts.User
	}
	return os.Getenv("USER")
}

// dial connects and completes the SSH handshake. Cancelling ctx closes the
// connection, and the whole exchange must finish within timeout.
func dial(ctx context.Context, addr string, clientConfig *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "failed to connect to "+addr)
	}

	_ = conn.SetDeadline(time.Now().Add(timeout))
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		stop()
		_ = conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(err, errors.CodeUnavailable, "SSH handshake with "+addr+" failed")
	}

	client := ssh.NewClient(c, chans, reqs)
	go func() {
		_ = client.Wait()
		stop()
	}()
	return client, nil
}

// lookupRsync returns the remote path of rsync, or "" when the lookup exits
// non-zero.
func lookupRsync(client *ssh.Client) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	var out bytes.Buffer
	session.Stdout = &out
	err = session.Run(rsyncLookup)

	var exitErr *ssh.ExitError
	if stderrors.As(err, &exitErr) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}
