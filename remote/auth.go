package remote

import (
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/t3bol90/csync/errors"
)

// DefaultKeyFiles are the private keys tried, relative to ~/.ssh, when no
// key files are given.
var DefaultKeyFiles = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// credentials holds the auth methods for one connection and anything that
// must be released afterwards.
type credentials struct {
	methods []ssh.AuthMethod
	closers []io.Closer
}

func (c *credentials) Close() error {
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	return stderrors.Join(errs...)
}

// buildCredentials collects the agent and key file signers. Missing or
// unusable keys are skipped; it fails only when nothing is left.
func buildCredentials(opts ProbeOptions, home string, logger *slog.Logger) (*credentials, error) {
	creds := &credentials{}

	sock := opts.AgentSocket
	if sock == "" {
		sock = os.Getenv("SSH_AUTH_SOCK")
	}
	if sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			creds.methods = append(creds.methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			creds.closers = append(creds.closers, conn)
		} else if logger != nil {
			logger.Debug("ssh agent unavailable", "socket", sock, "error", err)
		}
	}

	var signers []ssh.Signer
	for _, path := range keyFiles(opts, home) {
		signer, err := loadSigner(path)
		if err != nil {
			if logger != nil && !stderrors.Is(err, os.ErrNotExist) {
				logger.Debug("skipping private key", "path", path, "error", err)
			}
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		creds.methods = append(creds.methods, ssh.PublicKeys(signers...))
	}

	if len(creds.methods) == 0 {
		_ = creds.Close()
		return nil, errors.New(errors.CodeUnavailable,
			"no SSH credentials available: start ssh-agent or create a key in ~/.ssh")
	}
	return creds, nil
}

func keyFiles(opts ProbeOptions, home string) []string {
	if len(opts.KeyFiles) > 0 {
		return opts.KeyFiles
	}
	if home == "" {
		return nil
	}

	paths := make([]string, len(DefaultKeyFiles))
	for i, name := range DefaultKeyFiles {
		paths[i] = filepath.Join(home, ".ssh", name)
	}
	return paths
}

// loadSigner parses an unencrypted private key. Encrypted keys are left to
// the agent.
func loadSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(data)
}

// hostKeyCallback verifies host keys against known_hosts. Verification is
// only skipped when explicitly requested.
func hostKeyCallback(opts ProbeOptions, home, addr string, logger *slog.Logger) (ssh.HostKeyCallback, error) {
	if opts.InsecureIgnoreHostKey {
		if logger != nil {
			logger.Warn("SSH host key verification disabled", "addr", addr)
		}
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // requested by the caller.
	}

	path := opts.KnownHostsFile
	if path == "" && home != "" {
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	if path == "" {
		return nil, errors.New(errors.CodeUnavailable, "no known_hosts file to verify the host key against")
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeUnavailable,
			"loading known_hosts; connect once with ssh or skip verification with --insecure",
			map[string]interface{}{errors.KeyPath: path})
	}
	return callback, nil
}
