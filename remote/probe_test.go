package remote

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/t3bol90/csync/config"
	"github.com/t3bol90/csync/errors"
)

// testServer is a minimal SSH server that answers exec requests.
type testServer struct {
	addr    string
	hostKey ssh.Signer

	mu       sync.Mutex
	users    []string
	commands []string
}

// startServer accepts clients presenting authorized and answers each exec
// request with handle.
func startServer(t *testing.T, authorized ssh.PublicKey, handle func(cmd string) (string, uint32)) *testServer {
	t.Helper()

	_, hostKey := newKey(t)
	srv := &testServer{hostKey: hostKey}

	cfg := &ssh.ServerConfig{
		ServerVersion: "SSH-2.0-csync-test",
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if !bytes.Equal(key.Marshal(), authorized.Marshal()) {
				return nil, fmt.Errorf("unknown public key for %q", conn.User())
			}
			srv.mu.Lock()
			srv.users = append(srv.users, conn.User())
			srv.mu.Unlock()
			return nil, nil
		},
	}
	cfg.AddHostKey(hostKey)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	srv.addr = ln.Addr().String()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.serve(conn, cfg, handle)
		}
	}()
	return srv
}

func (s *testServer) serve(conn net.Conn, cfg *ssh.ServerConfig, handle func(string) (string, uint32)) {
	defer conn.Close()

	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "sessions only")
			continue
		}
		ch, chReqs, err := nc.Accept()
		if err != nil {
			return
		}
		go s.session(ch, chReqs, handle)
	}
}

func (s *testServer) session(ch ssh.Channel, reqs <-chan *ssh.Request, handle func(string) (string, uint32)) {
	defer ch.Close()

	for req := range reqs {
		if req.Type != "exec" {
			_ = req.Reply(false, nil)
			continue
		}

		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		s.mu.Lock()
		s.commands = append(s.commands, payload.Command)
		s.mu.Unlock()

		out, status := handle(payload.Command)
		_, _ = io.WriteString(ch, out)
		_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
		return
	}
}

func (s *testServer) seen() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.users...), append([]string(nil), s.commands...)
}

// knownHosts writes a known_hosts file trusting key for the server's address.
func (s *testServer) knownHosts(t *testing.T, key ssh.PublicKey) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(s.addr)}, key) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(line), 0o600))
	return path
}

// config returns a configuration pointing at the server.
func (s *testServer) config(t *testing.T, user string) config.SyncConfig {
	t.Helper()

	host, port, err := net.SplitHostPort(s.addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return config.SyncConfig{
		LocalPath:  t.TempDir(),
		RemoteHost: host,
		RemotePath: "/srv/proj",
		SSHUser:    user,
		SSHPort:    p,
	}
}

func newKey(t *testing.T) (ed25519.PrivateKey, ssh.Signer) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	return priv, signer
}

func writeKey(t *testing.T, dir, name string, priv ed25519.PrivateKey) string {
	t.Helper()

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))
	return path
}

func rsyncInstalled(cmd string) (string, uint32) {
	if cmd == rsyncLookup {
		return "/usr/bin/rsync\n", 0
	}
	return "", 127
}

func TestProbe(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	clientPriv, clientSigner := newKey(t)
	keyPath := writeKey(t, t.TempDir(), "id_ed25519", clientPriv)

	t.Run("success", func(t *testing.T) {
		srv := startServer(t, clientSigner.PublicKey(), rsyncInstalled)

		res, err := Probe(context.Background(), srv.config(t, "deploy"), ProbeOptions{
			KeyFiles:       []string{keyPath},
			KnownHostsFile: srv.knownHosts(t, srv.hostKey.PublicKey()),
		})
		require.NoError(t, err)

		assert.Equal(t, srv.addr, res.Addr)
		assert.Equal(t, "deploy", res.User)
		assert.Equal(t, "SSH-2.0-csync-test", res.ServerVersion)
		assert.Equal(t, "/usr/bin/rsync", res.RemoteRsync)
		assert.True(t, res.HasRemoteRsync())

		users, commands := srv.seen()
		assert.Contains(t, users, "deploy")
		assert.Equal(t, []string{rsyncLookup}, commands)
	})

	t.Run("remote without rsync", func(t *testing.T) {
		srv := startServer(t, clientSigner.PublicKey(), func(string) (string, uint32) { return "", 1 })

		res, err := Probe(context.Background(), srv.config(t, "deploy"), ProbeOptions{
			KeyFiles:       []string{keyPath},
			KnownHostsFile: srv.knownHosts(t, srv.hostKey.PublicKey()),
		})
		require.NoError(t, err)
		assert.False(t, res.HasRemoteRsync())
	})

	t.Run("default key files and user", func(t *testing.T) {
		home := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0o700))
		writeKey(t, filepath.Join(home, ".ssh"), "id_ecdsa", clientPriv)
		require.NoError(t, os.WriteFile(filepath.Join(home, ".ssh", "id_rsa"), []byte("not a key"), 0o600))

		srv := startServer(t, clientSigner.PublicKey(), rsyncInstalled)
		known := srv.knownHosts(t, srv.hostKey.PublicKey())
		require.NoError(t, os.Rename(known, filepath.Join(home, ".ssh", "known_hosts")))
		t.Setenv("USER", "fallback")

		res, err := Probe(context.Background(), srv.config(t, ""), ProbeOptions{HomeDir: home})
		require.NoError(t, err)
		assert.Equal(t, "fallback", res.User)
	})

	t.Run("agent", func(t *testing.T) {
		keyring := agent.NewKeyring()
		require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: clientPriv}))

		sock := filepath.Join(t.TempDir(), "agent.sock")
		ln, err := net.Listen("unix", sock)
		if err != nil {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Cleanup(func() { _ = ln.Close() })
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				go func() {
					defer conn.Close()
					_ = agent.ServeAgent(keyring, conn)
				}()
			}
		}()

		srv := startServer(t, clientSigner.PublicKey(), rsyncInstalled)
		res, err := Probe(context.Background(), srv.config(t, "deploy"), ProbeOptions{
			AgentSocket:    sock,
			KeyFiles:       []string{filepath.Join(t.TempDir(), "missing")},
			KnownHostsFile: srv.knownHosts(t, srv.hostKey.PublicKey()),
		})
		require.NoError(t, err)
		assert.True(t, res.HasRemoteRsync())
	})

	t.Run("host key mismatch", func(t *testing.T) {
		srv := startServer(t, clientSigner.PublicKey(), rsyncInstalled)
		_, other := newKey(t)

		_, err := Probe(context.Background(), srv.config(t, "deploy"), ProbeOptions{
			KeyFiles:       []string{keyPath},
			KnownHostsFile: srv.knownHosts(t, other.PublicKey()),
		})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeUnavailable))

		_, commands := srv.seen()
		assert.Empty(t, commands)
	})

	t.Run("insecure skips verification", func(t *testing.T) {
		srv := startServer(t, clientSigner.PublicKey(), rsyncInstalled)

		_, err := Probe(context.Background(), srv.config(t, "deploy"), ProbeOptions{
			KeyFiles:              []string{keyPath},
			KnownHostsFile:        filepath.Join(t.TempDir(), "absent"),
			InsecureIgnoreHostKey: true,
		})
		require.NoError(t, err)
	})

	t.Run("missing known_hosts", func(t *testing.T) {
		srv := startServer(t, clientSigner.PublicKey(), rsyncInstalled)
		missing := filepath.Join(t.TempDir(), "absent")

		_, err := Probe(context.Background(), srv.config(t, "deploy"), ProbeOptions{
			KeyFiles:       []string{keyPath},
			KnownHostsFile: missing,
		})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeUnavailable))

		path, ok := errors.GetContext(err, errors.KeyPath)
		require.True(t, ok)
		assert.Equal(t, missing, path)
	})

	t.Run("rejected key", func(t *testing.T) {
		_, serverOnly := newKey(t)
		srv := startServer(t, serverOnly.PublicKey(), rsyncInstalled)

		_, err := Probe(context.Background(), srv.config(t, "deploy"), ProbeOptions{
			KeyFiles:       []string{keyPath},
			KnownHostsFile: srv.knownHosts(t, srv.hostKey.PublicKey()),
		})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeUnavailable))
	})

	t.Run("no credentials", func(t *testing.T) {
		srv := startServer(t, clientSigner.PublicKey(), rsyncInstalled)

		_, err := Probe(context.Background(), srv.config(t, "deploy"), ProbeOptions{
			KeyFiles:       []string{filepath.Join(t.TempDir(), "missing")},
			KnownHostsFile: srv.knownHosts(t, srv.hostKey.PublicKey()),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no SSH credentials")
	})

	t.Run("nothing listening", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().(*net.TCPAddr)
		require.NoError(t, ln.Close())

		cfg := config.SyncConfig{LocalPath: "/l", RemoteHost: "127.0.0.1", RemotePath: "/r", SSHUser: "u", SSHPort: addr.Port}
		_, err = Probe(context.Background(), cfg, ProbeOptions{
			KeyFiles:              []string{keyPath},
			InsecureIgnoreHostKey: true,
		})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeUnavailable))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Probe(ctx, config.SyncConfig{LocalPath: "/l", RemoteHost: "h", RemotePath: "/r"}, ProbeOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := Probe(context.Background(), config.SyncConfig{LocalPath: "/l", RemotePath: "/r"}, ProbeOptions{})
		require.Error(t, err)
		assert.Equal(t, config.KeyRemoteHost, errors.Field(err))
	})
}

func TestAddress(t *testing.T) {
	tests := []struct {
		cfg  config.SyncConfig
		want string
	}{
		{config.SyncConfig{RemoteHost: "example.com"}, "example.com:22"},
		{config.SyncConfig{RemoteHost: "example.com", SSHPort: 2222}, "example.com:2222"},
		{config.SyncConfig{RemoteHost: "::1"}, "[::1]:22"},
		{config.SyncConfig{RemoteHost: "[fe80::1]", SSHPort: 2200}, "[fe80::1]:2200"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Address(tt.cfg))
	}
}
