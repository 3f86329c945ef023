//go:build integration

package remote

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/ssh"

	"github.com/t3bol90/csync/config"
)

// startSSHContainer runs linuxserver/openssh-server trusting pub and returns
// its host and mapped port.
func startSSHContainer(t *testing.T, pub ssh.PublicKey) (string, int) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "linuxserver/openssh-server:latest",
		ExposedPorts: []string{"2222/tcp"},
		Env: map[string]string{
			"PUID":            "1000",
			"PGID":            "1000",
			"TZ":              "UTC",
			"USER_NAME":       "csync",
			"PUBLIC_KEY":      string(ssh.MarshalAuthorizedKey(pub)),
			"PASSWORD_ACCESS": "false",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("2222/tcp"),
			wait.ForLog("sshd is listening on port").WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "2222/tcp")
	require.NoError(t, err)

	return host, port.Int()
}

func TestIntegration_Probe(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	keyPath := writeKey(t, t.TempDir(), "id_ed25519", priv)

	host, port := startSSHContainer(t, signer.PublicKey())
	cfg := config.SyncConfig{
		LocalPath:  t.TempDir(),
		RemoteHost: host,
		RemotePath: "/config/proj",
		SSHUser:    "csync",
		SSHPort:    port,
	}
	opts := ProbeOptions{
		KeyFiles:              []string{keyPath},
		KnownHostsFile:        filepath.Join(t.TempDir(), "absent"),
		InsecureIgnoreHostKey: true,
		Timeout:               5 * time.Second,
	}

	// sshd may log readiness before it accepts keys.
	var res ProbeResult
	require.Eventually(t, func() bool {
		res, err = Probe(context.Background(), cfg, opts)
		return err == nil
	}, 30*time.Second, 500*time.Millisecond)

	assert.Equal(t, "csync", res.User)
	assert.Contains(t, res.ServerVersion, "SSH-2.0-OpenSSH")

	bad := cfg
	bad.SSHUser = "nobody"
	_, err = Probe(context.Background(), bad, opts)
	assert.Error(t, err)
}
