package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// defaultPingTimeout is the maximum duration to wait for a Docker daemon
// response during a Ping operation. 5 seconds is generous enough for most
// environments, including Docker Desktop on macOS which can be slower
// than native Linux Docker.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. It handles automatic Docker
// socket detection across platforms (Linux, macOS, Windows) and provides
// methods for verifying Docker daemon connectivity.
//
// Usage:
//
//	c, err := docker.NewClient()
//	if err != nil { /* handle */ }
//	defer c.Close()
//	if err := c.Ping(ctx); err != nil { /* Docker not running */ }
type Client struct {
	// inner is the underlying Docker SDK client. We wrap it rather than
	// embedding it to control the exposed API surface.
	inner *client.Client
}

// NewClient creates a new Docker client with automatic socket detection.
//
// The detection strategy follows this priority order:
//  1. DOCKER_HOST environment variable (if set, used as-is)
//  2. Platform-specific default socket paths:
//     - Linux: /var/run/docker.sock
//     - macOS: /var/run/docker.sock, then ~/.docker/run/docker.sock
//     - Windows: npipe:////./pipe/docker_engine (Docker Named Pipe)
//
// Returns a model.CLIError with ExitDockerNotRunning if no Docker socket
// is found or the client cannot be created.
func NewClient() (*Client, error) {
	// When DOCKER_HOST is set we respect it unconditionally and let the
	// Docker SDK handle the connection string parsing.
	if dockerHost := os.Getenv("DOCKER_HOST"); dockerHost != "" {
		return newClientWithHost(dockerHost)
	}

	host, err := detectDockerHost()
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker socket not found",
			err,
		)
	}

	return newClientWithHost(host)
}

// newClientWithHost creates a Docker client connected to the specified
// host. WithAPIVersionNegotiation ensures compatibility across daemon
// versions without hardcoding a specific API version.
func newClientWithHost(host string) (*Client, error) {
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}

	return &Client{inner: c}, nil
}

// detectDockerHost determines the Docker socket path for the current
// platform. It probes known socket paths and returns the first one that
// exists. Existence checks are fast and don't require a running daemon;
// the Ping method handles connectivity verification.
func detectDockerHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
		})

	case "darwin":
		// Docker Desktop creates a symlink at the standard path; newer
		// versions may only provide the per-user socket.
		paths := []string{"/var/run/docker.sock"}
		if homeDir, err := os.UserHomeDir(); err == nil {
			paths = append(paths, homeDir+"/.docker/run/docker.sock")
		}
		return detectUnixSocket(paths)

	case "windows":
		// Windows uses Named Pipes. os.Stat does not work on named pipes,
		// so probe with a brief dial instead.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, 1*time.Second)
		if err == nil {
			conn.Close()
			return "npipe://" + pipePath, nil
		}
		return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// detectUnixSocket probes a list of Unix socket paths and returns the
// Docker host URI for the first socket that exists on the filesystem.
// Paths are checked in order, most-preferred first.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf(
		"Docker socket not found at any of: %v — is Docker running?",
		paths,
	)
}

// Ping verifies that the Docker daemon is reachable and responsive.
// It sends a lightweight ping request and waits up to defaultPingTimeout
// for a response.
//
// Returns a model.CLIError with ExitDockerNotRunning if the daemon does
// not respond or returns an error.
func (c *Client) Ping(ctx context.Context) error {
	// A child context with timeout prevents hanging indefinitely if the
	// daemon is unresponsive (e.g. Docker Desktop is paused).
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding — is Docker running?",
			err,
		)
	}
	return nil
}

// Close releases all resources held by the Docker client. Safe to call
// multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner returns the underlying Docker SDK client for operations that are
// not exposed through the Client wrapper. Callers should prefer Client
// methods over Inner() when possible.
func (c *Client) Inner() *client.Client {
	return c.inner
}
