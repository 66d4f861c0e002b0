// wait.go implements the bounded waits around instance startup and
// shutdown. Both are observation loops, not supervision: they watch for a
// state transition and report a timeout, they never restart anything.
package port

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sethvargo/go-retry"
)

// probeInterval is the delay between consecutive connection/bind probes.
// 250ms keeps perceived startup latency low without hammering the
// network stack.
const probeInterval = 250 * time.Millisecond

// dialTimeout bounds a single TCP connect probe. Connections to a
// non-listening local port fail almost instantly; the timeout only
// matters for pathological network configurations.
const dialTimeout = time.Second

// WaitForListen blocks until a TCP connection to host:port succeeds,
// polling at a fixed interval, or until the deadline elapses.
//
// This implements the startup property of the launch contract: a started
// container instance must result in a process listening on the published
// port within a bounded startup timeout.
//
// The ctx may carry an earlier deadline or be cancelled; cancellation is
// reported as an error.
//
// Known limitation: when the probed port is a Docker-published one,
// Docker's userland proxy may accept the TCP handshake before the
// process inside the container listens. A successful dial therefore
// means "the publish path is up", not "the app answered a request".
// Callers that need the stronger guarantee keep watching the container
// state after this returns.
func WaitForListen(ctx context.Context, host string, port int, timeout time.Duration) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	backoff := retry.NewConstant(probeInterval)
	backoff = retry.WithMaxDuration(timeout, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		conn, dialErr := net.DialTimeout("tcp", addr, dialTimeout)
		if dialErr != nil {
			// Not listening yet — keep polling until the deadline.
			return retry.RetryableError(dialErr)
		}
		_ = conn.Close()
		return nil
	})
	if err != nil {
		return fmt.Errorf("port %d did not start listening within %s: %w", port, timeout, err)
	}
	return nil
}

// WaitForRelease blocks until the given TCP port can be bound on the
// host, polling at a fixed interval, or until the deadline elapses.
//
// This implements the shutdown property of the launch contract: stopping
// a running instance must release the bound port within a bounded
// shutdown timeout, with no lingering listening socket.
func WaitForRelease(ctx context.Context, scanner *Scanner, port int, timeout time.Duration) error {
	backoff := retry.NewConstant(probeInterval)
	backoff = retry.WithMaxDuration(timeout, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if !scanner.IsPortAvailable(port) {
			return retry.RetryableError(fmt.Errorf("port %d still bound", port))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("port %d was not released within %s: %w", port, timeout, err)
	}
	return nil
}
