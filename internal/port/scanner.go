// Package port implements host port availability scanning and bounded
// waits for the two observable port transitions of the launch contract:
// a started instance must begin listening within a startup timeout, and a
// stopped instance must release its port within a shutdown timeout.
package port

import (
	"fmt"
	"net"
)

// Scanner checks whether specific TCP ports are available on the host
// machine.
//
// It uses the operating system's network stack (net.Listen) to determine
// if a port is free. This is the most reliable method because it asks the
// OS directly, rather than parsing /proc/net/* or relying on external
// commands like `lsof` or `ss` which may require elevated permissions.
//
// The struct is currently stateless, but is defined as a struct (rather
// than bare functions) so that future options (e.g. bind address) can be
// added without breaking the API, and so the Scanner is injectable as a
// dependency in tests.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable checks whether a single TCP port is free on the host.
//
// It attempts net.Listen("tcp", ":port"); if the bind succeeds the port
// is available and the probe listener is immediately closed. We bind to
// all interfaces (":port" rather than "127.0.0.1:port") because Docker
// publishes ports on 0.0.0.0, so the check must cover the same address
// space to avoid false positives.
func (s *Scanner) IsPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}

// FindAvailablePort scans ports [startPort, endPort] (inclusive) and
// returns the first one that is free.
//
// The search is sequential from startPort upward. This deterministic
// ordering means the same free port is selected consistently, which keeps
// --auto-port behavior predictable across runs.
//
// Returns an error if no port in the range is free.
func (s *Scanner) FindAvailablePort(startPort, endPort int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		if s.IsPortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available TCP port found in range %d-%d", startPort, endPort)
}
