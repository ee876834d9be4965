package attach

import (
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/docker/go-connections/sockets"
	"github.com/docker/go-connections/tlsconfig"
)

// DefaultHost is the engine socket on Linux hosts.
const DefaultHost = "unix:///var/run/docker.sock"

// defaultDialTimeout bounds connection establishment. Established
// sessions have no protocol-level timeout; see package duplex.
const defaultDialTimeout = 10 * time.Second

// ParseHost splits an engine host reference like
// "unix:///var/run/docker.sock", "tcp://10.0.0.5:2375", or
// "npipe:////./pipe/docker_engine" into the network and address
// arguments Dial expects.
func ParseHost(host string) (network, address string, err error) {
	scheme, rest, ok := strings.Cut(host, "://")
	if !ok || scheme == "" || rest == "" {
		return "", "", fmt.Errorf("unable to parse host %q: expected <scheme>://<address>", host)
	}
	switch scheme {
	case "unix", "npipe":
		return scheme, rest, nil
	case "tcp":
		// Drop any path component; only host:port matters for dialing.
		if hostPort, _, hasPath := strings.Cut(rest, "/"); hasPath {
			rest = hostPort
		}
		return scheme, rest, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q in host %q", scheme, host)
	}
}

// Dial connects to the engine socket with the default timeout.
func Dial(network, address string) (net.Conn, error) {
	return DialTimeout(network, address, defaultDialTimeout)
}

// DialTimeout connects to the engine socket, failing after the given
// timeout. Named pipes are only dialable on Windows hosts.
func DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	switch network {
	case "npipe":
		conn, err := sockets.DialPipe(address, timeout)
		if err != nil {
			return nil, fmt.Errorf("dial pipe %s: %w", address, err)
		}
		return conn, nil
	default:
		conn, err := net.DialTimeout(network, address, timeout)
		if err != nil {
			return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
		}
		return conn, nil
	}
}

// DialTLS connects to a TCP engine endpoint protected by TLS, using
// certificate material in the usual engine layout (CA, client cert,
// client key).
func DialTLS(address string, options tlsconfig.Options, timeout time.Duration) (net.Conn, error) {
	config, err := tlsconfig.Client(options)
	if err != nil {
		return nil, fmt.Errorf("build TLS configuration: %w", err)
	}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: timeout}, "tcp", address, config)
	if err != nil {
		return nil, fmt.Errorf("dial tls %s: %w", address, err)
	}
	return conn, nil
}
