// Package upstream dials fresh connections to the Docker daemon, over either
// TCP or a Unix domain socket, one connection per proxied request.
package upstream

import (
	"context"
	"fmt"
	"net"

	"github.com/powerstrip/powerstrip/internal/config"
	"github.com/powerstrip/powerstrip/internal/errs"
)

// Dialer opens one fresh byte-stream connection to the Docker daemon per
// call. It never pools connections: some Docker API endpoints (attach,
// events) hold the connection open indefinitely, so connection-per-request
// is the only safe model.
type Dialer struct {
	selector config.UpstreamSelector
	net      net.Dialer
}

// New builds a Dialer for the given upstream selector.
func New(selector config.UpstreamSelector) *Dialer {
	return &Dialer{selector: selector}
}

// Dial opens a new connection to the Docker daemon, honoring ctx for
// cancellation (e.g. the proxied request's client disconnecting).
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	conn, err := d.net.DialContext(ctx, string(d.selector.Network), d.selector.Address)
	if err != nil {
		return nil, &errs.UpstreamError{Op: "dial", Err: fmt.Errorf("%s %s: %w", d.selector.Network, d.selector.Address, err)}
	}
	return conn, nil
}

// Authority returns the Host header value to present to the upstream: the
// dotted host:port for TCP, or the fixed placeholder "docker" for Unix
// (Docker's own daemon ignores Host when listening on a Unix socket but
// expects a well-formed header to be present).
func (d *Dialer) Authority() string {
	if d.selector.Network == config.UpstreamUnix {
		return "docker"
	}
	return d.selector.Address
}
