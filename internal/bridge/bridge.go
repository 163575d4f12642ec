// Package bridge implements the hijack bridge: once a response has been
// latched into RAW mode, the client and upstream connections are pumped as
// raw bidirectional byte streams, with half-close propagated in each
// direction independently.
package bridge

import (
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// halfCloser is implemented by *net.TCPConn and *net.UnixConn. A connection
// that doesn't implement it (unusual for the transports this proxy supports)
// is simply closed outright instead of half-closed.
type halfCloser interface {
	CloseWrite() error
}

// ReaderConn wraps a net.Conn so reads are served from an alternate Reader
// (typically an *http.Response's Body, which may already hold bytes the
// connection's header parser buffered ahead) while every other method —
// Write, Close, CloseWrite, deadlines — still goes to the underlying
// connection. Pump needs this for the upstream side once a response has been
// parsed with http.ReadResponse: the bufio.Reader inside that call may have
// already read past the header boundary.
type ReaderConn struct {
	net.Conn
	Reader io.Reader
}

func (c *ReaderConn) Read(p []byte) (int, error) {
	return c.Reader.Read(p)
}

// CloseWrite delegates to the underlying connection's CloseWrite if it has
// one (true for *net.TCPConn and *net.UnixConn), otherwise closes it
// outright. Embedding net.Conn alone would not promote CloseWrite, since
// that method isn't part of the net.Conn interface.
func (c *ReaderConn) CloseWrite() error {
	if hc, ok := c.Conn.(halfCloser); ok {
		return hc.CloseWrite()
	}
	return c.Conn.Close()
}

// Pump bridges client and upstream until both directions have finished, then
// closes both connections. It blocks until the bridge tears down, so callers
// run it on the request goroutine and return once it's done.
func Pump(client, upstream net.Conn, logger zerolog.Logger) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		copyHalfClose(upstream, client, logger, "client->upstream")
	}()
	go func() {
		defer wg.Done()
		copyHalfClose(client, upstream, logger, "upstream->client")
	}()

	wg.Wait()

	client.Close()
	upstream.Close()
}

// copyHalfClose copies from src to dst until src reaches EOF or either side
// errors, then shuts down dst's write side (if it supports half-close)
// without tearing down the whole connection — the other direction may still
// have bytes in flight.
func copyHalfClose(dst io.Writer, src io.Reader, logger zerolog.Logger, direction string) {
	_, err := io.Copy(dst, src)
	if err != nil {
		logger.Debug().Err(err).Str("direction", direction).Msg("hijack bridge direction ended with error")
	}

	if hc, ok := dst.(halfCloser); ok {
		hc.CloseWrite()
	} else if c, ok := dst.(io.Closer); ok {
		c.Close()
	}
}
