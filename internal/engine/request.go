package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/powerstrip/powerstrip/internal/errs"
)

const (
	contentTypeJSON = "application/json"
	contentTypeTar  = "application/tar"
)

// capturedBody returns the hook-visible body for a request with the given
// Content-Type: the body as a string for JSON requests, nil otherwise. The
// raw bytes always flow to Docker regardless of what this returns.
func capturedBody(contentType string, body []byte) *string {
	if mimeType(contentType) != contentTypeJSON {
		return nil
	}
	s := string(body)
	return &s
}

// isBinaryUpload reports whether pre-hooks must be skipped entirely for this
// request: a tar-encoded build context cannot be JSON-encoded into an
// adapter payload.
func isBinaryUpload(contentType string) bool {
	return mimeType(contentType) == contentTypeTar
}

// mimeType strips any ";charset=..." parameters so "application/json;
// charset=utf-8" still matches "application/json".
func mimeType(contentType string) string {
	for i, c := range contentType {
		if c == ';' {
			return contentType[:i]
		}
	}
	return contentType
}

// buildUpstreamHeaders clones the inbound request headers, stripping
// hop-by-hop headers and any Transfer-Encoding — the body has already been
// fully buffered by the time it reaches the upstream, so chunked framing on
// the way in is never applicable.
func buildUpstreamHeaders(src http.Header) http.Header {
	h := make(http.Header, len(src))
	copyHeaders(h, src)
	cleanHopHeaders(h)
	h.Del("Transfer-Encoding")
	return h
}

// dispatch opens a fresh upstream connection, writes the (possibly
// pre-hook-modified) request over it, and parses the response headers. The
// returned net.Conn must be closed by the caller once the response has been
// fully handled (or handed off to the hijack bridge).
func (e *Engine) dispatch(ctx context.Context, method, uri string, body []byte, headers http.Header) (*upstreamResponse, error) {
	conn, err := e.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	base := &url.URL{Scheme: "http", Host: e.dialer.Authority()}
	ref, err := url.Parse(uri)
	if err != nil {
		conn.Close()
		return nil, &errs.UpstreamError{Op: "write", Err: fmt.Errorf("invalid request target %q: %w", uri, err)}
	}
	target := base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(body))
	if err != nil {
		conn.Close()
		return nil, &errs.UpstreamError{Op: "write", Err: fmt.Errorf("build upstream request: %w", err)}
	}
	req.Header = headers.Clone()
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Length", fmt.Sprintf("%d", len(body)))
	req.Host = e.dialer.Authority()

	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, &errs.UpstreamError{Op: "write", Err: err}
	}

	reader := bufio.NewReader(conn)
	resp, err := http.ReadResponse(reader, req)
	if err != nil {
		conn.Close()
		return nil, &errs.UpstreamError{Op: "read", Err: err}
	}

	return &upstreamResponse{conn: conn, resp: resp}, nil
}

// upstreamResponse bundles the raw connection with the parsed response so
// RAW mode can keep writing to/reading from the connection after the
// engine stops treating it as HTTP.
type upstreamResponse struct {
	conn net.Conn
	resp *http.Response
}
