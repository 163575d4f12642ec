package engine

import (
	"fmt"
	"io"
	"net/http"
)

// writeBuffered writes a fully-buffered response (BUFFERED mode after
// post-hooks have run; with no post-hooks the engine streams the body through
// streamPassthrough instead). Content-Length is always
// recomputed from the final body so it matches exactly, even when a
// post-hook changed the body's length.
func writeBuffered(w http.ResponseWriter, statusCode int, contentType string, body []byte) {
	h := w.Header()
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	h.Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.WriteHeader(statusCode)
	w.Write(body)
}

// streamPassthrough copies headers (other than hop-by-hop framing headers,
// which the server recomputes itself) and then streams the body to the
// client as it arrives from upstream, flushing after every read so a slow
// trickle of bytes (pull, build, events) reaches the client promptly instead
// of waiting for a full buffer.
func streamPassthrough(w http.ResponseWriter, resp *http.Response) error {
	h := w.Header()
	copyHeaders(h, resp.Header)
	cleanHopHeaders(h)
	h.Del("Content-Length")
	h.Del("Transfer-Encoding")

	w.WriteHeader(resp.StatusCode)

	flusher, canFlush := w.(http.Flusher)

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}
	}
}

// writeRawHandshake writes the exact hijack response line the spec requires,
// synthesized rather than copied from the upstream response so no other
// headers leak onto a connection that is about to stop being HTTP.
func writeRawHandshake(w io.Writer) error {
	_, err := io.WriteString(w, "HTTP/1.1 200 OK\r\nContent-Type: "+rawStreamContentType+"\r\n\r\n")
	return err
}
