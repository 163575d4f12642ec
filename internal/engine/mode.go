package engine

// mode is the per-response latched state the engine computes from the
// upstream's response headers: it decides whether the body can be buffered
// and handed to post-hooks, or must be streamed/hijacked untouched.
type mode int

const (
	modeUnknown mode = iota
	modeBuffered
	modeChunked
	modeRaw
)

func (m mode) String() string {
	switch m {
	case modeRaw:
		return "raw"
	case modeChunked:
		return "chunked"
	case modeBuffered:
		return "buffered"
	default:
		return "unknown"
	}
}

const rawStreamContentType = "application/vnd.docker.raw-stream"

// detectMode inspects the upstream response and latches a mode. RAW and
// CHUNKED are mutually exclusive and both win over BUFFERED; RAW is checked
// first since a raw-stream response is never also chunked in practice, and
// checking order only matters if a (malformed) upstream response claimed
// both.
//
// transferEncoding must be the parsed http.Response.TransferEncoding, not a
// Transfer-Encoding header lookup: http.ReadResponse consumes that header off
// resp.Header once it has decided to de-chunk the body, so by the time the
// engine inspects the response the header is already gone and only
// resp.TransferEncoding still records that the wire body was chunked.
//
// Content-Encoding: chunked is deliberately NOT treated as a framing signal
// here — the original implementation inconsistently checked both headers;
// Transfer-Encoding is the correct one for message framing.
func detectMode(contentType string, transferEncoding []string) mode {
	if contentType == rawStreamContentType {
		return modeRaw
	}
	if len(transferEncoding) > 0 {
		return modeChunked
	}
	return modeBuffered
}
