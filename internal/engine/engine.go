// Package engine implements the proxy's central orchestrator: for every
// inbound HTTP request it runs the endpoint matcher, the pre-hook chain, the
// upstream dispatch, the response-mode state machine, and either the
// post-hook chain or the hijack bridge, depending on what the upstream
// response turns out to be.
package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/powerstrip/powerstrip/internal/adapter"
	"github.com/powerstrip/powerstrip/internal/bridge"
	"github.com/powerstrip/powerstrip/internal/config"
	"github.com/powerstrip/powerstrip/internal/ctxlog"
	"github.com/powerstrip/powerstrip/internal/errs"
	"github.com/powerstrip/powerstrip/internal/match"
	"github.com/powerstrip/powerstrip/internal/metrics"
	"github.com/powerstrip/powerstrip/internal/upstream"
)

// Engine is the proxy's http.Handler: one Engine is built at startup from an
// immutable config.Config and serves every subsequent request.
type Engine struct {
	cfg     config.Config
	matcher *match.Matcher
	client  *adapter.Client
	dialer  *upstream.Dialer
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New builds an Engine. m is injected rather than constructed internally so
// the caller (cmd/powerstripd) can expose the same registry on a /metrics
// endpoint.
func New(cfg config.Config, m *metrics.Metrics) (http.Handler, error) {
	return &Engine{
		cfg:     cfg,
		matcher: match.New(cfg),
		client:  adapter.New(cfg.RequestTimeout, m),
		dialer:  upstream.New(cfg.Upstream),
		metrics: m,
		logger:  ctxlog.Component("engine"),
	}, nil
}

func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	event := ctxlog.Request(e.logger, r.Method, r.URL.Path, r.RemoteAddr)

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		event.Error().Err(err).Msg("failed to read request body")
		return
	}
	r.Body.Close()

	contentType := r.Header.Get("Content-Type")
	original := adapter.ClientRequest{
		Method:  r.Method,
		Request: r.URL.RequestURI(),
		Body:    capturedBody(contentType, bodyBytes),
	}

	matched, err := e.matcher.Match(r.Method, r.URL.Path)
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		event.Error().Err(err).Msg("matcher rejected request")
		return
	}
	preNames, postNames := match.FlattenHooks(matched)

	current := original
	if isBinaryUpload(contentType) {
		// Binary upload bodies (tar build contexts) can't be JSON-encoded
		// into an adapter payload, so pre-hooks never run for them,
		// regardless of configuration.
		preNames = nil
	} else if len(preNames) > 0 {
		modified, err := e.runPreHooks(r.Context(), preNames, current)
		if err != nil {
			e.writeError(w, event, err, "pre-hook chain failed")
			return
		}
		current = modified
		if modified.Body != nil {
			bodyBytes = []byte(*modified.Body)
		}
	}

	headers := buildUpstreamHeaders(r.Header)

	up, err := e.dispatch(r.Context(), current.Method, current.Request, bodyBytes, headers)
	if err != nil {
		e.writeError(w, event, err, "upstream dispatch failed")
		return
	}

	m := detectMode(up.resp.Header.Get("Content-Type"), up.resp.TransferEncoding)
	event = event.With().Str("mode", m.String()).Logger()

	switch m {
	case modeRaw:
		e.handleRaw(w, up, event, start)
	case modeChunked:
		e.handleChunked(w, up, event, start)
	default:
		e.handleBuffered(r.Context(), w, up, original, postNames, event, start)
	}
}

func (e *Engine) handleRaw(w http.ResponseWriter, up *upstreamResponse, event zerolog.Logger, start time.Time) {
	defer up.conn.Close()

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijack not supported", http.StatusInternalServerError)
		event.Error().Msg("response writer does not support hijacking for raw-stream mode")
		return
	}

	clientConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		event.Error().Err(err).Msg("failed to hijack client connection")
		return
	}

	if err := writeRawHandshake(bufrw); err != nil || bufrw.Flush() != nil {
		clientConn.Close()
		event.Error().Err(err).Msg("failed to write raw-stream handshake")
		return
	}

	clientSide := &bridge.ReaderConn{Conn: clientConn, Reader: bufrw.Reader}
	upstreamSide := &bridge.ReaderConn{Conn: up.conn, Reader: up.resp.Body}

	event.Info().Msg("hijacked connection for raw-stream mode")
	bridge.Pump(clientSide, upstreamSide, event)

	e.metrics.ObserveRequest(modeRaw.String(), http.StatusOK, time.Since(start))
}

func (e *Engine) handleChunked(w http.ResponseWriter, up *upstreamResponse, event zerolog.Logger, start time.Time) {
	defer up.conn.Close()
	defer up.resp.Body.Close()

	if err := streamPassthrough(w, up.resp); err != nil {
		event.Warn().Err(err).Msg("chunked stream copy ended early")
	}
	e.metrics.ObserveRequest(modeChunked.String(), up.resp.StatusCode, time.Since(start))
	event.Info().Dur("duration", time.Since(start)).Msg("request proxied")
}

func (e *Engine) handleBuffered(ctx context.Context, w http.ResponseWriter, up *upstreamResponse, original adapter.ClientRequest, postNames []string, event zerolog.Logger, start time.Time) {
	defer up.conn.Close()
	defer up.resp.Body.Close()

	if len(postNames) == 0 {
		// No post-hooks to run: pass the bytes through as they arrive
		// instead of buffering the whole thing first. Observationally
		// identical to the client; matters for endpoints (pull, build) that
		// stream many JSON documents without ever setting chunked encoding.
		if err := streamPassthrough(w, up.resp); err != nil {
			event.Warn().Err(err).Msg("buffered pass-through copy ended early")
		}
		e.metrics.ObserveRequest(modeBuffered.String(), up.resp.StatusCode, time.Since(start))
		event.Info().Dur("duration", time.Since(start)).Msg("request proxied")
		return
	}

	body, err := io.ReadAll(up.resp.Body)
	if err != nil {
		e.writeError(w, event, &errs.UpstreamError{Op: "read", Err: err}, "failed to read upstream response body")
		return
	}

	var contentTypePtr *string
	if ct := up.resp.Header.Get("Content-Type"); ct != "" {
		contentTypePtr = &ct
	}
	serverResp := adapter.ServerResponse{
		ContentType: contentTypePtr,
		Body:        string(body),
		Code:        up.resp.StatusCode,
	}

	serverResp, err = e.runPostHooks(ctx, postNames, original, serverResp)
	if err != nil {
		e.writeError(w, event, err, "post-hook chain failed")
		return
	}

	finalBody := []byte(serverResp.Body)
	finalContentType := up.resp.Header.Get("Content-Type")
	if serverResp.ContentType != nil {
		finalContentType = *serverResp.ContentType
	}

	writeBuffered(w, serverResp.Code, finalContentType, finalBody)
	e.metrics.ObserveRequest(modeBuffered.String(), serverResp.Code, time.Since(start))
	event.Info().Dur("duration", time.Since(start)).Msg("request proxied")
}

func (e *Engine) writeError(w http.ResponseWriter, event zerolog.Logger, err error, msg string) {
	status := errs.HTTPStatus(err)
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), status)
	event.Error().Err(err).Int("status", status).Msg(msg)
}
