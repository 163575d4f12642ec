// Package adapter implements the stateless JSON request/response exchange
// with a single out-of-process adapter: one HTTP POST in, one HTTP 200 JSON
// response out, no streaming and no connection affinity between calls.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/powerstrip/powerstrip/internal/ctxlog"
	"github.com/powerstrip/powerstrip/internal/errs"
	"github.com/powerstrip/powerstrip/internal/metrics"
)

const (
	phasePreHook  = "pre-hook"
	phasePostHook = "post-hook"
)

// Client invokes adapters over HTTP. It is stateless: every call is an
// independent round trip, and the only thing shared across calls is the
// underlying *http.Client's connection pool.
type Client struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New builds a Client with a tuned transport in the same style as the
// teacher's upstream HTTP client: bounded dial/idle timeouts, HTTP/2 where
// available, and an overall per-request timeout.
func New(requestTimeout time.Duration, m *metrics.Metrics) *Client {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout, Transport: transport},
		metrics:    m,
		logger:     ctxlog.Component("adapter"),
	}
}

// PreHook invokes the named adapter's pre-hook. It returns the adapter's
// ModifiedClientRequest, which the engine uses to replace the outbound
// request's Method/Request/Body.
func (c *Client) PreHook(ctx context.Context, adapterName string, adapterURL *url.URL, req ClientRequest) (ClientRequest, error) {
	payload := preHookRequest{
		PowerstripProtocolVersion: protocolVersion,
		Type:                      phasePreHook,
		ClientRequest:             req,
	}
	var resp preHookResponse
	if err := c.invoke(ctx, adapterName, phasePreHook, adapterURL, payload, &resp); err != nil {
		return ClientRequest{}, err
	}
	return resp.ModifiedClientRequest, nil
}

// PostHook invokes the named adapter's post-hook. It returns the adapter's
// ModifiedServerResponse, which the engine uses to replace the response
// being built for the client.
func (c *Client) PostHook(ctx context.Context, adapterName string, adapterURL *url.URL, req ClientRequest, resp ServerResponse) (ServerResponse, error) {
	payload := postHookRequest{
		PowerstripProtocolVersion: protocolVersion,
		Type:                      phasePostHook,
		ClientRequest:             req,
		ServerResponse:            resp,
	}
	var out postHookResponse
	if err := c.invoke(ctx, adapterName, phasePostHook, adapterURL, payload, &out); err != nil {
		return ServerResponse{}, err
	}
	return out.ModifiedServerResponse, nil
}

func (c *Client) invoke(ctx context.Context, adapterName, phase string, adapterURL *url.URL, payload, out any) error {
	start := time.Now()
	event := c.logger.With().Str("adapter", adapterName).Str("phase", phase).Logger()

	body, err := json.Marshal(payload)
	if err != nil {
		return c.fail(event, adapterName, phase, start, &errs.AdapterError{Adapter: adapterName, Phase: phase, Err: fmt.Errorf("encode payload: %w", err)})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, adapterURL.String(), bytes.NewReader(body))
	if err != nil {
		return c.fail(event, adapterName, phase, start, &errs.AdapterError{Adapter: adapterName, Phase: phase, Err: fmt.Errorf("build request: %w", err)})
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.fail(event, adapterName, phase, start, &errs.AdapterError{Adapter: adapterName, Phase: phase, Err: err})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(event, adapterName, phase, start, &errs.AdapterError{Adapter: adapterName, Phase: phase, Err: fmt.Errorf("read response: %w", err)})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(event, adapterName, phase, start, &errs.AdapterError{
			Adapter: adapterName,
			Phase:   phase,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("%s", string(respBody)),
		})
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return c.fail(event, adapterName, phase, start, &errs.AdapterError{Adapter: adapterName, Phase: phase, Err: fmt.Errorf("decode response: %w", err)})
	}

	duration := time.Since(start)
	c.metrics.ObserveAdapter(adapterName, phase, "ok", duration)
	event.Debug().Dur("duration", duration).Msg("adapter invocation succeeded")
	return nil
}

func (c *Client) fail(event zerolog.Logger, adapterName, phase string, start time.Time, err error) error {
	duration := time.Since(start)
	c.metrics.ObserveAdapter(adapterName, phase, "error", duration)
	event.Warn().Err(err).Dur("duration", duration).Msg("adapter invocation failed")
	return err
}
