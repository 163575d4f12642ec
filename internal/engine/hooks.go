package engine

import (
	"context"
	"fmt"

	"github.com/powerstrip/powerstrip/internal/adapter"
)

// runPreHooks feeds req through each named pre-hook adapter in order, each
// one receiving the previous one's ModifiedClientRequest. It returns the
// final, possibly-mutated request that is sent upstream.
func (e *Engine) runPreHooks(ctx context.Context, names []string, req adapter.ClientRequest) (adapter.ClientRequest, error) {
	current := req
	for _, name := range names {
		adapterURL, ok := e.cfg.Adapters[name]
		if !ok {
			return adapter.ClientRequest{}, fmt.Errorf("powerstrip: pre-hook %q has no configured adapter URL", name)
		}
		modified, err := e.client.PreHook(ctx, name, adapterURL, current)
		if err != nil {
			return adapter.ClientRequest{}, err
		}
		current = modified
	}
	return current, nil
}

// runPostHooks feeds resp through each named post-hook adapter in order.
// original is the client's pre-mutation request — every post-hook invocation
// carries it, never the (possibly pre-hook-mutated) outbound request.
func (e *Engine) runPostHooks(ctx context.Context, names []string, original adapter.ClientRequest, resp adapter.ServerResponse) (adapter.ServerResponse, error) {
	current := resp
	for _, name := range names {
		adapterURL, ok := e.cfg.Adapters[name]
		if !ok {
			return adapter.ServerResponse{}, fmt.Errorf("powerstrip: post-hook %q has no configured adapter URL", name)
		}
		modified, err := e.client.PostHook(ctx, name, adapterURL, original, current)
		if err != nil {
			return adapter.ServerResponse{}, err
		}
		current = modified
	}
	return current, nil
}
