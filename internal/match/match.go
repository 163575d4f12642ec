// Package match implements the endpoint matcher: given an HTTP method and
// path it returns which configured endpoint patterns apply, using
// shell-style glob semantics against the sorted endpoint list.
package match

import (
	"strings"

	"github.com/powerstrip/powerstrip/internal/config"
	"github.com/powerstrip/powerstrip/internal/errs"
)

// Matcher matches incoming requests against a Config's compiled endpoint
// patterns. It holds no mutable state and is safe for concurrent use by any
// number of request goroutines, since Config is an immutable snapshot.
type Matcher struct {
	endpoints []config.EndpointConfig
}

// New builds a Matcher over the endpoints of cfg. cfg.Endpoints is already
// sorted by pattern at load time, so Match's iteration order — and therefore
// the order adapters are flattened in — is deterministic across runs.
func New(cfg config.Config) *Matcher {
	return &Matcher{endpoints: cfg.Endpoints}
}

// Match returns every configured endpoint whose pattern matches
// "<method> <path>". path must already have its query string stripped; a
// path containing "?" is an internal invariant violation, not a user error,
// and returns errs.ErrInvalidRequest.
func (m *Matcher) Match(method, path string) ([]config.EndpointConfig, error) {
	if strings.Contains(path, "?") {
		return nil, errs.ErrInvalidRequest
	}

	candidate := method + " " + path

	var matched []config.EndpointConfig
	for _, ep := range m.endpoints {
		if ep.Glob.Match(candidate) {
			matched = append(matched, ep)
		}
	}
	return matched, nil
}

// FlattenHooks concatenates the pre and post adapter lists of every matched
// endpoint, in the order Match returned them, preserving each endpoint's own
// pre/post ordering. This is the "flatten pre and post adapter-name lists
// across all matched endpoints" step the engine performs after matching.
func FlattenHooks(matched []config.EndpointConfig) (pre, post []string) {
	for _, ep := range matched {
		pre = append(pre, ep.Pre...)
		post = append(post, ep.Post...)
	}
	return pre, post
}
