package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/gobwas/glob"
	"go.yaml.in/yaml/v3"

	"github.com/powerstrip/powerstrip/internal/errs"
)

// Load reads the adapter configuration from path, validates it against the
// schema invariants (required top-level keys, no unknown per-endpoint keys,
// no dangling adapter references, no empty endpoint configs), compiles every
// endpoint pattern into a glob, and overlays the operational env vars that
// control the surrounding daemon (listen address, upstream selector,
// timeouts, log level).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errs.ErrNoConfiguration
		}
		return Config{}, fmt.Errorf("read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// parse decodes and validates the adapter/endpoint YAML document.
func parse(data []byte) (Config, error) {
	// First pass: a loose decode just to tell "key missing" apart from
	// "key present but empty", which the strict typed decode below can't do
	// on its own (a nil map looks the same either way).
	var presence map[string]yaml.Node
	if err := yaml.Unmarshal(data, &presence); err != nil {
		return Config{}, &errs.ConfigInvalidError{Reason: fmt.Sprintf("could not parse configuration: %v", err)}
	}
	if _, ok := presence["endpoints"]; !ok {
		return Config{}, &errs.ConfigInvalidError{Reason: "required key 'endpoints' is missing"}
	}
	if _, ok := presence["adapters"]; !ok {
		return Config{}, &errs.ConfigInvalidError{Reason: "required key 'adapters' is missing"}
	}

	// Second pass: strict decode so an unknown per-endpoint key (e.g. a typo
	// like "prehook") is rejected instead of silently ignored.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var wire configWire
	if err := dec.Decode(&wire); err != nil {
		return Config{}, &errs.ConfigInvalidError{Reason: fmt.Sprintf("schema violation: %v", err)}
	}

	adapters := make(map[string]*url.URL, len(wire.Adapters))
	for name, raw := range wire.Adapters {
		u, err := url.Parse(raw)
		if err != nil {
			return Config{}, &errs.ConfigInvalidError{Reason: fmt.Sprintf("adapter %q has an invalid URL: %v", name, err)}
		}
		adapters[name] = u
	}

	endpoints := make([]EndpointConfig, 0, len(wire.Endpoints))
	for pattern, ep := range wire.Endpoints {
		pre := ep.Pre
		if pre == nil {
			pre = []string{}
		}
		post := ep.Post
		if post == nil {
			post = []string{}
		}
		if len(pre) == 0 && len(post) == 0 {
			return Config{}, &errs.ConfigInvalidError{Reason: fmt.Sprintf("no configuration found for endpoint %q", pattern)}
		}

		for _, name := range pre {
			if _, ok := adapters[name]; !ok {
				return Config{}, &errs.ConfigInvalidError{Reason: fmt.Sprintf("endpoint %q references undefined adapter %q", pattern, name)}
			}
		}
		for _, name := range post {
			if _, ok := adapters[name]; !ok {
				return Config{}, &errs.ConfigInvalidError{Reason: fmt.Sprintf("endpoint %q references undefined adapter %q", pattern, name)}
			}
		}

		g, err := glob.Compile(pattern)
		if err != nil {
			return Config{}, &errs.ConfigInvalidError{Reason: fmt.Sprintf("endpoint pattern %q is not a valid glob: %v", pattern, err)}
		}

		endpoints = append(endpoints, EndpointConfig{
			Pattern: pattern,
			Glob:    g,
			Pre:     pre,
			Post:    post,
		})
	}

	// Sort by pattern so the matcher's fan-out order is stable across runs,
	// independent of Go's randomized map iteration.
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Pattern < endpoints[j].Pattern })

	return Config{
		Endpoints: endpoints,
		Adapters:  adapters,
	}, nil
}
