package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/powerstrip/powerstrip/internal/errs"
)

const goodConfig = `
endpoints:
  "POST /*/containers/create":
    pre: ["flocker", "weave"]
    post: ["weave", "flocker"]
  "DELETE /*/containers/*":
    pre: ["flocker"]
adapters:
  flocker: "http://flocker/flocker-adapter"
  weave: "http://weave/weave-adapter"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adapters.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadGoodConfig(t *testing.T) {
	path := writeTemp(t, goodConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(cfg.Endpoints))
	}
	// Endpoints are sorted by pattern: "DELETE ..." < "POST ...".
	if cfg.Endpoints[0].Pattern != "DELETE /*/containers/*" {
		t.Fatalf("unexpected endpoint order: %+v", cfg.Endpoints)
	}
	if got := cfg.Endpoints[1].Pre; len(got) != 2 || got[0] != "flocker" || got[1] != "weave" {
		t.Fatalf("unexpected pre hooks: %v", got)
	}
	if _, ok := cfg.Adapters["flocker"]; !ok {
		t.Fatalf("expected adapter 'flocker' to be present")
	}
	if !cfg.Endpoints[1].Glob.Match("POST /v1.16/containers/create") {
		t.Fatalf("expected compiled glob to match a concrete request line")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if !errors.Is(err, errs.ErrNoConfiguration) {
		t.Fatalf("expected ErrNoConfiguration, got %v", err)
	}
}

func TestLoadMissingEndpointsKey(t *testing.T) {
	path := writeTemp(t, `adapters: {}`)
	_, err := Load(path)
	var invalid *errs.ConfigInvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ConfigInvalidError, got %v", err)
	}
}

func TestLoadMissingAdaptersKey(t *testing.T) {
	path := writeTemp(t, `endpoints: {}`)
	_, err := Load(path)
	var invalid *errs.ConfigInvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ConfigInvalidError, got %v", err)
	}
}

func TestLoadEmptyIsValid(t *testing.T) {
	path := writeTemp(t, "endpoints: {}\nadapters: {}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Endpoints) != 0 || len(cfg.Adapters) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadUnknownEndpointKeyRejected(t *testing.T) {
	path := writeTemp(t, `
endpoints:
  "POST /*":
    prehook: ["flocker"]
adapters:
  flocker: "http://flocker/adapter"
`)
	_, err := Load(path)
	var invalid *errs.ConfigInvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ConfigInvalidError for unknown key, got %v", err)
	}
}

func TestLoadDanglingAdapterReference(t *testing.T) {
	path := writeTemp(t, `
endpoints:
  "POST /*":
    pre: ["ghost"]
adapters:
  flocker: "http://flocker/adapter"
`)
	_, err := Load(path)
	var invalid *errs.ConfigInvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ConfigInvalidError for dangling reference, got %v", err)
	}
}

func TestLoadEmptyEndpointConfigRejected(t *testing.T) {
	path := writeTemp(t, `
endpoints:
  "POST /*": {}
adapters: {}
`)
	_, err := Load(path)
	var invalid *errs.ConfigInvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ConfigInvalidError for empty endpoint config, got %v", err)
	}
}

func TestParseUpstreamSelectors(t *testing.T) {
	cases := map[string]UpstreamSelector{
		"unix:///var/run/docker.sock": {Network: UpstreamUnix, Address: "/var/run/docker.sock"},
		"tcp://127.0.0.1:2375":        {Network: UpstreamTCP, Address: "127.0.0.1:2375"},
		"127.0.0.1:2375":              {Network: UpstreamTCP, Address: "127.0.0.1:2375"},
	}
	for raw, want := range cases {
		if got := parseUpstream(raw); got != want {
			t.Errorf("parseUpstream(%q) = %+v, want %+v", raw, got, want)
		}
	}
}
