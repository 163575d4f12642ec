package config

// endpointWire is the on-disk shape of one endpoint's adapter pipeline. The
// YAML tags are the only fields the decoder accepts per endpoint — anything
// else is rejected by the strict decoder in load.go.
type endpointWire struct {
	Pre  []string `yaml:"pre"`
	Post []string `yaml:"post"`
}

type configWire struct {
	Endpoints map[string]endpointWire `yaml:"endpoints"`
	Adapters  map[string]string       `yaml:"adapters"`
}
