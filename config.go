package lftgraph

// BuildConfig is the external-interface boundary spec §6 describes:
// build-time constants an (unbuilt) driver would populate. No CLI flag
// parsing is implemented; a test fixture can express one of these as a
// YAML document and unmarshal it with gopkg.in/yaml.v3.
type BuildConfig struct {
	Symmetrize   bool   `yaml:"symmetrize"`
	NeedsWeights bool   `yaml:"needs_weights"`
	Uniform      bool   `yaml:"uniform"`
	FileName     string `yaml:"file_name"`
	Invert       bool   `yaml:"invert"`
	Scale        int    `yaml:"scale"`
	Degree       int    `yaml:"degree"`
	NumTrials    int    `yaml:"num_trials"`
}

// Directed reports whether the configured graph is directed: spec §4.5
// links both directions on insert when Symmetrize is set, which is
// exactly the undirected case.
func (c BuildConfig) Directed() bool { return !c.Symmetrize }
