package manifest

import (
	"encoding/json"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Manifest is the subset of composer.json this core consumes. Unknown
// top-level keys are preserved verbatim in Extra so a round-trip rewrite
// does not lose data the user's tooling relies on.
type Manifest struct {
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`

	Require    map[string]string `json:"require,omitempty"`
	RequireDev map[string]string `json:"require-dev,omitempty"`
	Conflict   map[string]string `json:"conflict,omitempty"`
	Replace    map[string]string `json:"replace,omitempty"`
	Provide    map[string]string `json:"provide,omitempty"`
	Suggest    map[string]string `json:"suggest,omitempty"`

	Autoload    Autoload `json:"autoload,omitempty"`
	AutoloadDev Autoload `json:"autoload-dev,omitempty"`

	MinimumStability string `json:"minimum-stability,omitempty"`
	PreferStable     bool   `json:"prefer-stable,omitempty"`

	Repositories []RepositoryConfig `json:"repositories,omitempty"`

	Config json.RawMessage `json:"config,omitempty"`
	Extra  map[string]any  `json:"extra,omitempty"`

	// raw preserves the full decoded document so unrecognized keys survive
	// a parse-then-write round trip.
	raw map[string]json.RawMessage
}

// RepositoryConfig names one package source (registry, vcs, path, or
// "composer"-type custom index).
type RepositoryConfig struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ParseManifest decodes a composer.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeInvalidManifest, "parse manifest", err)
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeInvalidManifest, "parse manifest raw keys", err)
	}
	m.raw = raw
	if m.MinimumStability == "" {
		m.MinimumStability = "stable"
	}
	return &m, nil
}

// InstallerPaths returns the extra.installer-paths mapping (pattern ->
// package types), if present.
func (m *Manifest) InstallerPaths() map[string][]string {
	raw, ok := m.Extra["installer-paths"]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var out map[string][]string
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil
	}
	return out
}

// RawKeys returns the full set of top-level keys as they were parsed,
// including ones this struct does not model, for pass-through rewriting.
func (m *Manifest) RawKeys() map[string]json.RawMessage { return m.raw }
