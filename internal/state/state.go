// Package state persists the server configuration between sessions.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/buger/jsonparser"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
	"github.com/ServerwaveHost/wave-server-bundler/internal/props"
)

// SchemaVersion is bumped whenever the on-disk layout changes shape.
const SchemaVersion = 2

// ServerConfiguration holds everything the builder needs beyond the content
// selection itself.
type ServerConfiguration struct {
	Properties    props.Profile          `json:"properties"`
	EULA          bool                   `json:"eula"`
	ChosenVersion string                 `json:"chosenVersion"`
	IncludeGeyser bool                   `json:"includeGeyser"`
	AikarFlags    bool                   `json:"aikarFlags"`
	RAMMb         int                    `json:"ramMb"`
	StartScript   string                 `json:"startScript"`
	Gamerules     []models.GameruleEntry `json:"gamerules"`
}

// State is the persisted session
type State struct {
	SchemaVersion int                 `json:"schemaVersion"`
	Selection     models.Selection    `json:"selection"`
	Config        ServerConfiguration `json:"config"`
}

// Default returns a fresh state with the configuration defaults.
func Default() State {
	return State{
		SchemaVersion: SchemaVersion,
		Config: ServerConfiguration{
			Properties: props.GenericBase(),
			AikarFlags: true,
			RAMMb:      4096,
		},
	}
}

// SetGamerule adds or replaces an override by name.
func (c *ServerConfiguration) SetGamerule(rule models.GameruleEntry) {
	for i, r := range c.Gamerules {
		if r.Name == rule.Name {
			c.Gamerules[i] = rule
			return
		}
	}
	c.Gamerules = append(c.Gamerules, rule)
}

// RemoveGamerule drops an override by name.
func (c *ServerConfiguration) RemoveGamerule(name string) {
	kept := c.Gamerules[:0]
	for _, r := range c.Gamerules {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	c.Gamerules = kept
}

// Save writes the state file, creating parent directories as needed.
func Save(path string, s State) error {
	s.SchemaVersion = SchemaVersion

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

// Load reads the state file, migrating older layouts forward. A missing file
// yields the defaults rather than an error.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("reading state file: %w", err)
	}

	data, err = migrate(data)
	if err != nil {
		return State{}, err
	}

	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("parsing state file: %w", err)
	}
	s.SchemaVersion = SchemaVersion
	return s, nil
}

// migrate upgrades raw state-file bytes to the current schema. The version is
// probed without a full decode so malformed later sections still migrate.
func migrate(data []byte) ([]byte, error) {
	version, err := jsonparser.GetInt(data, "schemaVersion")
	if err != nil {
		// Pre-versioning files carried the selection at the top level.
		version = 1
	}

	switch version {
	case 1:
		return migrateV1(data)
	case SchemaVersion:
		return data, nil
	default:
		return nil, fmt.Errorf("state file schema %d is newer than this build supports", version)
	}
}

// migrateV1 wraps a top-level v1 selection into the current envelope. The v1
// layout had no server configuration, so defaults fill it in.
func migrateV1(data []byte) ([]byte, error) {
	var sel models.Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("migrating v1 state: %w", err)
	}

	s := Default()
	s.Selection = sel
	out, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("migrating v1 state: %w", err)
	}
	return out, nil
}
