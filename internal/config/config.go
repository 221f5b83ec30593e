// Package config loads and validates nmtd's JSON configuration file,
// the way the teacher's internal/config and internal/memorystore's
// config.go/configSchema.go pair validates cc-backend's config before
// decoding it into a typed struct.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Keys is nmtd's decoded, validated configuration.
type Keys struct {
	// Addr is the address the HTTP reporter listens on.
	Addr string `json:"addr"`
	// Detailed toggles call-stack capture and deduplication.
	Detailed bool `json:"detailed"`
	// SummaryInterval controls how often a summary snapshot is logged.
	SummaryInterval Duration `json:"summary_interval"`
	// SelfCheckInterval controls how often the degraded-flag self-check runs.
	SelfCheckInterval Duration `json:"self_check_interval"`
	// RequireAuth gates the detail report behind a bearer token.
	RequireAuth bool `json:"require_auth"`
}

// Duration decodes a Go duration string ("30s") from JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Get returns the duration as a time.Duration.
func (d Duration) Get() time.Duration { return time.Duration(d) }

const schemaText = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"addr": { "type": "string", "minLength": 1 },
		"detailed": { "type": "boolean" },
		"summary_interval": { "type": "string", "minLength": 2 },
		"self_check_interval": { "type": "string", "minLength": 2 },
		"require_auth": { "type": "boolean" }
	},
	"required": ["addr"],
	"additionalProperties": false
}`

// Default returns the configuration nmtd runs with when no config
// file is given.
func Default() *Keys {
	return &Keys{
		Addr:              ":8082",
		Detailed:          true,
		SummaryInterval:   Duration(30 * time.Second),
		SelfCheckInterval: Duration(10 * time.Second),
		RequireAuth:       false,
	}
}

// Load reads, schema-validates and decodes the config file at path.
func Load(path string) (*Keys, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	schema, err := jsonschema.CompileString("nmtd-config.json", schemaText)
	if err != nil {
		return nil, fmt.Errorf("config: compiling schema: %w", err)
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: %s failed validation: %w", path, err)
	}

	keys := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(keys); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return keys, nil
}
