//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package session

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Config defines a session configuration file.
type Config struct {
	Ring struct {
		Bits uint `yaml:"bits"`
	} `yaml:"ring"`
	FixedPoint struct {
		Base      uint `yaml:"base"`
		Precision uint `yaml:"precision"`
	} `yaml:"fixedPoint"`
	Seed    string        `yaml:"seed"`
	Triples int           `yaml:"triples"`
	Timeout time.Duration `yaml:"timeout"`
	Log     string        `yaml:"log"`
	Parties []PartyConfig `yaml:"parties"`
}

// PartyConfig defines a party in the session configuration.
type PartyConfig struct {
	Name string `yaml:"name"`
	Addr string `yaml:"addr"`
}

// LoadConfig loads the session configuration from the YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// ParseConfig parses the YAML session configuration. Unknown fields
// are errors.
func ParseConfig(data []byte) (*Config, error) {
	config := new(Config)

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, xerrors.Errorf("session: invalid config: %w", err)
	}
	if len(config.Parties) == 0 {
		return nil, fmt.Errorf("session: no parties")
	}
	for i, p := range config.Parties {
		if len(p.Name) == 0 {
			return nil, fmt.Errorf("session: party %d has no name", i)
		}
	}
	return config, nil
}

// Params returns the session parameters of the configuration. Unset
// values have their default values.
func (c *Config) Params() *Params {
	params := NewParams()
	if c.Ring.Bits != 0 {
		params.Bits = c.Ring.Bits
	}
	if c.FixedPoint.Base != 0 {
		params.Base = c.FixedPoint.Base
	}
	if c.FixedPoint.Precision != 0 {
		params.Precision = c.FixedPoint.Precision
	}
	if len(c.Seed) > 0 {
		params.Seed = []byte(c.Seed)
	}
	if c.Triples != 0 {
		params.Triples = c.Triples
	}
	return params
}
