//go:build !tinygo

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML machine file. Keys missing from the file keep their
// Default value.
func Load(path string) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Machine, error) {
	m := Default()
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if m.Leadscrew.HMM != 0 && m.Leadscrew.TPI == Default().Leadscrew.TPI {
		// a file selecting a metric leadscrew drops the default TPI
		var leadscrew struct {
			Leadscrew map[string]int `yaml:"leadscrew"`
		}
		if err := yaml.Unmarshal(data, &leadscrew); err == nil {
			if _, ok := leadscrew.Leadscrew["tpi"]; !ok {
				m.Leadscrew.TPI = 0
			}
		}
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &m, nil
}
