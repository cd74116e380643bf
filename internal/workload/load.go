package workload

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Load decodes a YAML workload document from r and validates it.
func Load(r io.Reader) (*Workload, error) {
	var w Workload
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("workload: decode: %w", err)
	}
	if err := Validate(&w); err != nil {
		return nil, err
	}
	return &w, nil
}
