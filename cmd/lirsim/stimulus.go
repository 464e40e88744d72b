package main

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"
)

// stimulus is the small poke/cycle/peek/expect script format this
// driver reads, the same role a .cgraasm kernel plays for
// zeonica/samples/*/main.go — a plain-text fixture a sample's main()
// feeds to the simulated device.
type stimulus struct {
	Steps []step `yaml:"steps"`
}

type step struct {
	Poke   *pokeStep   `yaml:"poke,omitempty"`
	Cycle  *int        `yaml:"cycle,omitempty"`
	Peek   *string     `yaml:"peek,omitempty"`
	Expect *expectStep `yaml:"expect,omitempty"`
}

type pokeStep struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

type expectStep struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

func loadStimulus(path string) (*stimulus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lirsim: reading %s: %w", path, err)
	}
	var s stimulus
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("lirsim: parsing %s: %w", path, err)
	}
	return &s, nil
}

func bigFromInt64(v int64) *big.Int { return big.NewInt(v) }
