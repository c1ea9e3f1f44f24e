// Package config loads Lumi's optional, purely non-semantic tuning
// knobs from a TOML file. Nothing here changes language behavior. The
// CLI applies Verbose and Color; the capacity hints are decoded and
// carried in Config but are not passed to the VM.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the tunable knobs read from lumi.toml (or defaults, if no
// file is present/specified).
type Config struct {
	// ObjectStackCapacity and ConstantStackCapacity are size hints for the
	// VM's two runtime stacks. They are read from the file but nothing
	// consumes them: vm.New takes no capacities and both stacks start
	// empty and grow on demand.
	ObjectStackCapacity   int `toml:"object_stack_capacity"`
	ConstantStackCapacity int `toml:"constant_stack_capacity"`

	// HeapCapacity is a size hint for the object heap. Like the stack
	// hints it is read but not applied; the heap starts empty.
	HeapCapacity int `toml:"heap_capacity"`

	// Verbose enables the VM's zerolog debug tracing facility.
	Verbose bool `toml:"verbose"`

	// Color enables ANSI-colorized diagnostic rendering on stderr.
	Color bool `toml:"color"`
}

// Default returns the configuration cmd/lumi uses when no lumi.toml is
// present and no --config flag is given.
func Default() Config {
	return Config{
		ObjectStackCapacity:   1024,
		ConstantStackCapacity: 1024,
		HeapCapacity:          256,
		Verbose:               false,
		Color:                 true,
	}
}

// Load reads and decodes a TOML config file at path, starting from
// Default() so a partial file only overrides the fields it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
