// Package config loads tsevm.yaml project settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up next to the sources.
const FileName = "tsevm.yaml"

type Config struct {
	Sources   []string  `yaml:"sources"`
	OutDir    string    `yaml:"outDir"`
	Solc      string    `yaml:"solc"`
	Emit      Emit      `yaml:"emit"`
	Optimizer Optimizer `yaml:"optimizer"`
}

// Emit selects the artifacts written per contract.
type Emit struct {
	ABI      bool `yaml:"abi"`
	Assembly bool `yaml:"assembly"`
	IR       bool `yaml:"ir"`
	Bytecode bool `yaml:"bytecode"`
}

// Optimizer is handed to the assembler unchanged.
type Optimizer struct {
	Enabled bool             `yaml:"enabled" json:"enabled"`
	Runs    int              `yaml:"runs" json:"runs"`
	Details OptimizerDetails `yaml:"details" json:"details"`
}

type OptimizerDetails struct {
	Peephole          bool `yaml:"peephole" json:"peephole"`
	Inliner           bool `yaml:"inliner" json:"inliner"`
	JumpdestRemover   bool `yaml:"jumpdestRemover" json:"jumpdestRemover"`
	OrderLiterals     bool `yaml:"orderLiterals" json:"orderLiterals"`
	Deduplicate       bool `yaml:"deduplicate" json:"deduplicate"`
	CSE               bool `yaml:"cse" json:"cse"`
	ConstantOptimizer bool `yaml:"constantOptimizer" json:"constantOptimizer"`
	Yul               bool `yaml:"yul" json:"yul"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	return &Config{
		OutDir: "build",
		Solc:   "solc",
		Emit:   Emit{ABI: true, Assembly: true},
		Optimizer: Optimizer{
			Enabled: true,
			Runs:    200,
			Details: OptimizerDetails{
				Peephole:          true,
				Inliner:           true,
				JumpdestRemover:   true,
				OrderLiterals:     true,
				Deduplicate:       true,
				CSE:               true,
				ConstantOptimizer: true,
				Yul:               true,
			},
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping the values of keys that are absent.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Optimizer.Runs < 0 {
		return fmt.Errorf("optimizer.runs must not be negative, got %d", c.Optimizer.Runs)
	}
	if c.OutDir == "" {
		return fmt.Errorf("outDir must not be empty")
	}
	return nil
}
