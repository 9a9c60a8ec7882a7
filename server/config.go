package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the server's HCL-configurable settings: listen address, logging,
// and the seed for the room manager's room-id generator.
type Config struct {
	Address  string `hcl:"address,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
	Seed     int64  `hcl:"seed,optional"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Address:  ":8080",
		LogLevel: "info",
		LogFile:  "",
		Seed:     0,
	}
}

// LoadConfig loads the server configuration from an HCL file at path. A
// missing file is not an error; it yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("server: parse %s: %s", path, diags.Error())
	}

	cfg := Config{}
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("server: decode %s: %s", path, diags.Error())
	}

	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}

// Validate reports whether cfg is usable.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server: address must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server: invalid log level %q", c.LogLevel)
	}
	return nil
}
