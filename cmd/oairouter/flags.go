package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
)

// CLIConfig holds command-line configuration. Non-empty values override the
// configuration file.
type CLIConfig struct {
	ConfigPath  string
	Addr        string
	APIDoc      string
	Prefix      string
	LogLevel    string
	LogFormat   string
	Mock        bool
	ShowVersion bool
	Validate    bool
}

func parseFlags(args []string, output io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("OAIROUTER_CONFIG", ""),
		"Path to a YAML or TOML configuration file (env: OAIROUTER_CONFIG)")

	fs.StringVar(&cfg.Addr, "addr",
		getEnv("OAIROUTER_ADDR", ""),
		"Listen address, overrides the config file (env: OAIROUTER_ADDR)")

	fs.StringVar(&cfg.APIDoc, "api-doc",
		getEnv("OAIROUTER_API_DOC", ""),
		"OpenAPI document file, directory or URL (env: OAIROUTER_API_DOC)")

	fs.StringVar(&cfg.Prefix, "prefix",
		getEnv("OAIROUTER_PREFIX", ""),
		"Route prefix (env: OAIROUTER_PREFIX)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("OAIROUTER_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: OAIROUTER_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("OAIROUTER_LOG_FORMAT", "json"),
		"Log format: json, text (env: OAIROUTER_LOG_FORMAT)")

	fs.BoolVar(&cfg.Mock, "mock",
		getEnvBool("OAIROUTER_MOCK", false),
		"Answer operations with their documented examples (env: OAIROUTER_MOCK)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	return nil
}

// apply copies the flags that were given over cfg.
func (c *CLIConfig) apply(cfg *Config) {
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if c.APIDoc != "" {
		cfg.APIDoc = c.APIDoc
	}
	if c.Prefix != "" {
		cfg.Prefix = c.Prefix
	}
	if c.Mock {
		cfg.Mock = true
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
