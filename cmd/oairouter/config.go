package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/drblury/oairouter"
	"github.com/drblury/oairouter/loader"
	"github.com/drblury/oairouter/router"
)

// Config is the file configuration of the oairouter binary. YAML and TOML
// files share the same keys.
type Config struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	APIDoc          string        `yaml:"api_doc" toml:"api_doc"`
	Prefix          string        `yaml:"prefix" toml:"prefix"`
	Explorer        bool          `yaml:"explorer" toml:"explorer"`
	MergeDocuments  bool          `yaml:"merge_documents" toml:"merge_documents"`
	ValidateDocs    bool          `yaml:"validate_documents" toml:"validate_documents"`
	ValidateRequest bool          `yaml:"validate_requests" toml:"validate_requests"`
	Mock            bool          `yaml:"mock" toml:"mock"`
	RateLimit       bool          `yaml:"rate_limit" toml:"rate_limit"`
	Timeout         string        `yaml:"timeout" toml:"timeout"`
	ShutdownTimeout string        `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	QuietRoutes     []string      `yaml:"quiet_routes" toml:"quiet_routes"`
	HideHeaders     []string      `yaml:"hide_headers" toml:"hide_headers"`
	CORS            CORSConfig    `yaml:"cors" toml:"cors"`
	Metrics         MetricsConfig `yaml:"metrics" toml:"metrics"`
	Mongo           MongoConfig   `yaml:"mongo" toml:"mongo"`
}

// CORSConfig mirrors router.CORSConfig.
type CORSConfig struct {
	Origins          []string `yaml:"origins" toml:"origins"`
	Methods          []string `yaml:"methods" toml:"methods"`
	Headers          []string `yaml:"headers" toml:"headers"`
	AllowCredentials bool     `yaml:"allow_credentials" toml:"allow_credentials"`
}

// MetricsConfig controls the Prometheus plugin and endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Path      string `yaml:"path" toml:"path"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// MongoConfig adds a MongoDB ping to readiness when URI is set.
type MongoConfig struct {
	URI     string `yaml:"uri" toml:"uri"`
	Timeout string `yaml:"timeout" toml:"timeout"`
}

func defaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Explorer:        true,
		Timeout:         "30s",
		ShutdownTimeout: "15s",
		QuietRoutes:     []string{"/healthz", "/readyz", "/metrics"},
		HideHeaders:     []string{"Authorization", "Cookie"},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "oairouter",
		},
		Mongo: MongoConfig{Timeout: "5s"},
	}
}

// loadConfig reads path over the defaults. The format follows the extension.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load toml config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}
			return Config{}, fmt.Errorf("load toml config: unknown keys %s", strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("load yaml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return cfg, nil
}

// Validate checks the fields that cannot be checked by decoding alone.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	for name, value := range map[string]string{
		"timeout":          c.Timeout,
		"shutdown_timeout": c.ShutdownTimeout,
		"mongo.timeout":    c.Mongo.Timeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", name, err))
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must begin with '/'", c.Metrics.Path))
	}
	return errors.Join(errs...)
}

func duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || value == "" {
		return fallback
	}
	return d
}

// Source resolves api_doc to a loader source: URLs, directories or files.
func (c Config) Source() loader.Source {
	doc := strings.TrimSpace(c.APIDoc)
	switch {
	case doc == "":
		return nil
	case strings.HasPrefix(doc, "http://"), strings.HasPrefix(doc, "https://"):
		return loader.URL(doc)
	}
	if info, err := os.Stat(doc); err == nil && info.IsDir() {
		return loader.Dir(doc)
	}
	return loader.File(doc)
}

// RouteScope maps merge_documents to the router scope.
func (c Config) RouteScope() oairouter.RouteScope {
	if c.MergeDocuments {
		return oairouter.ScopeMergedDocuments
	}
	return oairouter.ScopeFirstDocument
}

// RouterConfig maps the transport settings to the dispatcher configuration.
func (c Config) RouterConfig() router.Config {
	return router.Config{
		Timeout: duration(c.Timeout, 30*time.Second),
		CORS: router.CORSConfig{
			Origins:          c.CORS.Origins,
			Methods:          c.CORS.Methods,
			Headers:          c.CORS.Headers,
			AllowCredentials: c.CORS.AllowCredentials,
		},
		QuietdownRoutes: c.QuietRoutes,
		HideHeaders:     c.HideHeaders,
	}
}
