// Package config loads environment definitions for check runs.
//
// The file lists named environments, each describing a warehouse
// connection and the table aliases suites refer to:
//
//	environments:
//	  dev:
//	    warehouse: bigquery
//	    project: ${GCP_PROJECT}
//	    credentials: ${GOOGLE_APPLICATION_CREDENTIALS}
//	    tables:
//	      AGT: ${GCP_PROJECT}.warehouse.pieces_agt
//
// A .env file is loaded into the process environment first. ${VAR}
// placeholders are then replaced from the environment; unset variables are
// replaced with <<MISSING_ENV:VAR>> so the gap is visible downstream.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is where the environment file is looked up by default.
	DefaultPath = "config/env_config.yaml"
	// DefaultEnvFile is the dotenv file loaded before expansion.
	DefaultEnvFile = ".env"
)

// Warehouse kinds.
const (
	BigQuery = "bigquery"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Config is the decoded environment file.
type Config struct {
	Environments map[string]*Environment `yaml:"environments" validate:"required,min=1,dive,required"`
}

// Environment describes one warehouse connection.
type Environment struct {
	Warehouse   string            `yaml:"warehouse" validate:"required,oneof=bigquery sqlite postgres"`
	Project     string            `yaml:"project" validate:"required_if=Warehouse bigquery"`
	Credentials string            `yaml:"credentials"`
	DSN         string            `yaml:"dsn" validate:"required_unless=Warehouse bigquery"`
	Tables      map[string]string `yaml:"tables" validate:"dive,keys,required,endkeys,required"`
}

var validate = validator.New()

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

var missingMarker = regexp.MustCompile(`<<MISSING_ENV:([^>]+)>>`)

// Load reads the environment file at path after loading envFile into the
// process environment. A missing envFile is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, os.LookupEnv)
}

// Parse expands placeholders in data using lookup, then decodes and
// validates the result.
func Parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	expanded := Expand(string(data), lookup)

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Expand replaces every ${VAR} in s with its value from lookup, or with
// <<MISSING_ENV:VAR>> when lookup does not know it.
func Expand(s string, lookup func(string) (string, bool)) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := lookup(name); ok {
			return v
		}
		return "<<MISSING_ENV:" + name + ">>"
	})
}

// Environment returns the named environment.
func (c *Config) Environment(name string) (*Environment, error) {
	env, ok := c.Environments[name]
	if !ok {
		return nil, fmt.Errorf("environment %q not defined (available: %v)", name, c.Names())
	}
	return env, nil
}

// Names returns the environment names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing lists the environment variables that were unset when the
// environment was expanded, in sorted order without duplicates.
func (e *Environment) Missing() []string {
	seen := make(map[string]bool)
	check := func(s string) {
		for _, m := range missingMarker.FindAllStringSubmatch(s, -1) {
			seen[m[1]] = true
		}
	}

	check(e.Project)
	check(e.Credentials)
	check(e.DSN)
	for _, table := range e.Tables {
		check(table)
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Table resolves a table alias. Names that are not aliases are returned
// unchanged, so suites may also use fully-qualified ids directly.
func (e *Environment) Table(alias string) string {
	if id, ok := e.Tables[alias]; ok {
		return id
	}
	return alias
}
