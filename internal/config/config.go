// Package config loads the CLI configuration: database connection, model
// declarations and runtime switches.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/queryset/internal/adapters/database"
	"github.com/satishbabariya/queryset/internal/adapters/telemetry"
	"github.com/satishbabariya/queryset/internal/core/meta"
)

// AppFs is the filesystem configuration is read from.
var AppFs = afero.NewOsFs()

const (
	// FileName is the configuration file name without extension.
	FileName = ".queryset"
	// EnvPrefix prefixes environment overrides, e.g. QUERYSET_DATABASE_URL.
	EnvPrefix = "QUERYSET"
)

// Config holds the application configuration.
type Config struct {
	Database  database.Config
	Debug     bool
	Telemetry string
	Requires  string
	Models    []Model

	// File is the configuration file that was read, if any.
	File string
}

// Model declares one record type.
type Model struct {
	Name      string     `mapstructure:"name"`
	Table     string     `mapstructure:"table"`
	PK        []string   `mapstructure:"pk"`
	Ordering  []string   `mapstructure:"ordering"`
	Relations []Relation `mapstructure:"relations"`
}

// Relation declares a join to another model.
type Relation struct {
	Name     string `mapstructure:"name"`
	Model    string `mapstructure:"model"`
	On       []Pair `mapstructure:"on"`
	Nullable bool   `mapstructure:"nullable"`
}

// Pair is one local = foreign column equality.
type Pair struct {
	Local   string `mapstructure:"local"`
	Foreign string `mapstructure:"foreign"`
}

// LoadConfig loads configuration from AppFs. An empty file searches the
// current directory, $HOME and $HOME/.config/queryset.
func LoadConfig(file string) (*Config, error) {
	return Load(AppFs, file)
}

// Load loads configuration from fs. Precedence, highest first: QUERYSET_*
// environment variables, the configuration file, DATABASE_URL from the
// environment, .env.local, .env.
func Load(fs afero.Fs, file string) (*Config, error) {
	v := newViper(fs)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "queryset"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	dir := "."
	if used := v.ConfigFileUsed(); used != "" {
		dir = filepath.Dir(used)
	}
	env, err := loadDotenv(fs, dir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: database.Config{
			Provider:       v.GetString("database.provider"),
			URL:            v.GetString("database.url"),
			MaxConnections: v.GetInt("database.max_connections"),
			MaxIdleTime:    v.GetInt("database.max_idle_time"),
			ConnectTimeout: v.GetInt("database.connect_timeout"),
		},
		Debug:     v.GetBool("debug"),
		Telemetry: v.GetString("telemetry"),
		Requires:  v.GetString("requires"),
		File:      v.ConfigFileUsed(),
	}
	if err := v.UnmarshalKey("models", &cfg.Models); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = lookupEnv(env, "DATABASE_URL")
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = ProviderFromURL(cfg.Database.URL)
	}
	return cfg, nil
}

func newViper(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.connect_timeout", 5)
	v.SetDefault("debug", false)
	v.SetDefault("telemetry", "noop")
	return v
}

// loadDotenv reads .env and then .env.local from dir. Later files win.
func loadDotenv(fs afero.Fs, dir string) (map[string]string, error) {
	env := make(map[string]string)
	for _, name := range []string{".env", ".env.local"} {
		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		values, err := godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for k, val := range values {
			env[k] = val
		}
	}
	return env, nil
}

func lookupEnv(dotenv map[string]string, key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return dotenv[key]
}

// ProviderFromURL guesses the provider from a connection URL.
func ProviderFromURL(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgresql"
	case strings.HasPrefix(url, "mysql://"):
		return "mysql"
	case strings.HasPrefix(url, "sqlite"), strings.HasPrefix(url, "file:"),
		url == ":memory:", strings.HasSuffix(url, ".db"):
		return "sqlite"
	default:
		return ""
	}
}

// TelemetryConfig returns the telemetry settings.
func (c *Config) TelemetryConfig() *telemetry.Config {
	return &telemetry.Config{Type: c.Telemetry}
}

// CheckVersion verifies current against the requires constraint.
func (c *Config) CheckVersion(current string) error {
	if c.Requires == "" {
		return nil
	}
	constraint, err := version.NewConstraint(c.Requires)
	if err != nil {
		return fmt.Errorf("invalid requires constraint %q: %w", c.Requires, err)
	}
	v, err := version.NewVersion(current)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", current, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("queryset %s does not satisfy %q (from %s)", current, c.Requires, c.File)
	}
	return nil
}

// Registry builds the model registry from the declarations.
func (c *Config) Registry() (*meta.Registry, error) {
	models := make([]*meta.Meta, 0, len(c.Models))
	for _, m := range c.Models {
		mm := &meta.Meta{
			Name:     m.Name,
			Table:    m.Table,
			PK:       m.PK,
			Ordering: m.Ordering,
		}
		if len(m.Relations) > 0 {
			mm.Relations = make(map[string]meta.Relation, len(m.Relations))
		}
		for _, r := range m.Relations {
			if _, dup := mm.Relations[r.Name]; dup {
				return nil, fmt.Errorf("%w: model %s declares relation %q twice", meta.ErrConfiguration, m.Name, r.Name)
			}
			on := make([]meta.Pair, len(r.On))
			for i, p := range r.On {
				on[i] = meta.Pair{Local: p.Local, Foreign: p.Foreign}
			}
			mm.Relations[r.Name] = meta.Relation{Model: r.Model, On: on, Nullable: r.Nullable}
		}
		models = append(models, mm)
	}
	return meta.NewRegistry(models...)
}

// Save writes cfg as YAML to file on AppFs, creating its directory.
func Save(file string, cfg *Config) error {
	v := newViper(AppFs)
	v.Set("database.provider", cfg.Database.Provider)
	v.Set("database.url", cfg.Database.URL)
	v.Set("database.max_connections", cfg.Database.MaxConnections)
	v.Set("debug", cfg.Debug)
	v.Set("telemetry", cfg.Telemetry)
	if cfg.Requires != "" {
		v.Set("requires", cfg.Requires)
	}

	models := make([]map[string]any, len(cfg.Models))
	for i, m := range cfg.Models {
		relations := make([]map[string]any, len(m.Relations))
		for j, r := range m.Relations {
			on := make([]map[string]any, len(r.On))
			for k, p := range r.On {
				on[k] = map[string]any{"local": p.Local, "foreign": p.Foreign}
			}
			relations[j] = map[string]any{"name": r.Name, "model": r.Model, "on": on, "nullable": r.Nullable}
		}
		models[i] = map[string]any{
			"name":      m.Name,
			"table":     m.Table,
			"pk":        m.PK,
			"ordering":  m.Ordering,
			"relations": relations,
		}
	}
	v.Set("models", models)

	if err := AppFs.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(file)
}
