// Package config loads intent.toml, the project configuration the
// generation orchestrator consumes: project name/version, target generation
// edition, runtime client choices, and named environments with per-service
// overrides. Layering is defaults, then file, then environment variables,
// each layer only overriding what it actually sets.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ConfigFile is the default path Load looks for.
const ConfigFile = "intent.toml"

// Project is the root of intent.toml.
type Project struct {
	Name         string
	Version      string
	Generation   GenerationConfig
	Runtime      RuntimeConfig
	Environments EnvironmentsConfig
}

// GenerationConfig controls the generated output's target language edition.
type GenerationConfig struct {
	TargetLanguage string `toml:"target_language"`
	GoEdition      string `toml:"go_edition"`
}

// RuntimeConfig names the client libraries the generator wires into
// generated code.
type RuntimeConfig struct {
	HTTPClient  string `toml:"http_client"`
	DBClient    string `toml:"db_client"`
	EventClient string `toml:"event_client"`
}

// EnvironmentsConfig holds the named environments, each a flat string map of
// per-service overrides (e.g. "Payments.base_url").
type EnvironmentsConfig struct {
	Default      string                       `toml:"default"`
	Environments map[string]map[string]string `toml:"-"`
}

// Load reads intent.toml, layering defaults -> file -> environment
// variables. A missing file is not an error: defaults (optionally
// overridden by environment variables) are returned instead.
func Load(configPath string) (Project, error) {
	cfg := Project{
		Generation: GenerationConfig{
			TargetLanguage: "go",
			GoEdition:      "1.23",
		},
		Runtime: RuntimeConfig{
			HTTPClient:  "net/http",
			DBClient:    "database/sql",
			EventClient: "kafka",
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return Project{}, err
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Project) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if proj, ok := raw["project"].(map[string]any); ok {
		if name, ok := proj["name"].(string); ok {
			c.Name = name
		}
		if version, ok := proj["version"].(string); ok {
			c.Version = version
		}
	}
	if gen, ok := raw["generation"].(map[string]any); ok {
		if v, ok := gen["target_language"].(string); ok {
			c.Generation.TargetLanguage = v
		}
		if v, ok := gen["go_edition"].(string); ok {
			c.Generation.GoEdition = v
		}
	}
	if rt, ok := raw["runtime"].(map[string]any); ok {
		if v, ok := rt["http_client"].(string); ok {
			c.Runtime.HTTPClient = v
		}
		if v, ok := rt["db_client"].(string); ok {
			c.Runtime.DBClient = v
		}
		if v, ok := rt["event_client"].(string); ok {
			c.Runtime.EventClient = v
		}
	}
	if envs, ok := raw["environments"].(map[string]any); ok {
		c.Environments.Environments = map[string]map[string]string{}
		for name, v := range envs {
			if name == "default" {
				if s, ok := v.(string); ok {
					c.Environments.Default = s
				}
				continue
			}
			if table, ok := v.(map[string]any); ok {
				overrides := map[string]string{}
				for k, raw := range table {
					if s, ok := raw.(string); ok {
						overrides[k] = s
					}
				}
				c.Environments.Environments[name] = overrides
			}
		}
	}

	return nil
}

func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("INTENT_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(ConfigFile); err == nil {
		return ConfigFile
	}
	return ""
}

func (c *Project) applyEnv() {
	envOverride("INTENT_PROJECT_NAME", &c.Name)
	envOverride("INTENT_PROJECT_VERSION", &c.Version)
	envOverride("INTENT_TARGET_LANGUAGE", &c.Generation.TargetLanguage)
	envOverride("INTENT_HTTP_CLIENT", &c.Runtime.HTTPClient)
	envOverride("INTENT_DB_CLIENT", &c.Runtime.DBClient)
	envOverride("INTENT_EVENT_CLIENT", &c.Runtime.EventClient)
}

func envOverride(key string, dest *string) {
	if v := os.Getenv(key); v != "" {
		*dest = v
	}
}

// GetEnvValue returns the override for key within the named environment, if
// any is configured.
func (c Project) GetEnvValue(env, key string) (string, bool) {
	table, ok := c.Environments.Environments[env]
	if !ok {
		return "", false
	}
	v, ok := table[key]
	return v, ok
}

// DefaultEnv returns the configured default environment, falling back to
// "dev" when none is set.
func (c Project) DefaultEnv() string {
	if c.Environments.Default == "" {
		return "dev"
	}
	return c.Environments.Default
}
