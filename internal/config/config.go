// Package config loads YAML configuration with environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "PLANSCOPE_CONFIG"
	databasePathEnv  = "PLANSCOPE_DB"
	anthropicKeyEnv  = "ANTHROPIC_API_KEY"
	httpEndpointEnv  = "PLANSCOPE_LLM_ENDPOINT"
	httpModelEnv     = "PLANSCOPE_LLM_MODEL"
	httpKeyEnv       = "PLANSCOPE_LLM_API_KEY"
	subprocessCmdEnv = "PLANSCOPE_LLM_COMMAND"
	analysisDirEnv   = "PLANSCOPE_ANALYSIS_DIR"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Election   ElectionConfig   `yaml:"election"`
	Generation GenerationConfig `yaml:"generation"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ElectionConfig fixes the (year, type, country) triple ingestion and
// comparison are scoped to.
type ElectionConfig struct {
	Year    int    `yaml:"year"`
	Type    string `yaml:"type"`
	Country string `yaml:"country"`
	Name    string `yaml:"name"`
}

// GenerationConfig wires the generation backends. Anthropic is primary; the
// HTTP endpoint and subprocess command form the degraded fallback chain.
type GenerationConfig struct {
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	HTTP       HTTPConfig       `yaml:"http"`
	Subprocess SubprocessConfig `yaml:"subprocess"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type HTTPConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

type SubprocessConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type AnalysisConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads the YAML file named by PLANSCOPE_CONFIG (when set) over the
// defaults, then applies environment overrides.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.Generation.Anthropic.APIKey = v
	}
	if v := os.Getenv(httpEndpointEnv); v != "" {
		c.Generation.HTTP.Endpoint = v
	}
	if v := os.Getenv(httpModelEnv); v != "" {
		c.Generation.HTTP.Model = v
	}
	if v := os.Getenv(httpKeyEnv); v != "" {
		c.Generation.HTTP.APIKey = v
	}
	if v := os.Getenv(subprocessCmdEnv); v != "" {
		c.Generation.Subprocess.Command = v
	}
	if v := os.Getenv(analysisDirEnv); v != "" {
		c.Analysis.Dir = v
	}
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "planscope.db"},
		Election: ElectionConfig{
			Year:    2021,
			Type:    "presidential",
			Country: "Peru",
			Name:    "Elecciones presidenciales Perú 2021",
		},
		Generation: GenerationConfig{
			HTTP: HTTPConfig{Model: "gpt-4o-mini"},
		},
		Analysis: AnalysisConfig{Dir: "analysis"},
	}
}
