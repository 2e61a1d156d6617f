// Package config loads the immutable application configuration.
//
// A platform without credentials is a valid empty state, not an error:
// the aggregator simply skips it. Settings changes produce a new Config
// value and a new fetch cycle; nothing here is reloaded in place.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultGitlabHost = "https://gitlab.com"

// DefaultTimeout bounds one whole fetch cycle.
const DefaultTimeout = 30 * time.Second

// Config carries everything a fetch cycle needs.
type Config struct {
	GithubToken    string        `mapstructure:"github_token"`
	GithubUsername string        `mapstructure:"github_username"`
	GitlabToken    string        `mapstructure:"gitlab_token"`
	GitlabHost     string        `mapstructure:"gitlab_host"`
	GitlabUsername string        `mapstructure:"gitlab_username"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from an optional YAML file and DASHGIT_*
// environment variables; the environment wins. An empty path means
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("dashgit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("github_token", "")
	v.SetDefault("github_username", "")
	v.SetDefault("gitlab_token", "")
	v.SetDefault("gitlab_host", defaultGitlabHost)
	v.SetDefault("gitlab_username", "")
	v.SetDefault("timeout", DefaultTimeout)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.GitlabHost = strings.TrimRight(cfg.GitlabHost, "/")
	if cfg.GitlabHost == "" {
		cfg.GitlabHost = defaultGitlabHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &cfg, nil
}

// GithubConfigured reports whether the GitHub gateway can be used.
func (c *Config) GithubConfigured() bool {
	return c.GithubToken != ""
}

// GitlabConfigured reports whether the GitLab gateway can be used.
func (c *Config) GitlabConfigured() bool {
	return c.GitlabToken != ""
}
