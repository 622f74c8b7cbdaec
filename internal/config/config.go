// Package config carries the explicit service configuration. It is loaded
// once in main and passed into constructors; nothing reads the environment
// after startup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port         string `toml:"port"`
	ReadTimeout  int    `toml:"read_timeout"`
	WriteTimeout int    `toml:"write_timeout"`
	IdleTimeout  int    `toml:"idle_timeout"`
}

type JudgeConfig struct {
	// MaxSandboxes bounds how many containers may be alive at once.
	MaxSandboxes int64 `toml:"max_sandboxes"`
	// Workers drain the single-submission queue.
	Workers       int `toml:"workers"`
	QueueCapacity int `toml:"queue_capacity"`
}

type DockerConfig struct {
	// Host selects the runtime: empty for the local daemon, ssh://user@host
	// for a remote one.
	Host string `toml:"host"`
}

type Config struct {
	Server ServerConfig `toml:"server"`
	Judge  JudgeConfig  `toml:"judge"`
	Docker DockerConfig `toml:"docker"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  60,
		},
		Judge: JudgeConfig{
			MaxSandboxes:  8,
			Workers:       5,
			QueueCapacity: 100,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional TOML file
// named by JUDGE_CONFIG, and environment overrides, in that order. A .env
// file is honored when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("JUDGE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("JUDGE_MAX_SANDBOXES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("JUDGE_MAX_SANDBOXES: %w", err)
		}
		cfg.Judge.MaxSandboxes = n
	}
	if v := os.Getenv("JUDGE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("JUDGE_WORKERS: %w", err)
		}
		cfg.Judge.Workers = n
	}
	if v := os.Getenv("JUDGE_QUEUE_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("JUDGE_QUEUE_CAPACITY: %w", err)
		}
		cfg.Judge.QueueCapacity = n
	}
	if v := os.Getenv("JUDGE_DOCKER_HOST"); v != "" {
		cfg.Docker.Host = v
	}

	if cfg.Judge.MaxSandboxes <= 0 {
		return nil, fmt.Errorf("judge.max_sandboxes must be positive")
	}
	if cfg.Judge.Workers <= 0 {
		return nil, fmt.Errorf("judge.workers must be positive")
	}
	return cfg, nil
}
