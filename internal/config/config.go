package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"studiosim/internal/game"
	"studiosim/internal/store"
)

type StoreConfig struct {
	Kind        string `env:"STUDIO_STORE" envDefault:"file"`
	DataDir     string `env:"STUDIO_DATA_DIR"`
	SQLitePath  string `env:"STUDIO_SQLITE_PATH"`
	DatabaseURL string `env:"DATABASE_URL"`
}

type GameConfig struct {
	Seed          int64  `env:"STUDIO_SEED"`
	BalancePreset string `env:"STUDIO_BALANCE_PRESET" envDefault:"default"`
	BalanceFile   string `env:"STUDIO_BALANCE_FILE"`
}

type APIConfig struct {
	Addr  string `env:"STUDIO_API_ADDR" envDefault:":8080"`
	Port  string `env:"PORT"`
	Store StoreConfig
	Game  GameConfig
}

type CLIConfig struct {
	APIBaseURL string `env:"STUDIO_API_BASE_URL" envDefault:"http://localhost:8080"`
	Store      StoreConfig
	Game       GameConfig
}

type WorkerConfig struct {
	TickEvery time.Duration `env:"STUDIO_WORKER_TICK_EVERY" envDefault:"1m"`
	RunOnce   bool          `env:"STUDIO_WORKER_RUN_ONCE"`
	Store     StoreConfig
	Game      GameConfig
}

func parseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadAPIFromEnv() (APIConfig, error) {
	var cfg APIConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	// PORT wins so the binary runs unmodified on hosted platforms.
	if port := strings.TrimSpace(cfg.Port); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Addr = port
	}
	return cfg, cfg.Store.normalize()
}

func LoadCLIFromEnv() (CLIConfig, error) {
	var cfg CLIConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	return cfg, cfg.Store.normalize()
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	var cfg WorkerConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("STUDIO_WORKER_TICK_EVERY must be positive, got %s", cfg.TickEvery)
	}
	return cfg, cfg.Store.normalize()
}

func (c *StoreConfig) normalize() error {
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	if strings.TrimSpace(c.DataDir) == "" {
		dir, err := store.DefaultDataDir()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		c.DataDir = dir
	}
	if strings.TrimSpace(c.SQLitePath) == "" {
		c.SQLitePath = filepath.Join(c.DataDir, "saves.db")
	}
	switch c.Kind {
	case store.KindFile, store.KindSQLite:
	case store.KindPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STUDIO_STORE=postgres")
		}
	default:
		return fmt.Errorf("STUDIO_STORE must be file, sqlite or postgres, got %q", c.Kind)
	}
	return nil
}

func (c StoreConfig) Options() store.Options {
	return store.Options{
		Kind:        c.Kind,
		DataDir:     c.DataDir,
		SQLitePath:  c.SQLitePath,
		DatabaseURL: c.DatabaseURL,
	}
}

// Balance resolves the preset and overlays the optional YAML file on it.
func (c GameConfig) Balance() (game.BalanceConfig, error) {
	cfg, err := game.BalancePreset(c.BalancePreset)
	if err != nil {
		return cfg, err
	}
	if strings.TrimSpace(c.BalanceFile) == "" {
		return cfg, nil
	}
	return LoadBalanceFile(c.BalanceFile, cfg)
}

// LoadBalanceFile decodes a YAML balance file on top of base; keys absent
// from the file keep their base values.
func LoadBalanceFile(path string, base game.BalanceConfig) (game.BalanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read balance file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse balance file %s: %w", path, err)
	}
	return cfg, nil
}
