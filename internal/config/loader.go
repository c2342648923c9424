package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Account        string         `yaml:"account"`
	DryRun         bool           `yaml:"dry_run"`
	DaysToKeep     int            `yaml:"days_to_keep"`
	SecretsDir     string         `yaml:"secrets_dir"`
	TDLib          TDLibConfig    `yaml:"tdlib"`
	History        HistoryConfig  `yaml:"history"`
	Protect        ProtectConfig  `yaml:"protect"`
	Logger         LoggerConfig   `yaml:"logger"`
	DatabaseConfig DatabaseConfig `yaml:"database"`
	Report         ReportConfig   `yaml:"report"`
	Metrics        MetricsConfig  `yaml:"metrics"`
}

// RunConfig is the read-only snapshot shared by every component of a run.
type RunConfig struct {
	RunID     string
	Account   string
	DryRun    bool
	Retention time.Duration
	Cutoff    time.Time
}

func Default() Config {
	return Config{
		DryRun:     true,
		DaysToKeep: 30,
		SecretsDir: "./secrets",
		TDLib: TDLibConfig{
			DatabaseDirectory:   "./tdlib-db",
			FilesDirectory:      "./tdlib-files",
			UseFileDatabase:     false,
			UseChatInfoDatabase: true,
			UseMessageDatabase:  true,
			SystemLanguageCode:  "en",
			DeviceModel:         "Server",
			SystemVersion:       "1.0.0",
			ApplicationVersion:  "1.0.0",
			LogLevel:            1,
		},
		History: HistoryConfig{
			PageSize:  50,
			PageDelay: time.Second,
		},
		Logger: LoggerConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults and applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("DRY_RUN"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid DRY_RUN %q: %w", v, err)
		}
		cfg.DryRun = b
	}
	if v, ok := lookup("DAYS_TO_KEEP"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid DAYS_TO_KEEP %q: %w", v, err)
		}
		cfg.DaysToKeep = n
	}
	if v, ok := lookup("SECRETS_DIR"); ok && v != "" {
		cfg.SecretsDir = v
	}
	if v, ok := lookup("ACCOUNT"); ok && v != "" {
		cfg.Account = v
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Account) == "" {
		errs = append(errs, errors.New("account is required"))
	}
	if c.DaysToKeep < 0 {
		errs = append(errs, fmt.Errorf("days_to_keep must not be negative, got %d", c.DaysToKeep))
	}
	if c.History.PageSize <= 0 || c.History.PageSize > 100 {
		errs = append(errs, fmt.Errorf("history.page_size must be in 1..100, got %d", c.History.PageSize))
	}
	if c.History.PageDelay < 0 {
		errs = append(errs, fmt.Errorf("history.page_delay must not be negative, got %s", c.History.PageDelay))
	}
	switch c.DatabaseConfig.Driver {
	case "", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DatabaseConfig.Driver))
	}
	return errors.Join(errs...)
}

func (c Config) RunConfig(now time.Time) RunConfig {
	retention := time.Duration(c.DaysToKeep) * 24 * time.Hour
	return RunConfig{
		RunID:     uuid.NewString(),
		Account:   strings.TrimPrefix(strings.TrimSpace(c.Account), "@"),
		DryRun:    c.DryRun,
		Retention: retention,
		Cutoff:    now.Add(-retention),
	}
}
