// Package config loads service configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doa-network/staking-vault/internal/chain"
)

// Duration is a time.Duration that unmarshals from YAML strings like "24h".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full service configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	RPC struct {
		Endpoint       string   `yaml:"endpoint"`
		Timeout        Duration `yaml:"timeout"`
		PollInterval   Duration `yaml:"poll_interval"`
		ConfirmTimeout Duration `yaml:"confirm_timeout"`
	} `yaml:"rpc"`

	Program struct {
		ID       string `yaml:"id"`
		Treasury string `yaml:"treasury"`
	} `yaml:"program"`

	Staking struct {
		PenaltyWindow    Duration `yaml:"penalty_window"`
		LockWindow       Duration `yaml:"lock_window"`
		PenaltyRateBps   int64    `yaml:"penalty_rate_bps"`
		RewardMultiplier int64    `yaml:"reward_multiplier"`
	} `yaml:"staking"`

	Storage struct {
		Driver string `yaml:"driver"` // "memory" or "postgres"
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Wallet struct {
		KeypairFile string `yaml:"keypair_file"`
	} `yaml:"wallet"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.RPC.Endpoint = "https://api.devnet.solana.com"
	cfg.RPC.Timeout = Duration(30 * time.Second)
	cfg.RPC.PollInterval = Duration(2 * time.Second)
	cfg.RPC.ConfirmTimeout = Duration(2 * time.Minute)
	cfg.Staking.PenaltyWindow = Duration(24 * time.Hour)
	cfg.Staking.LockWindow = Duration(720 * time.Hour)
	cfg.Staking.PenaltyRateBps = 1000
	cfg.Staking.RewardMultiplier = 2
	cfg.Storage.Driver = "memory"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "stdout"
	return cfg
}

// Load reads configuration from the given path, falling back to defaults
// when the file is absent, then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("VAULT_RPC_ENDPOINT"); v != "" {
		cfg.RPC.Endpoint = v
	}
	if v := os.Getenv("VAULT_PROGRAM_ID"); v != "" {
		cfg.Program.ID = v
	}
	if v := os.Getenv("VAULT_TREASURY"); v != "" {
		cfg.Program.Treasury = v
	}
	if v := os.Getenv("VAULT_STORAGE_DSN"); v != "" {
		cfg.Storage.Driver = "postgres"
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("VAULT_KEYPAIR_FILE"); v != "" {
		cfg.Wallet.KeypairFile = v
	}
	if v := os.Getenv("VAULT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VAULT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	if c.RPC.Endpoint == "" {
		return fmt.Errorf("rpc endpoint is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Program.ID == "" {
		return fmt.Errorf("program id is required")
	}
	if _, err := chain.ParseAddress(c.Program.ID); err != nil {
		return fmt.Errorf("program id: %w", err)
	}
	if c.Program.Treasury == "" {
		return fmt.Errorf("treasury address is required")
	}
	if _, err := chain.ParseAddress(c.Program.Treasury); err != nil {
		return fmt.Errorf("treasury address: %w", err)
	}
	if c.Staking.PenaltyWindow.Std() >= c.Staking.LockWindow.Std() {
		return fmt.Errorf("penalty window %s must be shorter than lock window %s",
			c.Staking.PenaltyWindow.Std(), c.Staking.LockWindow.Std())
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("postgres storage requires a dsn")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
