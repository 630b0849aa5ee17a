package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"FraudSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	// Bank URLs are service bases; the client appends the resource paths.
	Bank struct {
		AccountsURL     string `yaml:"accounts_url"`
		BalancesURL     string `yaml:"balances_url"`
		TransactionsURL string `yaml:"transactions_url"`
	} `yaml:"bank"`
	Auth struct {
		Token      string `yaml:"token"`
		JWTKeyFile string `yaml:"jwt_key_file"`
		Username   string `yaml:"username"`
		AccountID  string `yaml:"account_id"`
		TokenTTL   string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Model struct {
		Name        string `yaml:"name"`
		MaxAttempts int    `yaml:"max_attempts"`
		RetryDelay  string `yaml:"retry_delay"`
	} `yaml:"model"`
	Monitor struct {
		Interval    string  `yaml:"interval"`
		Window      int     `yaml:"window"`
		Concurrency int     `yaml:"concurrency"`
		MinCategory string  `yaml:"min_category"`
		MinScore    float64 `yaml:"min_score"`
		Realert     bool    `yaml:"realert"`
	} `yaml:"monitor"`
	Alerts struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"alerts"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		DigestCron string `yaml:"digest_cron"`
		RearmCron  string `yaml:"rearm_cron"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BANK_ACCOUNTS_URL"); v != "" {
		cfg.Bank.AccountsURL = v
	}
	if v := os.Getenv("BANK_BALANCES_URL"); v != "" {
		cfg.Bank.BalancesURL = v
	}
	if v := os.Getenv("BANK_TRANSACTIONS_URL"); v != "" {
		cfg.Bank.TransactionsURL = v
	}
	if v := os.Getenv("BANK_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := os.Getenv("JWT_KEY_FILE"); v != "" {
		cfg.Auth.JWTKeyFile = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("MONITORING_INTERVAL"); v != "" {
		cfg.Monitor.Interval = v
	}
	if v := os.Getenv("TRANSACTION_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.Window = n
		}
	}
	if v := os.Getenv("CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.Concurrency = n
		}
	}
	if v := os.Getenv("RISK_THRESHOLD"); v != "" {
		cfg.Monitor.MinCategory = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Alerts.WebhookURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Bank.AccountsURL == "" {
		cfg.Bank.AccountsURL = "http://userservice:8080"
	}
	if cfg.Bank.BalancesURL == "" {
		cfg.Bank.BalancesURL = "http://balancereader:8080"
	}
	if cfg.Bank.TransactionsURL == "" {
		cfg.Bank.TransactionsURL = "http://transactionhistory:8080"
	}
	if cfg.Auth.JWTKeyFile == "" && cfg.Auth.Token == "" {
		cfg.Auth.JWTKeyFile = "/var/secrets/jwt/jwtRS256.key"
	}
	if cfg.Auth.Username == "" {
		cfg.Auth.Username = "fraud-monitor"
	}
	if cfg.Auth.TokenTTL == "" {
		cfg.Auth.TokenTTL = "1h"
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = "gemini-1.5-pro"
	}
	if cfg.Model.MaxAttempts == 0 {
		cfg.Model.MaxAttempts = 3
	}
	if cfg.Model.RetryDelay == "" {
		cfg.Model.RetryDelay = "1s"
	}
	if cfg.Monitor.Interval == "" {
		cfg.Monitor.Interval = "30s"
	}
	if cfg.Monitor.Window == 0 {
		cfg.Monitor.Window = 10
	}
	if cfg.Monitor.Concurrency == 0 {
		cfg.Monitor.Concurrency = 4
	}
	if cfg.Monitor.MinCategory == "" {
		cfg.Monitor.MinCategory = "MEDIUM"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 8 * * *"
	}
	if cfg.Schedule.RearmCron == "" {
		cfg.Schedule.RearmCron = "0 0 0 * * *"
	}

	return cfg, nil
}

// Interval returns the parsed polling interval.
func (c *Config) Interval() (time.Duration, error) {
	return time.ParseDuration(c.Monitor.Interval)
}

// RetryDelay returns the parsed model retry base delay.
func (c *Config) RetryDelay() (time.Duration, error) {
	return time.ParseDuration(c.Model.RetryDelay)
}

// TokenTTL returns the parsed lifetime for minted tokens.
func (c *Config) TokenTTL() (time.Duration, error) {
	return time.ParseDuration(c.Auth.TokenTTL)
}

// MinCategory returns the parsed alert threshold category.
func (c *Config) MinCategory() (model.RiskCategory, error) {
	cat, ok := model.ParseCategory(c.Monitor.MinCategory)
	if !ok || cat == model.RiskUnknown {
		return "", fmt.Errorf("monitor.min_category %q is not LOW, MEDIUM, or HIGH", c.Monitor.MinCategory)
	}
	return cat, nil
}

// Validate checks that all required fields are set and parseable.
func (c *Config) Validate() error {
	if c.Bank.AccountsURL == "" {
		return fmt.Errorf("bank.accounts_url is required")
	}
	if c.Bank.BalancesURL == "" {
		return fmt.Errorf("bank.balances_url is required")
	}
	if c.Bank.TransactionsURL == "" {
		return fmt.Errorf("bank.transactions_url is required")
	}
	if c.Auth.Token == "" && c.Auth.JWTKeyFile == "" {
		return fmt.Errorf("auth.token or auth.jwt_key_file is required")
	}
	if c.Monitor.Window <= 0 {
		return fmt.Errorf("monitor.window must be positive")
	}
	if c.Monitor.Concurrency <= 0 {
		return fmt.Errorf("monitor.concurrency must be positive")
	}
	if c.Monitor.MinScore < 0 || c.Monitor.MinScore > 1 {
		return fmt.Errorf("monitor.min_score must be within [0, 1]")
	}
	if _, err := c.MinCategory(); err != nil {
		return err
	}
	if _, err := c.Interval(); err != nil {
		return fmt.Errorf("monitor.interval: %w", err)
	}
	if _, err := c.RetryDelay(); err != nil {
		return fmt.Errorf("model.retry_delay: %w", err)
	}
	if _, err := c.TokenTTL(); err != nil {
		return fmt.Errorf("auth.token_ttl: %w", err)
	}
	return nil
}
