package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileProvider mirrors ProviderSettings with string durations for TOML.
type FileProvider struct {
	Active    *bool  `toml:"active"`
	Endpoint  string `toml:"endpoint"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Interval  string `toml:"interval"`
	Burst     int    `toml:"burst"`
}

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Kind       string `toml:"kind"`
	Characters string `toml:"characters"`
	MinLength  int    `toml:"min_length"`
	MaxLength  int    `toml:"max_length"`
	Prefix     string `toml:"prefix"`
	Suffix     string `toml:"suffix"`
	Limit      uint64 `toml:"limit"`
	TLD        string `toml:"tld"`

	DNSWorkers int `toml:"dns_workers"`
	APIWorkers int `toml:"api_workers"`
	QueueSize  int `toml:"queue_size"`

	VerifyAPI     *bool `toml:"verify_api"`
	OnlyVerifyAPI *bool `toml:"only_verify_api"`
	FinalVerify   *bool `toml:"final_verify"`
	SkipOnError   *bool `toml:"skip_on_error"`

	DNSServer   string `toml:"dns_server"`
	DNSTimeout  string `toml:"dns_timeout"`
	DNSInterval string `toml:"dns_interval"`
	DNSRetries  int    `toml:"dns_retries"`
	APIRetries  int    `toml:"api_retries"`

	RetryDelay    string `toml:"retry_delay"`
	RetryDelayMax string `toml:"retry_delay_max"`

	DataDir       string `toml:"data_dir"`
	FlushInterval string `toml:"flush_interval"`

	Porkbun FileProvider `toml:"porkbun"`
	Dynadot FileProvider `toml:"dynadot"`
	Loopia  FileProvider `toml:"loopia"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.domainfinder/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".domainfinder", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("kind", fc.Kind, &cfg.Kind)
	s.setString("characters", fc.Characters, &cfg.Characters)
	s.setInt("min-length", fc.MinLength, &cfg.MinLength)
	s.setInt("max-length", fc.MaxLength, &cfg.MaxLength)
	s.setString("prefix", fc.Prefix, &cfg.Prefix)
	s.setString("suffix", fc.Suffix, &cfg.Suffix)
	if fc.Limit > 0 && !changed["limit"] {
		cfg.Limit = fc.Limit
	}
	s.setString("tld", fc.TLD, &cfg.TLD)

	s.setInt("threads", fc.DNSWorkers, &cfg.DNSWorkers)
	s.setInt("api-workers", fc.APIWorkers, &cfg.APIWorkers)
	s.setInt("queue-size", fc.QueueSize, &cfg.QueueSize)

	s.setBool("verify-api", fc.VerifyAPI, &cfg.VerifyAPI)
	s.setBool("only-verify-api", fc.OnlyVerifyAPI, &cfg.OnlyVerifyAPI)
	s.setBool("final-verify", fc.FinalVerify, &cfg.FinalVerify)
	s.setBool("skip-on-error", fc.SkipOnError, &cfg.SkipOnError)

	s.setString("dns-server", fc.DNSServer, &cfg.DNSServer)
	if err := s.setDuration("dns-timeout", fc.DNSTimeout, &cfg.DNSTimeout); err != nil {
		return err
	}
	if err := s.setDuration("dns-interval", fc.DNSInterval, &cfg.DNSInterval); err != nil {
		return err
	}
	s.setInt("dns-retries", fc.DNSRetries, &cfg.DNSRetries)
	s.setInt("api-retries", fc.APIRetries, &cfg.APIRetries)
	if err := s.setDuration("retry-delay", fc.RetryDelay, &cfg.RetryDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-delay-max", fc.RetryDelayMax, &cfg.RetryDelayMax); err != nil {
		return err
	}

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}

	if err := applyFileProvider(&cfg.Porkbun, fc.Porkbun); err != nil {
		return err
	}
	if err := applyFileProvider(&cfg.Dynadot, fc.Dynadot); err != nil {
		return err
	}
	return applyFileProvider(&cfg.Loopia, fc.Loopia)
}

// applyFileProvider merges one provider table. Provider credentials
// have no flags, so there is no changed map to respect.
func applyFileProvider(dst *ProviderSettings, src FileProvider) error {
	if src.Active != nil {
		dst.Active = *src.Active
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.APISecret != "" {
		dst.APISecret = src.APISecret
	}
	if src.Username != "" {
		dst.Username = src.Username
	}
	if src.Password != "" {
		dst.Password = src.Password
	}
	if src.Interval != "" {
		d, err := time.ParseDuration(src.Interval)
		if err != nil {
			return fmt.Errorf("parse provider interval: %w", err)
		}
		dst.Interval = d
	}
	if src.Burst > 0 {
		dst.Burst = src.Burst
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
