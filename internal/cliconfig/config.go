// Package cliconfig holds the CLI-facing configuration of the scanner
// and its precedence rules: defaults, then config file, then
// environment, then explicitly set flags.
package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jnMetaCode/available-domains/internal/domain"
	"github.com/jnMetaCode/available-domains/internal/gen"
)

// Alphabet kinds accepted by the kind setting.
const (
	KindLetters      = "letters"
	KindAllLetters   = "all-letters"
	KindDigits       = "digits"
	KindAlphanumeric = "alphanumeric"
)

// Default tuning values.
const (
	DefaultTLD           = "com"
	DefaultDataDir       = "results"
	DefaultMinLength     = 3
	DefaultDNSWorkers    = 8
	DefaultAPIWorkers    = 2
	DefaultQueueSize     = 64
	DefaultDNSRetries    = 3
	DefaultAPIRetries    = 3
	DefaultDNSTimeout    = 5 * time.Second
	DefaultFlushInterval = 5 * time.Second
	DefaultAPIInterval   = 10 * time.Second
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultRetryDelayMax = 10 * time.Second
)

// ProviderSettings configures one registrar adapter.
type ProviderSettings struct {
	Active    bool
	Endpoint  string
	APIKey    string
	APISecret string
	Username  string
	Password  string

	// Interval is the minimum spacing between calls to this provider.
	Interval time.Duration
	Burst    int
}

// Config holds CLI configuration for domainfinder.
type Config struct {
	// Candidate space.
	Kind       string
	Characters string
	MinLength  int
	MaxLength  int
	Prefix     string
	Suffix     string
	Limit      uint64
	TLD        string

	// Pipeline shape.
	DNSWorkers int
	APIWorkers int
	QueueSize  int

	// Modes.
	VerifyAPI     bool
	OnlyVerifyAPI bool
	FinalVerify   bool
	SkipOnError   bool

	// DNS stage.
	DNSServer   string
	DNSTimeout  time.Duration
	DNSInterval time.Duration
	DNSRetries  int

	// API stage.
	APIRetries int

	// Backoff schedule between transient-failure retries.
	RetryDelay    time.Duration
	RetryDelayMax time.Duration

	// Storage.
	DataDir       string
	FlushInterval time.Duration

	Porkbun ProviderSettings
	Dynadot ProviderSettings
	Loopia  ProviderSettings
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Kind:          KindLetters,
		MinLength:     DefaultMinLength,
		TLD:           DefaultTLD,
		DNSWorkers:    DefaultDNSWorkers,
		APIWorkers:    DefaultAPIWorkers,
		QueueSize:     DefaultQueueSize,
		DNSTimeout:    DefaultDNSTimeout,
		DNSRetries:    DefaultDNSRetries,
		APIRetries:    DefaultAPIRetries,
		RetryDelay:    DefaultRetryDelay,
		RetryDelayMax: DefaultRetryDelayMax,
		DataDir:       DefaultDataDir,
		FlushInterval: DefaultFlushInterval,
		Porkbun:       ProviderSettings{Interval: DefaultAPIInterval, Burst: 1},
		Dynadot:       ProviderSettings{Interval: DefaultAPIInterval, Burst: 1},
		Loopia:        ProviderSettings{Interval: DefaultAPIInterval, Burst: 1},
	}
}

// Alphabet resolves the character set: an explicit characters setting
// wins, otherwise the kind selects a built-in set.
func (c *Config) Alphabet() (string, error) {
	if c.Characters != "" {
		return strings.ToLower(c.Characters), nil
	}
	switch c.Kind {
	case KindLetters, "":
		return gen.EasyLetters, nil
	case KindAllLetters:
		return gen.AllLetters, nil
	case KindDigits:
		return gen.Digits, nil
	case KindAlphanumeric:
		return gen.Alphanumeric, nil
	default:
		return "", fmt.Errorf("unknown kind %q", c.Kind)
	}
}

// ActiveProviders lists the names of providers joining the rotation.
func (c *Config) ActiveProviders() []string {
	var names []string
	if c.Porkbun.Active {
		names = append(names, "porkbun")
	}
	if c.Dynadot.Active {
		names = append(names, "dynadot")
	}
	if c.Loopia.Active {
		names = append(names, "loopia")
	}
	return names
}

// GenSpec builds the generator spec from the candidate space settings.
func (c *Config) GenSpec() (gen.Spec, error) {
	alphabet, err := c.Alphabet()
	if err != nil {
		return gen.Spec{}, err
	}
	return gen.Spec{
		Alphabet:  alphabet,
		Kind:      kindOf(c.Kind, c.Characters),
		MinLength: c.MinLength,
		MaxLength: c.MaxLength,
		Prefix:    strings.ToLower(c.Prefix),
		Suffix:    strings.ToLower(c.Suffix),
		Limit:     c.Limit,
	}, nil
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if _, err := c.Alphabet(); err != nil {
		return err
	}
	if c.MinLength <= 0 {
		return fmt.Errorf("min length must be positive")
	}
	if c.MaxLength == 0 {
		c.MaxLength = c.MinLength
	}
	if c.MaxLength < c.MinLength {
		return fmt.Errorf("max length %d below min length %d", c.MaxLength, c.MinLength)
	}
	if c.TLD == "" {
		c.TLD = DefaultTLD
	}
	c.TLD = strings.TrimPrefix(strings.ToLower(c.TLD), ".")
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}

	if c.OnlyVerifyAPI {
		c.VerifyAPI = true
	}
	if (c.VerifyAPI || c.FinalVerify) && len(c.ActiveProviders()) == 0 {
		return fmt.Errorf("api verification requested but no provider is active")
	}

	if c.DNSWorkers <= 0 {
		c.DNSWorkers = DefaultDNSWorkers
	}
	if c.APIWorkers <= 0 {
		c.APIWorkers = DefaultAPIWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.RetryDelayMax <= 0 {
		c.RetryDelayMax = DefaultRetryDelayMax
	}
	if c.RetryDelayMax < c.RetryDelay {
		c.RetryDelayMax = c.RetryDelay
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setUintFromString parses a string to uint64 and sets the destination if valid.
func (s *configSetter) setUintFromString(flag, value string, dst *uint64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	u, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = u
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// kindOf maps the config kind onto the candidate kind recorded with
// each generated name.
func kindOf(kind, characters string) domain.Kind {
	if characters != "" {
		characters = strings.ToLower(characters)
		if strings.Trim(characters, gen.Digits) == "" {
			return domain.KindDigits
		}
		if strings.Trim(characters, gen.AllLetters) == "" {
			return domain.KindLetters
		}
		return domain.KindAlphanumeric
	}
	switch kind {
	case KindDigits:
		return domain.KindDigits
	case KindAlphanumeric:
		return domain.KindAlphanumeric
	default:
		return domain.KindLetters
	}
}
