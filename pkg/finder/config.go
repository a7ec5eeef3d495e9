package finder

import (
	"fmt"
	"strings"
	"time"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

// Default configuration values.
const (
	DefaultTLD           = "com"
	DefaultDataDir       = "results"
	DefaultDNSWorkers    = 8
	DefaultAPIWorkers    = 2
	DefaultQueueSize     = 64
	DefaultDNSTimeout    = 5 * time.Second
	DefaultFlushInterval = 5 * time.Second
	DefaultHTTPTimeout   = 15 * time.Second
)

// EasyLetters is the default alphabet: lowercase letters that read
// unambiguously in domain names.
const EasyLetters = "abcdefhkmnprstuwy"

// ProviderConfig holds credentials and rate limits for one registrar.
type ProviderConfig struct {
	// Name selects the adapter: "porkbun", "dynadot" or "loopia".
	Name string

	Endpoint  string
	APIKey    string
	APISecret string
	Username  string
	Password  string

	// Interval spaces calls to this provider; zero means unlimited.
	Interval time.Duration
	Burst    int
}

// Config describes a scan. The zero value is not usable; fill in at
// least Alphabet and MinLength, or call SetDefaults first.
type Config struct {
	// Candidate space.
	Alphabet  string
	MinLength int
	MaxLength int
	Prefix    string
	Suffix    string
	Limit     uint64
	TLD       string

	// Pipeline shape.
	DNSWorkers int
	APIWorkers int
	QueueSize  int

	// Modes.
	VerifyAPI     bool
	OnlyVerifyAPI bool
	FinalVerify   bool

	// SkipOnError drops candidates whose DNS retries are exhausted
	// instead of forwarding them to the confirm stage as unknown.
	SkipOnError bool

	// DNS stage.
	DNSServer   string
	DNSTimeout  time.Duration
	DNSInterval time.Duration

	// Retry budgets for transient failures; zero picks the defaults.
	DNSRetries int
	APIRetries int

	// RetryDelay is the base backoff delay between transient-failure
	// retries and RetryDelayMax caps the grown delay. Zero picks the
	// defaults.
	RetryDelay    time.Duration
	RetryDelayMax time.Duration

	// Providers joins the confirm stage rotation, in order.
	Providers []ProviderConfig

	// Storage.
	DataDir       string
	FlushInterval time.Duration

	HTTPTimeout time.Duration
}

// SetDefaults fills unset fields with defaults.
func (c *Config) SetDefaults() {
	if c.Alphabet == "" {
		c.Alphabet = EasyLetters
	}
	if c.MinLength <= 0 {
		c.MinLength = 3
	}
	if c.TLD == "" {
		c.TLD = DefaultTLD
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
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
	if c.DNSTimeout <= 0 {
		c.DNSTimeout = DefaultDNSTimeout
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
}

// Validate checks the configuration, returning ErrInvalidConfig
// wrapped with detail on failure.
func (c *Config) Validate() error {
	if c.Alphabet == "" {
		return fmt.Errorf("%w: alphabet is required", domain.ErrInvalidConfig)
	}
	if c.MinLength <= 0 {
		return fmt.Errorf("%w: min length must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxLength != 0 && c.MaxLength < c.MinLength {
		return fmt.Errorf("%w: max length below min length", domain.ErrInvalidConfig)
	}
	if c.OnlyVerifyAPI {
		c.VerifyAPI = true
	}
	if (c.VerifyAPI || c.FinalVerify) && len(c.Providers) == 0 {
		return fmt.Errorf("%w: api verification requested but no providers configured", domain.ErrInvalidConfig)
	}
	for _, p := range c.Providers {
		switch strings.ToLower(p.Name) {
		case "porkbun", "dynadot", "loopia":
		default:
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidConfig, p.Name)
		}
	}
	return nil
}
