package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("DOMAINFINDER_KIND", "digits")
	t.Setenv("DOMAINFINDER_MIN_LENGTH", "2")
	t.Setenv("DOMAINFINDER_LIMIT", "1000")
	t.Setenv("DOMAINFINDER_TLD", "io")
	t.Setenv("DOMAINFINDER_DNS_INTERVAL", "50ms")
	t.Setenv("DOMAINFINDER_VERIFY_API", "true")
	t.Setenv("DOMAINFINDER_SKIP_ON_ERROR", "true")
	t.Setenv("DOMAINFINDER_RETRY_DELAY", "100ms")
	t.Setenv("DOMAINFINDER_RETRY_DELAY_MAX", "2s")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig() = %v", err)
	}

	if cfg.Kind != "digits" {
		t.Errorf("Kind = %q, want digits", cfg.Kind)
	}
	if cfg.MinLength != 2 {
		t.Errorf("MinLength = %d, want 2", cfg.MinLength)
	}
	if cfg.Limit != 1000 {
		t.Errorf("Limit = %d, want 1000", cfg.Limit)
	}
	if cfg.TLD != "io" {
		t.Errorf("TLD = %q, want io", cfg.TLD)
	}
	if cfg.DNSInterval != 50*time.Millisecond {
		t.Errorf("DNSInterval = %v, want 50ms", cfg.DNSInterval)
	}
	if !cfg.VerifyAPI {
		t.Error("VerifyAPI not applied from env")
	}
	if !cfg.SkipOnError {
		t.Error("SkipOnError not applied from env")
	}
	if cfg.RetryDelay != 100*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 100ms", cfg.RetryDelay)
	}
	if cfg.RetryDelayMax != 2*time.Second {
		t.Errorf("RetryDelayMax = %v, want 2s", cfg.RetryDelayMax)
	}
}

func TestApplyEnvConfig_RespectsChangedFlags(t *testing.T) {
	t.Setenv("DOMAINFINDER_KIND", "digits")
	t.Setenv("DOMAINFINDER_TLD", "io")

	cfg := DefaultConfig()
	cfg.Kind = "all-letters"
	changed := map[string]bool{"kind": true}

	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig() = %v", err)
	}

	if cfg.Kind != "all-letters" {
		t.Errorf("Kind = %q, env overrode an explicit flag", cfg.Kind)
	}
	if cfg.TLD != "io" {
		t.Errorf("TLD = %q, want io", cfg.TLD)
	}
}

func TestApplyEnvConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad int", "DOMAINFINDER_MIN_LENGTH", "three"},
		{"bad uint", "DOMAINFINDER_LIMIT", "-5"},
		{"bad duration", "DOMAINFINDER_DNS_TIMEOUT", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := DefaultConfig()
			if err := ApplyEnvConfig(&cfg, map[string]bool{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyEnvConfig_ProviderCredentials(t *testing.T) {
	t.Setenv("DOMAINFINDER_PORKBUN_API_KEY", "pk")
	t.Setenv("DOMAINFINDER_PORKBUN_API_SECRET", "sk")
	t.Setenv("DOMAINFINDER_PORKBUN_ACTIVE", "1")
	t.Setenv("DOMAINFINDER_LOOPIA_USERNAME", "u")
	t.Setenv("DOMAINFINDER_LOOPIA_PASSWORD", "p")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig() = %v", err)
	}

	if !cfg.Porkbun.Active || cfg.Porkbun.APIKey != "pk" || cfg.Porkbun.APISecret != "sk" {
		t.Errorf("Porkbun = %+v, want active with pk/sk", cfg.Porkbun)
	}
	if cfg.Loopia.Username != "u" || cfg.Loopia.Password != "p" {
		t.Errorf("Loopia = %+v, want u/p credentials", cfg.Loopia)
	}
	if cfg.Loopia.Active {
		t.Error("Loopia.Active should stay false without env override")
	}
}
