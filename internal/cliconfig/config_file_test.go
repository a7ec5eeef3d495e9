package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfigFile(t, `
kind = "alphanumeric"
min_length = 2
max_length = 4
limit = 500
tld = "io"
dns_workers = 16
verify_api = true
dns_interval = "100ms"

[porkbun]
active = true
api_key = "pk"
api_secret = "sk"
interval = "11s"

[loopia]
active = false
username = "u"
password = "p"
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() = %v", err)
	}

	if fc.Kind != "alphanumeric" {
		t.Errorf("Kind = %q, want alphanumeric", fc.Kind)
	}
	if fc.Limit != 500 {
		t.Errorf("Limit = %d, want 500", fc.Limit)
	}
	if fc.VerifyAPI == nil || !*fc.VerifyAPI {
		t.Error("VerifyAPI not parsed as true")
	}
	if fc.Porkbun.Active == nil || !*fc.Porkbun.Active {
		t.Error("porkbun.active not parsed as true")
	}
	if fc.Porkbun.APIKey != "pk" {
		t.Errorf("porkbun.api_key = %q, want pk", fc.Porkbun.APIKey)
	}
	if fc.Loopia.Active == nil || *fc.Loopia.Active {
		t.Error("loopia.active not parsed as false")
	}
}

func TestLoadFileConfig_Missing(t *testing.T) {
	_, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFileConfig_Invalid(t *testing.T) {
	path := writeConfigFile(t, "kind = [broken")
	_, err := LoadFileConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestApplyFileConfig(t *testing.T) {
	fc := FileConfig{
		Kind:       "digits",
		MinLength:  2,
		TLD:        "net",
		DNSWorkers: 32,

		SkipOnError:   boolPtr(true),
		RetryDelay:    "250ms",
		RetryDelayMax: "4s",

		Porkbun: FileProvider{
			Active:   boolPtr(true),
			APIKey:   "pk",
			Interval: "12s",
			Burst:    2,
		},
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
		t.Fatalf("ApplyFileConfig() = %v", err)
	}

	if cfg.Kind != "digits" {
		t.Errorf("Kind = %q, want digits", cfg.Kind)
	}
	if cfg.TLD != "net" {
		t.Errorf("TLD = %q, want net", cfg.TLD)
	}
	if cfg.DNSWorkers != 32 {
		t.Errorf("DNSWorkers = %d, want 32", cfg.DNSWorkers)
	}
	if !cfg.SkipOnError {
		t.Error("SkipOnError not applied from file")
	}
	if cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 250ms", cfg.RetryDelay)
	}
	if cfg.RetryDelayMax != 4*time.Second {
		t.Errorf("RetryDelayMax = %v, want 4s", cfg.RetryDelayMax)
	}
	if !cfg.Porkbun.Active || cfg.Porkbun.APIKey != "pk" {
		t.Errorf("Porkbun = %+v, want active with key pk", cfg.Porkbun)
	}
	if cfg.Porkbun.Interval != 12*time.Second {
		t.Errorf("Porkbun.Interval = %v, want 12s", cfg.Porkbun.Interval)
	}
	if cfg.Porkbun.Burst != 2 {
		t.Errorf("Porkbun.Burst = %d, want 2", cfg.Porkbun.Burst)
	}
}

func TestApplyFileConfig_RespectsChangedFlags(t *testing.T) {
	fc := FileConfig{
		Kind:       "digits",
		DNSWorkers: 32,
	}

	cfg := DefaultConfig()
	cfg.Kind = "all-letters"
	cfg.DNSWorkers = 4
	changed := map[string]bool{"kind": true, "threads": true}

	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig() = %v", err)
	}

	if cfg.Kind != "all-letters" {
		t.Errorf("Kind = %q, file overrode an explicit flag", cfg.Kind)
	}
	if cfg.DNSWorkers != 4 {
		t.Errorf("DNSWorkers = %d, file overrode an explicit flag", cfg.DNSWorkers)
	}
}

func TestApplyFileConfig_BadProviderInterval(t *testing.T) {
	fc := FileConfig{
		Dynadot: FileProvider{Interval: "fast"},
	}
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err == nil {
		t.Fatal("expected error for invalid interval")
	}
}

func TestFileExists(t *testing.T) {
	path := writeConfigFile(t, "")
	if !FileExists(path) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(filepath.Join(t.TempDir(), "nope")) {
		t.Error("FileExists() = true for missing file")
	}
}

func boolPtr(b bool) *bool { return &b }
