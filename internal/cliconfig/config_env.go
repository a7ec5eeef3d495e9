package cliconfig

import "os"

// ApplyEnvConfig applies DOMAINFINDER_* environment variables to the
// config. It respects flags that have been explicitly set (changed map).
// Provider credentials are env-only by design: keys never appear on a
// command line.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("kind", os.Getenv("DOMAINFINDER_KIND"), &cfg.Kind)
	s.setString("characters", os.Getenv("DOMAINFINDER_CHARACTERS"), &cfg.Characters)
	s.setString("prefix", os.Getenv("DOMAINFINDER_PREFIX"), &cfg.Prefix)
	s.setString("suffix", os.Getenv("DOMAINFINDER_SUFFIX"), &cfg.Suffix)
	s.setString("tld", os.Getenv("DOMAINFINDER_TLD"), &cfg.TLD)
	s.setString("dns-server", os.Getenv("DOMAINFINDER_DNS_SERVER"), &cfg.DNSServer)
	s.setString("data-dir", os.Getenv("DOMAINFINDER_DATA_DIR"), &cfg.DataDir)

	if err := s.setIntFromString("min-length", os.Getenv("DOMAINFINDER_MIN_LENGTH"), &cfg.MinLength); err != nil {
		return err
	}
	if err := s.setIntFromString("max-length", os.Getenv("DOMAINFINDER_MAX_LENGTH"), &cfg.MaxLength); err != nil {
		return err
	}
	if err := s.setUintFromString("limit", os.Getenv("DOMAINFINDER_LIMIT"), &cfg.Limit); err != nil {
		return err
	}
	if err := s.setIntFromString("threads", os.Getenv("DOMAINFINDER_DNS_WORKERS"), &cfg.DNSWorkers); err != nil {
		return err
	}
	if err := s.setIntFromString("api-workers", os.Getenv("DOMAINFINDER_API_WORKERS"), &cfg.APIWorkers); err != nil {
		return err
	}
	if err := s.setIntFromString("queue-size", os.Getenv("DOMAINFINDER_QUEUE_SIZE"), &cfg.QueueSize); err != nil {
		return err
	}
	if err := s.setIntFromString("dns-retries", os.Getenv("DOMAINFINDER_DNS_RETRIES"), &cfg.DNSRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("api-retries", os.Getenv("DOMAINFINDER_API_RETRIES"), &cfg.APIRetries); err != nil {
		return err
	}

	if err := s.setDuration("dns-timeout", os.Getenv("DOMAINFINDER_DNS_TIMEOUT"), &cfg.DNSTimeout); err != nil {
		return err
	}
	if err := s.setDuration("dns-interval", os.Getenv("DOMAINFINDER_DNS_INTERVAL"), &cfg.DNSInterval); err != nil {
		return err
	}
	if err := s.setDuration("flush-interval", os.Getenv("DOMAINFINDER_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("retry-delay", os.Getenv("DOMAINFINDER_RETRY_DELAY"), &cfg.RetryDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-delay-max", os.Getenv("DOMAINFINDER_RETRY_DELAY_MAX"), &cfg.RetryDelayMax); err != nil {
		return err
	}

	s.setBoolFromString("verify-api", os.Getenv("DOMAINFINDER_VERIFY_API"), &cfg.VerifyAPI)
	s.setBoolFromString("only-verify-api", os.Getenv("DOMAINFINDER_ONLY_VERIFY_API"), &cfg.OnlyVerifyAPI)
	s.setBoolFromString("final-verify", os.Getenv("DOMAINFINDER_FINAL_VERIFY"), &cfg.FinalVerify)
	s.setBoolFromString("skip-on-error", os.Getenv("DOMAINFINDER_SKIP_ON_ERROR"), &cfg.SkipOnError)

	applyEnvProvider(&cfg.Porkbun, "PORKBUN")
	applyEnvProvider(&cfg.Dynadot, "DYNADOT")
	applyEnvProvider(&cfg.Loopia, "LOOPIA")
	return nil
}

func applyEnvProvider(dst *ProviderSettings, name string) {
	if v := os.Getenv("DOMAINFINDER_" + name + "_API_KEY"); v != "" {
		dst.APIKey = v
	}
	if v := os.Getenv("DOMAINFINDER_" + name + "_API_SECRET"); v != "" {
		dst.APISecret = v
	}
	if v := os.Getenv("DOMAINFINDER_" + name + "_USERNAME"); v != "" {
		dst.Username = v
	}
	if v := os.Getenv("DOMAINFINDER_" + name + "_PASSWORD"); v != "" {
		dst.Password = v
	}
	if v := os.Getenv("DOMAINFINDER_" + name + "_ACTIVE"); v != "" {
		dst.Active = v == "true" || v == "1"
	}
}
