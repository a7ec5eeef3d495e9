package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/jnMetaCode/available-domains/internal/cliconfig"
	"github.com/jnMetaCode/available-domains/pkg/finder"
	"github.com/jnMetaCode/available-domains/pkg/log"
)

const helpBanner = `
    __                      _       ____ _           __
   / /__  ____ ___  ____ _ (_)___  / __/(_)___  ____/ /__  _____
  / __  // __ \__ \/ __ '// // _ \/ /_ / // __ \/ __  // _ \/ ___/
 / /_/ // /_/ / / / /_/ // // / // __// // / / / /_/ //  __/ /
 \__,_/ \____/ /_/\__,_//_//_//_/_/  /_//_/ /_/\__,_/ \___/_/
`

const helpDescription = `
Scan a combinatorial domain-name space and report names that are free to register.

Highlights:
  - Enumerates every candidate for the chosen alphabet and length range.
  - Filters fast over DNS, then confirms hits against registrar APIs.
  - Checkpoints progress to disk so an interrupted scan resumes where it left off.
  - Respects per-provider rate limits and rotates to the next registrar on failure.

Configure via file ($HOME/.domainfinder/config.toml), environment (DOMAINFINDER_*), or flags.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  domainfinder --min-length 3 --max-length 4 --tld com
  domainfinder --kind digits --min-length 5 --verify-api
  domainfinder --only-verify-api --data-dir results
  domainfinder --config $HOME/.domainfinder/config.toml --final-verify
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// libConfig converts the CLI configuration into the library configuration.
func libConfig(cfg cliconfig.Config) (finder.Config, error) {
	alphabet, err := cfg.Alphabet()
	if err != nil {
		return finder.Config{}, err
	}

	out := finder.Config{
		Alphabet:      alphabet,
		MinLength:     cfg.MinLength,
		MaxLength:     cfg.MaxLength,
		Prefix:        cfg.Prefix,
		Suffix:        cfg.Suffix,
		Limit:         cfg.Limit,
		TLD:           cfg.TLD,
		DNSWorkers:    cfg.DNSWorkers,
		APIWorkers:    cfg.APIWorkers,
		QueueSize:     cfg.QueueSize,
		VerifyAPI:     cfg.VerifyAPI,
		OnlyVerifyAPI: cfg.OnlyVerifyAPI,
		FinalVerify:   cfg.FinalVerify,
		SkipOnError:   cfg.SkipOnError,
		DNSServer:     cfg.DNSServer,
		DNSTimeout:    cfg.DNSTimeout,
		DNSInterval:   cfg.DNSInterval,
		DNSRetries:    cfg.DNSRetries,
		APIRetries:    cfg.APIRetries,
		RetryDelay:    cfg.RetryDelay,
		RetryDelayMax: cfg.RetryDelayMax,
		DataDir:       cfg.DataDir,
		FlushInterval: cfg.FlushInterval,
	}

	for _, p := range []struct {
		name     string
		settings cliconfig.ProviderSettings
	}{
		{"porkbun", cfg.Porkbun},
		{"dynadot", cfg.Dynadot},
		{"loopia", cfg.Loopia},
	} {
		if !p.settings.Active {
			continue
		}
		out.Providers = append(out.Providers, finder.ProviderConfig{
			Name:      p.name,
			Endpoint:  p.settings.Endpoint,
			APIKey:    p.settings.APIKey,
			APISecret: p.settings.APISecret,
			Username:  p.settings.Username,
			Password:  p.settings.Password,
			Interval:  p.settings.Interval,
			Burst:     p.settings.Burst,
		})
	}
	return out, nil
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	zlog := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "domainfinder",
		Short:   "Find registrable domain names by scanning a combinatorial name space",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.domainfinder/config.toml),
			// then environment, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables override the file but lose to explicit flags.
			cliconfig.ApplyEnvConfig(&cfg, changed)

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration with credentials masked
			logCfg := cfg
			maskProvider(&logCfg.Porkbun)
			maskProvider(&logCfg.Dynadot)
			maskProvider(&logCfg.Loopia)
			zlog.Info().Interface("config", logCfg).Msg("configuration")

			libCfg, err := libConfig(cfg)
			if err != nil {
				return err
			}

			zerologAdapter := log.NewZerologAdapterWithLogger(zlog)

			f, err := finder.New(libCfg,
				finder.WithLogger(zerologAdapter),
				finder.WithEventHandler(&progressHandler{log: zlog}),
			)
			if err != nil {
				return fmt.Errorf("create finder: %w", err)
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := f.Start(ctx); err != nil {
				return fmt.Errorf("start finder: %w", err)
			}

			doneCh := make(chan struct{})
			go func() {
				_ = f.Wait(ctx)
				close(doneCh)
			}()

			select {
			case <-sigCh:
				zlog.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if f.Status() == finder.StateCrashed {
					zlog.Error().Msg("scan crashed")
				}
			}

			// Stop after natural completion reports ErrNotRunning; that is fine.
			if err := f.Stop(); err != nil && !errors.Is(err, finder.ErrNotRunning) {
				return fmt.Errorf("stop finder: %w", err)
			}

			if sum, ok := f.Summary(); ok {
				logSummary(zlog, sum)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.domainfinder/config.toml)")

	root.Flags().StringVar(&cfg.Kind, "kind", cfg.Kind, "built-in alphabet: letters, all-letters, digits or alphanumeric")
	root.Flags().StringVar(&cfg.Characters, "characters", cfg.Characters, "explicit character set (overrides kind)")
	root.Flags().IntVar(&cfg.MinLength, "min-length", cfg.MinLength, "shortest name length to generate")
	root.Flags().IntVar(&cfg.MaxLength, "max-length", cfg.MaxLength, "longest name length to generate (defaults to min-length)")
	root.Flags().StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "fixed prefix for every candidate")
	root.Flags().StringVar(&cfg.Suffix, "suffix", cfg.Suffix, "fixed suffix for every candidate")
	root.Flags().Uint64Var(&cfg.Limit, "limit", cfg.Limit, "stop after this many candidates (0 = full space)")
	root.Flags().StringVar(&cfg.TLD, "tld", cfg.TLD, "top-level domain to check under")

	root.Flags().IntVar(&cfg.DNSWorkers, "threads", cfg.DNSWorkers, "concurrent DNS probes")
	root.Flags().IntVar(&cfg.APIWorkers, "api-workers", cfg.APIWorkers, "concurrent registrar API calls")
	root.Flags().IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "pipeline channel capacity")

	root.Flags().BoolVar(&cfg.VerifyAPI, "verify-api", cfg.VerifyAPI, "confirm DNS-available names against registrar APIs")
	root.Flags().BoolVar(&cfg.OnlyVerifyAPI, "only-verify-api", cfg.OnlyVerifyAPI, "skip generation, re-verify stored DNS-available names")
	root.Flags().BoolVar(&cfg.FinalVerify, "final-verify", cfg.FinalVerify, "re-verify every available name after the scan drains")
	root.Flags().BoolVar(&cfg.SkipOnError, "skip-on-error", cfg.SkipOnError, "drop candidates whose DNS retries are exhausted instead of confirming them")

	root.Flags().StringVar(&cfg.DNSServer, "dns-server", cfg.DNSServer, "DNS server address (host:port)")
	root.Flags().DurationVar(&cfg.DNSTimeout, "dns-timeout", cfg.DNSTimeout, "timeout per DNS query")
	root.Flags().DurationVar(&cfg.DNSInterval, "dns-interval", cfg.DNSInterval, "minimum spacing between DNS queries (0 = unlimited)")
	root.Flags().IntVar(&cfg.DNSRetries, "dns-retries", cfg.DNSRetries, "retries for transient DNS failures")
	root.Flags().IntVar(&cfg.APIRetries, "api-retries", cfg.APIRetries, "retries for transient registrar API failures")
	root.Flags().DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "base backoff delay between retries")
	root.Flags().DurationVar(&cfg.RetryDelayMax, "retry-delay-max", cfg.RetryDelayMax, "cap on the grown backoff delay")

	root.Flags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for results and the checkpoint")
	root.Flags().DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "interval between checkpoint flushes")

	if err := root.Execute(); err != nil {
		zlog.Error().Err(err).Msg("domainfinder")
		os.Exit(1)
	}
}

func maskProvider(p *cliconfig.ProviderSettings) {
	if p.APIKey != "" {
		p.APIKey = "*****"
	}
	if p.APISecret != "" {
		p.APISecret = "*****"
	}
	if p.Password != "" {
		p.Password = "*****"
	}
}

func logSummary(zlog zerolog.Logger, sum finder.Summary) {
	ev := zlog.Info().
		Uint64("checked", sum.TotalChecked).
		Uint64("available", sum.TotalAvailable).
		Dur("elapsed", sum.Elapsed)
	if len(sum.Errors) > 0 {
		kinds := make([]string, 0, len(sum.Errors))
		for kind := range sum.Errors {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			ev = ev.Uint64("errors."+kind, sum.Errors[kind])
		}
	}
	ev.Msg("scan summary")
}

// progressHandler logs availability hits and phase changes as they happen.
type progressHandler struct {
	finder.BaseEventHandler

	log zerolog.Logger
}

func (h *progressHandler) OnResult(event finder.ResultEvent) {
	if event.Status != finder.StatusAvailable {
		return
	}
	ev := h.log.Info().
		Str("domain", event.FQDN).
		Str("source", string(event.Source))
	if event.Provider != "" {
		ev = ev.Str("provider", event.Provider)
	}
	if event.Note != "" {
		ev = ev.Str("note", event.Note)
	}
	ev.Msg("available")
}

func (h *progressHandler) OnPhaseChange(event finder.PhaseChangeEvent) {
	h.log.Info().Str("phase", event.Current).Msg("phase change")
}
