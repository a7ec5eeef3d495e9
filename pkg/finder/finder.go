// Package finder exposes the domain scanner as an embeddable library:
// create a Finder with New, run it with Start, observe it through an
// EventHandler and stop it with Stop.
package finder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/jnMetaCode/available-domains/internal/adapters/dnsprobe"
	"github.com/jnMetaCode/available-domains/internal/adapters/fs"
	"github.com/jnMetaCode/available-domains/internal/adapters/registrar"
	"github.com/jnMetaCode/available-domains/internal/app"
	"github.com/jnMetaCode/available-domains/internal/domain"
	"github.com/jnMetaCode/available-domains/internal/gen"
	"github.com/jnMetaCode/available-domains/internal/ports"
	"github.com/jnMetaCode/available-domains/internal/ratelimit"
	"github.com/jnMetaCode/available-domains/pkg/log"
)

// Finder scans a candidate space for available domain names. Use New()
// to create an instance, then Start() to begin scanning.
type Finder struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	logger    ports.Logger
	emitter   *eventEmitterWrapper
	providers []ports.Provider
	prober    ports.Prober
	limits    *ratelimit.Registry

	mu        sync.RWMutex
	cancel    context.CancelFunc
	store     *fs.Store
	storeOnce *sync.Once
	summary   *Summary
	done      chan struct{}
	runErr    error
}

// New creates a new Finder with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Finder, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	var logger ports.Logger
	if o.logger != nil {
		logger = o.logger
	} else {
		logger = log.NewNoopLogger()
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler, tld: cfg.TLD}
	lifecycle := app.NewLifecycle(logger, emitter)

	var prober ports.Prober
	if o.prober != nil {
		prober = &proberAdapter{inner: o.prober}
	} else {
		prober = dnsprobe.New(cfg.DNSServer, cfg.DNSTimeout, logger)
	}

	limits := ratelimit.NewRegistry()
	limits.Set(app.DNSLimiterTarget, ratelimit.New(cfg.DNSInterval, 1, 0))

	var providers []ports.Provider
	if o.providers != nil {
		for _, p := range o.providers {
			providers = append(providers, p)
		}
	} else {
		var err error
		providers, err = buildProviders(cfg, o.httpClient, limits)
		if err != nil {
			return nil, err
		}
	}

	return &Finder{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		logger:    logger,
		emitter:   emitter,
		providers: providers,
		prober:    prober,
		limits:    limits,
	}, nil
}

// Start begins scanning in the background.
// Returns immediately after starting the pipeline goroutine.
// Returns an error if already running or if startup fails.
// The provided context bounds the lifetime of the scan.
func (f *Finder) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := f.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	store, err := fs.Open(f.config.DataDir)
	if err != nil {
		_ = f.lifecycle.TransitionTo(app.StateCrashed, "store open failed")
		return err
	}
	f.store = store
	f.storeOnce = new(sync.Once)

	var generator *gen.Generator
	if !f.config.OnlyVerifyAPI {
		generator, err = gen.New(gen.Spec{
			Alphabet:  f.config.Alphabet,
			Kind:      kindOfAlphabet(f.config.Alphabet),
			MinLength: f.config.MinLength,
			MaxLength: f.config.MaxLength,
			Prefix:    strings.ToLower(f.config.Prefix),
			Suffix:    strings.ToLower(f.config.Suffix),
			Limit:     f.config.Limit,
		})
		if err != nil {
			f.closeStore()
			_ = f.lifecycle.TransitionTo(app.StateCrashed, "invalid candidate space")
			return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
	}

	pipeline := app.NewPipeline(
		app.PipelineConfig{
			TLD:            f.config.TLD,
			DNSWorkers:     f.config.DNSWorkers,
			APIWorkers:     f.config.APIWorkers,
			QueueSize:      f.config.QueueSize,
			VerifyAPI:      f.config.VerifyAPI,
			OnlyVerifyAPI:  f.config.OnlyVerifyAPI,
			FinalVerify:    f.config.FinalVerify,
			SkipOnError:    f.config.SkipOnError,
			DNSRetries:     f.config.DNSRetries,
			APIRetries:     f.config.APIRetries,
			BackoffInitial: f.config.RetryDelay,
			BackoffMax:     f.config.RetryDelayMax,
			FlushInterval:  f.config.FlushInterval,
		},
		generator,
		f.prober,
		f.providers,
		f.limits,
		store,
		f.logger,
		f.emitter,
	)

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.lifecycle.SetCancel(cancel)
	done := make(chan struct{})
	f.done = done

	f.lifecycle.AddWorker()
	go func() {
		defer f.lifecycle.WorkerDone()
		defer close(done)

		if err := f.lifecycle.TransitionTo(app.StateRunning, "pipeline starting"); err != nil {
			f.logger.Error("failed to transition to running", log.Err(err))
			return
		}

		summary, err := pipeline.Run(runCtx)

		pub := convertSummary(summary)
		f.mu.Lock()
		f.summary = &pub
		f.runErr = err
		f.mu.Unlock()
		if f.emitter.handler != nil {
			f.emitter.handler.OnRunComplete(pub)
		}

		switch {
		case err == nil:
			// Natural completion: wind the lifecycle down without an
			// explicit Stop() call.
			if f.lifecycle.TransitionTo(app.StateStopping, "run complete") == nil {
				f.closeStore()
				_ = f.lifecycle.TransitionTo(app.StateStopped, "run complete")
			}
		case runCtx.Err() != nil:
			// Stop() or the caller's context owns the shutdown path.
		default:
			f.logger.Error("pipeline error", log.Err(err))
			f.closeStore()
			_ = f.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the finder.
// Flushes the result store and persists the checkpoint.
// Waits up to 30 seconds before forcing shutdown.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (f *Finder) Stop() error {
	f.mu.Lock()
	if !f.lifecycle.CanStop() {
		f.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := f.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.cancel != nil {
		f.cancel()
	}
	f.mu.Unlock()

	err := f.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	f.closeStore()

	if err != nil {
		_ = f.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = f.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (f *Finder) Status() State {
	return convertState(f.lifecycle.State())
}

// Wait blocks until the current run finishes and returns its error,
// or until ctx is done. Returns ErrNotRunning if Start was never called.
func (f *Finder) Wait(ctx context.Context) error {
	f.mu.RLock()
	done := f.done
	f.mu.RUnlock()
	if done == nil {
		return domain.ErrNotRunning
	}
	select {
	case <-done:
		f.mu.RLock()
		defer f.mu.RUnlock()
		return f.runErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Summary returns the totals of the last finished run, or false if no
// run has completed yet.
func (f *Finder) Summary() (Summary, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.summary == nil {
		return Summary{}, false
	}
	return *f.summary, true
}

func (f *Finder) closeStore() {
	f.mu.Lock()
	store, once := f.store, f.storeOnce
	f.mu.Unlock()
	if store == nil || once == nil {
		return
	}
	once.Do(func() {
		if err := store.Close(); err != nil {
			f.logger.Error("store close failed", log.Err(err))
		}
	})
}

// buildProviders constructs registrar adapters from config, wiring one
// rate limiter per provider.
func buildProviders(cfg Config, client ports.HTTPClient, limits *ratelimit.Registry) ([]ports.Provider, error) {
	var providers []ports.Provider
	for _, pc := range cfg.Providers {
		rc := registrar.Config{
			Endpoint:  pc.Endpoint,
			APIKey:    pc.APIKey,
			APISecret: pc.APISecret,
			Username:  pc.Username,
			Password:  pc.Password,
			Active:    true,
		}
		var p ports.Provider
		switch strings.ToLower(pc.Name) {
		case "porkbun":
			p = registrar.NewPorkbun(rc, client)
		case "dynadot":
			p = registrar.NewDynadot(rc, client)
		case "loopia":
			var transport http.RoundTripper
			if hc, ok := client.(*http.Client); ok {
				transport = hc.Transport
			}
			loopia, err := registrar.NewLoopia(rc, transport)
			if err != nil {
				return nil, err
			}
			p = loopia
		default:
			return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidConfig, pc.Name)
		}
		limits.Set(p.Name(), ratelimit.New(pc.Interval, pc.Burst, 0))
		providers = append(providers, p)
	}
	return providers, nil
}

// proberAdapter bridges the public Prober interface to the internal one.
type proberAdapter struct {
	inner Prober
}

func (a *proberAdapter) Probe(ctx context.Context, fqdn string) (domain.Status, error) {
	st, err := a.inner.Probe(ctx, fqdn)
	if err != nil {
		return domain.StatusUnknown, err
	}
	switch st {
	case StatusAvailable:
		return domain.StatusAvailable, nil
	case StatusTaken:
		return domain.StatusTaken, nil
	default:
		return domain.StatusUnknown, nil
	}
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
	tld     string
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnResult(res domain.ProbeResult) {
	if e.handler == nil {
		return
	}
	e.handler.OnResult(ResultEvent{
		Name:     res.Candidate.Name,
		FQDN:     res.Candidate.FQDN(e.tld),
		Source:   Source(res.Source.String()),
		Status:   Status(res.Status.String()),
		Provider: res.Provider,
		Note:     res.Note,
	})
}

func (e *eventEmitterWrapper) OnPhaseChange(previous, current app.Phase) {
	if e.handler == nil {
		return
	}
	e.handler.OnPhaseChange(PhaseChangeEvent{
		Previous: previous.String(),
		Current:  current.String(),
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

func convertSummary(s domain.Summary) Summary {
	errs := make(map[string]uint64, len(s.Errors))
	for k, v := range s.Errors {
		errs[k.String()] = v
	}
	return Summary{
		TotalChecked:   s.TotalChecked,
		TotalAvailable: s.TotalAvailable,
		Errors:         errs,
		Elapsed:        s.Elapsed,
	}
}

func kindOfAlphabet(alphabet string) domain.Kind {
	hasLetter, hasDigit := false, false
	for _, r := range alphabet {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasLetter = true
		}
	}
	switch {
	case hasLetter && hasDigit:
		return domain.KindAlphanumeric
	case hasDigit:
		return domain.KindDigits
	default:
		return domain.KindLetters
	}
}
