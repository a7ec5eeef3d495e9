package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jnMetaCode/available-domains/internal/domain"
	"github.com/jnMetaCode/available-domains/internal/gen"
	"github.com/jnMetaCode/available-domains/internal/ports"
	"github.com/jnMetaCode/available-domains/internal/ratelimit"
	"github.com/jnMetaCode/available-domains/pkg/log"
)

// DNSLimiterTarget is the rate limiter registry key for the pre-filter
// stage. Provider limiters are keyed by provider name.
const DNSLimiterTarget = "dns"

// Default pipeline configuration values.
const (
	DefaultDNSWorkers    = 8
	DefaultAPIWorkers    = 2
	DefaultQueueSize     = 64
	DefaultFlushInterval = 5 * time.Second
)

// PipelineConfig tunes one scan run.
type PipelineConfig struct {
	// TLD is appended to every candidate label before probing.
	TLD string

	DNSWorkers int
	APIWorkers int

	// QueueSize bounds both stage channels. A full channel blocks the
	// upstream stage, which is the only backpressure mechanism.
	QueueSize int

	// VerifyAPI forwards DNS-available candidates to the confirm
	// stage. Without it the DNS heuristic is the final word.
	VerifyAPI bool

	// OnlyVerifyAPI skips generation and re-checks names previously
	// classified available by DNS alone.
	OnlyVerifyAPI bool

	// FinalVerify runs one more confirm pass over every name still
	// classified available after the main drain.
	FinalVerify bool

	// SkipOnError drops candidates whose DNS retries are exhausted.
	// Off by default: an unanswered candidate is forwarded to the
	// confirm stage as unknown so the registrar gets the last word.
	SkipOnError bool

	DNSRetries int
	APIRetries int

	BackoffInitial time.Duration
	BackoffMax     time.Duration

	FlushInterval time.Duration
}

func (c *PipelineConfig) applyDefaults() {
	if c.DNSWorkers <= 0 {
		c.DNSWorkers = DefaultDNSWorkers
	}
	if c.APIWorkers <= 0 {
		c.APIWorkers = DefaultAPIWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.DNSRetries <= 0 {
		c.DNSRetries = DefaultDNSRetries
	}
	if c.APIRetries <= 0 {
		c.APIRetries = DefaultAPIRetries
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = DefaultBackoffInitial
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
}

// ResultEmitter is called as the pipeline produces results and moves
// between phases. Callbacks run on worker goroutines and must be fast.
type ResultEmitter interface {
	OnResult(res domain.ProbeResult)
	OnPhaseChange(previous, current Phase)
}

// apiJob is one candidate queued for the confirm stage. markDone is
// false for re-verification names that have no live generator
// position behind them.
type apiJob struct {
	cand     domain.Candidate
	markDone bool
}

// Pipeline runs one scan: generation, the DNS pre-filter stage and the
// API confirm stage, all draining into the result store.
type Pipeline struct {
	cfg     PipelineConfig
	genr    *gen.Generator
	prober  ports.Prober
	rot     *rotation
	limits  *ratelimit.Registry
	store   ports.ResultStore
	logger  ports.Logger
	emitter ResultEmitter

	dnsRetry retryPolicy
	apiRetry retryPolicy

	mu       sync.Mutex
	phase    Phase
	errors   map[domain.ErrorKind]uint64
	fatalErr error

	cancelRun context.CancelFunc
}

// NewPipeline wires a pipeline. generator may be nil in only-verify
// mode; providers may be empty when VerifyAPI is off.
func NewPipeline(
	cfg PipelineConfig,
	generator *gen.Generator,
	prober ports.Prober,
	providers []ports.Provider,
	limits *ratelimit.Registry,
	store ports.ResultStore,
	logger ports.Logger,
	emitter ResultEmitter,
) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{
		cfg:     cfg,
		genr:    generator,
		prober:  prober,
		rot:     newRotation(providers),
		limits:  limits,
		store:   store,
		logger:  logger,
		emitter: emitter,
		dnsRetry: retryPolicy{
			attempts: cfg.DNSRetries,
			initial:  cfg.BackoffInitial,
			max:      cfg.BackoffMax,
			growth:   GrowthLinear,
		},
		apiRetry: retryPolicy{
			attempts: cfg.APIRetries,
			initial:  cfg.BackoffInitial,
			max:      cfg.BackoffMax,
			growth:   GrowthExponential,
		},
		errors: make(map[domain.ErrorKind]uint64),
	}
}

// Phase returns where the run currently is.
func (p *Pipeline) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Run executes the scan until the space is exhausted, the limit is
// reached or ctx is canceled. It always flushes the store before
// returning, so a canceled run resumes cleanly.
func (p *Pipeline) Run(ctx context.Context) (domain.Summary, error) {
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	p.cancelRun = cancel
	p.mu.Unlock()

	p.setPhase(PhaseInit)

	flushDone := make(chan struct{})
	go p.flushLoop(runCtx, flushDone)

	if p.cfg.OnlyVerifyAPI {
		p.runOnlyVerify(runCtx)
	} else {
		p.runScan(runCtx)
	}

	if p.cfg.FinalVerify && !p.cfg.OnlyVerifyAPI && p.rot.Live() > 0 {
		p.setPhase(PhaseFinalVerify)
		p.verifyAvailable(runCtx)
	}

	cancel()
	<-flushDone

	if err := p.store.Flush(); err != nil {
		p.noteFatal(err)
	}

	p.setPhase(PhaseDone)

	summary := p.summary(start)
	p.mu.Lock()
	fatal := p.fatalErr
	p.mu.Unlock()
	if fatal != nil {
		return summary, fatal
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// runScan is the normal two-stage flow: generate, pre-filter, confirm.
func (p *Pipeline) runScan(ctx context.Context) {
	p.setPhase(PhaseGenerating)

	dnsCh := make(chan domain.Candidate, p.cfg.QueueSize)
	apiCh := make(chan apiJob, p.cfg.QueueSize)

	var apiWG sync.WaitGroup
	for i := 0; i < p.cfg.APIWorkers; i++ {
		apiWG.Add(1)
		go func() {
			defer apiWG.Done()
			for job := range apiCh {
				p.confirm(ctx, job)
			}
		}()
	}

	var dnsWG sync.WaitGroup
	for i := 0; i < p.cfg.DNSWorkers; i++ {
		dnsWG.Add(1)
		go func() {
			defer dnsWG.Done()
			for c := range dnsCh {
				p.prefilter(ctx, c, apiCh)
			}
		}()
	}

	p.produce(ctx, dnsCh, apiCh)
	close(dnsCh)
	dnsWG.Wait()

	p.setPhase(PhaseDraining)
	close(apiCh)
	apiWG.Wait()
}

// runOnlyVerify skips generation and feeds previously recorded
// DNS-available names straight to the confirm stage.
func (p *Pipeline) runOnlyVerify(ctx context.Context) {
	p.setPhase(PhaseDraining)
	p.verifyPending(ctx)
}

// produce walks the generator, skipping names the store already has a
// settled record for, and feeds the rest to the pre-filter stage.
func (p *Pipeline) produce(ctx context.Context, dnsCh chan<- domain.Candidate, apiCh chan<- apiJob) {
	if p.genr == nil {
		return
	}
	p.genr.Seek(p.store.Checkpoint().Cursor)

	for {
		if ctx.Err() != nil {
			return
		}
		c, ok := p.genr.Next()
		if !ok {
			return
		}

		if src, status, seen := p.store.Seen(c.Name); seen && status.Terminal() {
			// DNS-available names still owe an API verdict when the
			// confirm stage is on; everything else is settled.
			if status == domain.StatusAvailable && src == domain.SourceDNS && p.cfg.VerifyAPI {
				select {
				case apiCh <- apiJob{cand: c, markDone: true}:
				case <-ctx.Done():
					return
				}
				continue
			}
			p.store.MarkDone(c.Position)
			continue
		}

		select {
		case dnsCh <- c:
		case <-ctx.Done():
			return
		}
	}
}

// prefilter runs the DNS stage for one candidate.
func (p *Pipeline) prefilter(ctx context.Context, c domain.Candidate, apiCh chan<- apiJob) {
	if !domain.ValidLabel(c.Name) {
		p.record(errorResult(c, domain.SourceDNS, domain.ErrorKindInvalidName, "invalid label"))
		p.store.MarkDone(c.Position)
		return
	}

	fqdn := c.FQDN(p.cfg.TLD)
	var status domain.Status
	err := p.dnsRetry.do(ctx, func() error {
		if err := p.limits.Get(DNSLimiterTarget).Acquire(ctx); err != nil {
			return err
		}
		st, err := p.prober.Probe(ctx, fqdn)
		if err != nil {
			return err
		}
		status = st
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			// Candidate stays in flight; the next run re-probes it.
			return
		}
		p.record(errorResult(c, domain.SourceDNS, domain.ErrorKindDNSTransient, err.Error()))
		if p.cfg.VerifyAPI && !p.cfg.SkipOnError {
			// Unanswered is not taken. Hand the candidate to the
			// confirm stage as unknown and let the registrar decide.
			select {
			case apiCh <- apiJob{cand: c, markDone: true}:
			case <-ctx.Done():
			}
			return
		}
		p.store.MarkDone(c.Position)
		return
	}

	p.record(domain.ProbeResult{
		Candidate: c,
		Source:    domain.SourceDNS,
		Status:    status,
		Timestamp: time.Now(),
	})

	if status == domain.StatusAvailable && p.cfg.VerifyAPI {
		select {
		case apiCh <- apiJob{cand: c, markDone: true}:
		case <-ctx.Done():
		}
		return
	}
	p.store.MarkDone(c.Position)
}

// confirm runs the API stage for one candidate, walking the provider
// rotation until an answer, a transient exhaustion or total provider
// failure.
func (p *Pipeline) confirm(ctx context.Context, job apiJob) {
	c := job.cand
	fqdn := c.FQDN(p.cfg.TLD)

	for {
		if ctx.Err() != nil {
			return
		}

		prov, err := p.rot.Next()
		if err != nil {
			p.record(errorResult(c, domain.SourceAPI, domain.ErrorKindAPIPermanent, "no live providers"))
			p.finish(job)
			return
		}

		var available bool
		var note string
		err = p.apiRetry.do(ctx, func() error {
			if err := p.limits.Get(prov.Name()).Acquire(ctx); err != nil {
				return err
			}
			a, n, err := prov.CheckAvailability(ctx, fqdn)
			if err != nil {
				return err
			}
			available, note = a, n
			return nil
		})
		if err == nil {
			status := domain.StatusTaken
			if available {
				status = domain.StatusAvailable
			}
			p.record(domain.ProbeResult{
				Candidate: c,
				Source:    domain.SourceAPI,
				Status:    status,
				Provider:  prov.Name(),
				Note:      note,
				Timestamp: time.Now(),
			})
			p.finish(job)
			return
		}
		if ctx.Err() != nil {
			return
		}
		if domain.IsPermanent(err) {
			// Fail this provider for the run and let the next one try.
			p.rot.MarkFailed(prov.Name())
			p.logger.Warn("provider failed for this run",
				log.String("provider", prov.Name()),
				log.Err(err),
			)
			continue
		}
		p.record(errorResult(c, domain.SourceAPI, domain.ErrorKindAPITransient, err.Error()))
		p.finish(job)
		return
	}
}

// verifyPending confirms every name whose best record is DNS-available.
func (p *Pipeline) verifyPending(ctx context.Context) {
	p.verifyNames(ctx, p.store.PendingVerification(), "verifying names without api confirmation")
}

// verifyAvailable re-confirms every name currently classified
// available, API-confirmed ones included, so the run's output is as
// fresh as the last pass.
func (p *Pipeline) verifyAvailable(ctx context.Context) {
	p.verifyNames(ctx, p.store.Available(), "re-verifying available names")
}

// verifyNames feeds names through the confirm stage using the same
// worker shape as the main run. Disagreements append correction
// records; nothing is edited in place.
func (p *Pipeline) verifyNames(ctx context.Context, names []string, msg string) {
	if len(names) == 0 {
		return
	}
	p.logger.Info(msg, log.Int("count", len(names)))

	jobs := make(chan apiJob, p.cfg.QueueSize)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.APIWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				p.confirm(ctx, job)
			}
		}()
	}

	for _, name := range names {
		select {
		case jobs <- apiJob{cand: domain.Candidate{Name: name}}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()
}

// finish advances the watermark for jobs backed by a generator position.
func (p *Pipeline) finish(job apiJob) {
	if job.markDone {
		p.store.MarkDone(job.cand.Position)
	}
}

// record appends a result to the store, counts it and emits it. A
// store write failure is fatal for the run.
func (p *Pipeline) record(res domain.ProbeResult) {
	if err := p.store.Append(res); err != nil {
		p.noteFatal(fmt.Errorf("append result: %w", err))
		return
	}

	if res.Status == domain.StatusError {
		p.mu.Lock()
		p.errors[res.ErrorKind]++
		p.mu.Unlock()
	}

	if p.emitter != nil {
		p.emitter.OnResult(res)
	}
}

// noteFatal records the first fatal error and cancels the run.
func (p *Pipeline) noteFatal(err error) {
	p.mu.Lock()
	first := p.fatalErr == nil
	if first {
		p.fatalErr = err
	}
	cancel := p.cancelRun
	p.mu.Unlock()

	if first {
		p.logger.Error("fatal store failure, aborting run", log.Err(err))
		p.mu.Lock()
		p.errors[domain.ErrorKindStoreWrite]++
		p.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
}

// flushLoop flushes the store on an interval so a crash loses at most
// one interval of progress.
func (p *Pipeline) flushLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.store.Flush(); err != nil {
				p.noteFatal(fmt.Errorf("periodic flush: %w", err))
				return
			}
		}
	}
}

func (p *Pipeline) setPhase(ph Phase) {
	p.mu.Lock()
	prev := p.phase
	p.phase = ph
	p.mu.Unlock()

	if prev == ph {
		return
	}
	if p.emitter != nil {
		p.emitter.OnPhaseChange(prev, ph)
	}
	p.logger.Info("phase change",
		log.String("from", prev.String()),
		log.String("to", ph.String()),
	)
}

// summary builds the run totals from the store's checkpoint and the
// run's error counters.
func (p *Pipeline) summary(start time.Time) domain.Summary {
	cp := p.store.Checkpoint()

	p.mu.Lock()
	errs := make(map[domain.ErrorKind]uint64, len(p.errors))
	for k, v := range p.errors {
		errs[k] = v
	}
	p.mu.Unlock()

	return domain.Summary{
		TotalChecked:   cp.TotalChecked,
		TotalAvailable: cp.TotalAvailable,
		Errors:         errs,
		Elapsed:        time.Since(start),
	}
}

func errorResult(c domain.Candidate, src domain.Source, kind domain.ErrorKind, note string) domain.ProbeResult {
	return domain.ProbeResult{
		Candidate: c,
		Source:    src,
		Status:    domain.StatusError,
		Note:      note,
		ErrorKind: kind,
		Timestamp: time.Now(),
	}
}
