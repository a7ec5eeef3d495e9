package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jnMetaCode/available-domains/internal/adapters/fs"
	"github.com/jnMetaCode/available-domains/internal/domain"
	"github.com/jnMetaCode/available-domains/internal/gen"
	"github.com/jnMetaCode/available-domains/internal/ports"
	"github.com/jnMetaCode/available-domains/internal/ratelimit"
)

// fakeProber classifies by a scripted function and counts calls.
type fakeProber struct {
	mu    sync.Mutex
	calls int
	fn    func(fqdn string) (domain.Status, error)
}

func (f *fakeProber) Probe(ctx context.Context, fqdn string) (domain.Status, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(fqdn)
}

func (f *fakeProber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// takenIfContainsA marks any label containing the letter a as taken.
func takenIfContainsA(fqdn string) (domain.Status, error) {
	label := strings.SplitN(fqdn, ".", 2)[0]
	if strings.Contains(label, "a") {
		return domain.StatusTaken, nil
	}
	return domain.StatusAvailable, nil
}

func newTestGenerator(t *testing.T, limit uint64) *gen.Generator {
	t.Helper()
	g, err := gen.New(gen.Spec{
		Alphabet:  "abc",
		MinLength: 2,
		MaxLength: 2,
		Limit:     limit,
	})
	if err != nil {
		t.Fatalf("generator: %v", err)
	}
	return g
}

func newTestStore(t *testing.T) *fs.Store {
	t.Helper()
	s, err := fs.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fastConfig() PipelineConfig {
	return PipelineConfig{
		TLD:            "com",
		DNSWorkers:     4,
		APIWorkers:     2,
		QueueSize:      8,
		DNSRetries:     2,
		APIRetries:     2,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	}
}

func TestPipeline_DNSOnlyScan(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: takenIfContainsA}

	p := NewPipeline(fastConfig(), newTestGenerator(t, 9), prober, nil,
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if summary.TotalChecked != 9 {
		t.Errorf("TotalChecked = %d, want 9", summary.TotalChecked)
	}
	if summary.TotalAvailable != 4 {
		t.Errorf("TotalAvailable = %d, want 4", summary.TotalAvailable)
	}
	if len(summary.Errors) != 0 {
		t.Errorf("Errors = %v, want none", summary.Errors)
	}
	if cur := store.Checkpoint().Cursor; cur != 9 {
		t.Errorf("cursor = %d, want 9", cur)
	}
	if p.Phase() != PhaseDone {
		t.Errorf("phase = %v, want Done", p.Phase())
	}

	for _, name := range []string{"bb", "bc", "cb", "cc"} {
		src, status, ok := store.Seen(name)
		if !ok || src != domain.SourceDNS || status != domain.StatusAvailable {
			t.Errorf("%s: ok=%v src=%v status=%v, want dns/available", name, ok, src, status)
		}
	}
}

func TestPipeline_VerifyAPIConfirmsOnlyAvailable(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: takenIfContainsA}
	prov := &fakeProvider{name: "fake", available: true, note: "price 1.00"}

	cfg := fastConfig()
	cfg.VerifyAPI = true
	p := NewPipeline(cfg, newTestGenerator(t, 9), prober, []ports.Provider{prov},
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	// DNS-taken candidates never reach the confirm stage.
	if prov.Calls() != 4 {
		t.Errorf("provider calls = %d, want 4", prov.Calls())
	}
	if summary.TotalAvailable != 4 {
		t.Errorf("TotalAvailable = %d, want 4", summary.TotalAvailable)
	}

	src, status, _ := store.Seen("bb")
	if src != domain.SourceAPI || status != domain.StatusAvailable {
		t.Errorf("bb: src=%v status=%v, want api/available", src, status)
	}
	src, status, _ = store.Seen("aa")
	if src != domain.SourceDNS || status != domain.StatusTaken {
		t.Errorf("aa: src=%v status=%v, want dns/taken", src, status)
	}

	if pending := store.PendingVerification(); len(pending) != 0 {
		t.Errorf("pending = %v, want none", pending)
	}
}

func TestPipeline_ProviderFailover(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: takenIfContainsA}
	bad := &fakeProvider{name: "bad", err: domain.Permanent(errors.New("auth rejected"))}
	good := &fakeProvider{name: "good", available: true}

	cfg := fastConfig()
	cfg.VerifyAPI = true
	cfg.APIWorkers = 1
	p := NewPipeline(cfg, newTestGenerator(t, 9), prober, []ports.Provider{bad, good},
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if bad.Calls() != 1 {
		t.Errorf("bad provider calls = %d, want 1", bad.Calls())
	}
	if good.Calls() != 4 {
		t.Errorf("good provider calls = %d, want 4", good.Calls())
	}
	if summary.TotalAvailable != 4 {
		t.Errorf("TotalAvailable = %d, want 4", summary.TotalAvailable)
	}
}

func TestPipeline_AllProvidersFailedRecordsError(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: takenIfContainsA}
	bad := &fakeProvider{name: "bad", err: domain.Permanent(errors.New("auth rejected"))}

	cfg := fastConfig()
	cfg.VerifyAPI = true
	cfg.APIWorkers = 1
	p := NewPipeline(cfg, newTestGenerator(t, 9), prober, []ports.Provider{bad},
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if bad.Calls() != 1 {
		t.Errorf("bad provider calls = %d, want 1", bad.Calls())
	}
	if summary.Errors[domain.ErrorKindAPIPermanent] != 4 {
		t.Errorf("api_permanent errors = %d, want 4", summary.Errors[domain.ErrorKindAPIPermanent])
	}
	// The DNS heuristic still stands despite the confirm failure.
	if _, status, _ := store.Seen("bb"); status != domain.StatusAvailable {
		t.Errorf("bb status = %v, want available", status)
	}
	if cur := store.Checkpoint().Cursor; cur != 9 {
		t.Errorf("cursor = %d, want 9", cur)
	}
}

func TestPipeline_ResumeSkipsRecordedNames(t *testing.T) {
	dir := t.TempDir()

	store, err := fs.Open(dir)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	prober := &fakeProber{fn: takenIfContainsA}
	p := NewPipeline(fastConfig(), newTestGenerator(t, 4), prober,
		nil, ratelimit.NewRegistry(), store, &mockLogger{}, nil)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstCalls := prober.Calls()
	if firstCalls != 4 {
		t.Fatalf("first run probes = %d, want 4", firstCalls)
	}
	store.Close()

	store2, err := fs.Open(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store2.Close()
	p2 := NewPipeline(fastConfig(), newTestGenerator(t, 9), prober,
		nil, ratelimit.NewRegistry(), store2, &mockLogger{}, nil)
	summary, err := p2.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if got := prober.Calls() - firstCalls; got != 5 {
		t.Errorf("second run probes = %d, want 5", got)
	}
	if summary.TotalChecked != 9 {
		t.Errorf("TotalChecked = %d, want 9", summary.TotalChecked)
	}
	if cur := store2.Checkpoint().Cursor; cur != 9 {
		t.Errorf("cursor = %d, want 9", cur)
	}
}

func TestPipeline_DNSErrorForwardedToConfirm(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: func(string) (domain.Status, error) {
		return domain.StatusUnknown, domain.Transient(errors.New("resolver down"))
	}}
	prov := &fakeProvider{name: "fake", available: true}

	cfg := fastConfig()
	cfg.VerifyAPI = true
	p := NewPipeline(cfg, newTestGenerator(t, 9), prober, []ports.Provider{prov},
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	// Unanswered candidates reach the registrar as unknown instead of
	// being dropped on the DNS heuristic's failure.
	if prov.Calls() != 9 {
		t.Errorf("provider calls = %d, want 9", prov.Calls())
	}
	if summary.Errors[domain.ErrorKindDNSTransient] != 9 {
		t.Errorf("dns_transient errors = %d, want 9", summary.Errors[domain.ErrorKindDNSTransient])
	}
	if summary.TotalAvailable != 9 {
		t.Errorf("TotalAvailable = %d, want 9", summary.TotalAvailable)
	}
	if src, status, _ := store.Seen("bb"); src != domain.SourceAPI || status != domain.StatusAvailable {
		t.Errorf("bb: src=%v status=%v, want api/available", src, status)
	}
	if cur := store.Checkpoint().Cursor; cur != 9 {
		t.Errorf("cursor = %d, want 9", cur)
	}
}

func TestPipeline_SkipOnErrorDropsUnanswered(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: func(string) (domain.Status, error) {
		return domain.StatusUnknown, domain.Transient(errors.New("resolver down"))
	}}
	prov := &fakeProvider{name: "fake", available: true}

	cfg := fastConfig()
	cfg.VerifyAPI = true
	cfg.SkipOnError = true
	p := NewPipeline(cfg, newTestGenerator(t, 9), prober, []ports.Provider{prov},
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if prov.Calls() != 0 {
		t.Errorf("provider calls = %d, want 0", prov.Calls())
	}
	if summary.Errors[domain.ErrorKindDNSTransient] != 9 {
		t.Errorf("dns_transient errors = %d, want 9", summary.Errors[domain.ErrorKindDNSTransient])
	}
	if cur := store.Checkpoint().Cursor; cur != 9 {
		t.Errorf("cursor = %d, want 9", cur)
	}
}

func TestPipeline_TransientDNSErrorsRecorded(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: func(string) (domain.Status, error) {
		return domain.StatusUnknown, domain.Transient(errors.New("resolver down"))
	}}

	p := NewPipeline(fastConfig(), newTestGenerator(t, 9), prober, nil,
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if summary.Errors[domain.ErrorKindDNSTransient] != 9 {
		t.Errorf("dns_transient errors = %d, want 9", summary.Errors[domain.ErrorKindDNSTransient])
	}
	if summary.TotalAvailable != 0 {
		t.Errorf("TotalAvailable = %d, want 0", summary.TotalAvailable)
	}
	// Error records do not block the watermark.
	if cur := store.Checkpoint().Cursor; cur != 9 {
		t.Errorf("cursor = %d, want 9", cur)
	}
}

func TestPipeline_OnlyVerifyAPI(t *testing.T) {
	store := newTestStore(t)
	for i, name := range []string{"bb", "cc"} {
		store.Append(domain.ProbeResult{
			Candidate: domain.Candidate{Name: name, Position: uint64(i)},
			Source:    domain.SourceDNS,
			Status:    domain.StatusAvailable,
			Timestamp: time.Now(),
		})
	}

	// The registrar disagrees with the DNS heuristic on every name.
	prov := &fakeProvider{name: "fake", available: false}

	cfg := fastConfig()
	cfg.OnlyVerifyAPI = true
	p := NewPipeline(cfg, nil, &fakeProber{fn: takenIfContainsA}, []ports.Provider{prov},
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if prov.Calls() != 2 {
		t.Errorf("provider calls = %d, want 2", prov.Calls())
	}
	for _, name := range []string{"bb", "cc"} {
		src, status, _ := store.Seen(name)
		if src != domain.SourceAPI || status != domain.StatusTaken {
			t.Errorf("%s: src=%v status=%v, want api/taken", name, src, status)
		}
	}
	if summary.TotalAvailable != 0 {
		t.Errorf("TotalAvailable = %d, want 0", summary.TotalAvailable)
	}
	if pending := store.PendingVerification(); len(pending) != 0 {
		t.Errorf("pending = %v, want none", pending)
	}
}

func TestPipeline_FinalVerifyCorrectsHeuristic(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: takenIfContainsA}
	prov := &fakeProvider{name: "fake", available: false}

	cfg := fastConfig()
	cfg.FinalVerify = true
	p := NewPipeline(cfg, newTestGenerator(t, 9), prober, []ports.Provider{prov},
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	// The 4 DNS availables were re-checked and corrected to taken.
	if prov.Calls() != 4 {
		t.Errorf("provider calls = %d, want 4", prov.Calls())
	}
	if summary.TotalAvailable != 0 {
		t.Errorf("TotalAvailable = %d, want 0", summary.TotalAvailable)
	}
	if summary.TotalChecked != 9 {
		t.Errorf("TotalChecked = %d, want 9", summary.TotalChecked)
	}
}

func TestPipeline_FinalVerifyRechecksConfirmed(t *testing.T) {
	store := newTestStore(t)
	prober := &fakeProber{fn: takenIfContainsA}
	prov := &fakeProvider{name: "fake", available: true}

	cfg := fastConfig()
	cfg.VerifyAPI = true
	cfg.FinalVerify = true
	p := NewPipeline(cfg, newTestGenerator(t, 9), prober, []ports.Provider{prov},
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	// 4 confirm calls during the scan, then the final pass re-checks
	// all 4 API-confirmed availables.
	if prov.Calls() != 8 {
		t.Errorf("provider calls = %d, want 8", prov.Calls())
	}
	if summary.TotalAvailable != 4 {
		t.Errorf("TotalAvailable = %d, want 4", summary.TotalAvailable)
	}
}

func TestPipeline_CancelStopsCleanly(t *testing.T) {
	store := newTestStore(t)

	release := make(chan struct{})
	prober := &fakeProber{fn: func(fqdn string) (domain.Status, error) {
		<-release
		return domain.StatusTaken, nil
	}}

	g, err := gen.New(gen.Spec{Alphabet: "abc", MinLength: 4, MaxLength: 4})
	if err != nil {
		t.Fatalf("generator: %v", err)
	}
	p := NewPipeline(fastConfig(), g, prober, nil,
		ratelimit.NewRegistry(), store, &mockLogger{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after cancel")
	}
}

// phaseRecorder implements ResultEmitter.
type phaseRecorder struct {
	mu     sync.Mutex
	phases []Phase
}

func (r *phaseRecorder) OnResult(res domain.ProbeResult) {}

func (r *phaseRecorder) OnPhaseChange(previous, current Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, current)
}

func TestPipeline_PhaseSequence(t *testing.T) {
	store := newTestStore(t)
	rec := &phaseRecorder{}

	p := NewPipeline(fastConfig(), newTestGenerator(t, 9), &fakeProber{fn: takenIfContainsA},
		nil, ratelimit.NewRegistry(), store, &mockLogger{}, rec)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	want := []Phase{PhaseGenerating, PhaseDraining, PhaseDone}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.phases) != len(want) {
		t.Fatalf("phases = %v, want %v", rec.phases, want)
	}
	for i := range want {
		if rec.phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", rec.phases, want)
		}
	}
}
