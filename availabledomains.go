// Package availabledomains scans combinatorial spaces of short domain
// names for registrable ones, pre-filtering with DNS lookups and
// confirming hits against registrar APIs.
//
// Example usage:
//
//	cfg := availabledomains.Config{
//	    Alphabet:  "abc",
//	    MinLength: 3,
//	    TLD:       "com",
//	    DataDir:   "./results",
//	}
//	summary, err := availabledomains.Run(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d available of %d checked\n",
//	    summary.TotalAvailable, summary.TotalChecked)
package availabledomains

import (
	"context"
	"errors"

	"github.com/jnMetaCode/available-domains/pkg/finder"
)

// Config describes a scan. See the finder package for field docs.
type Config = finder.Config

// ProviderConfig holds credentials and rate limits for one registrar.
type ProviderConfig = finder.ProviderConfig

// Option configures optional behavior of a scan.
type Option = finder.Option

// Summary holds the totals of a finished or interrupted run.
type Summary = finder.Summary

// Finder is the embeddable scanner; use New for full lifecycle control.
type Finder = finder.Finder

// New creates a Finder. Use this instead of Run when you need
// Start/Stop control or event callbacks.
func New(cfg Config, opts ...Option) (*Finder, error) {
	return finder.New(cfg, opts...)
}

// Run executes one scan to completion and returns its summary.
// It blocks until the candidate space (or limit) is exhausted or the
// context is canceled; a canceled run still returns the partial
// summary and resumes from its checkpoint on the next Run.
func Run(ctx context.Context, cfg Config, opts ...Option) (Summary, error) {
	f, err := finder.New(cfg, opts...)
	if err != nil {
		return Summary{}, err
	}
	if err := f.Start(ctx); err != nil {
		return Summary{}, err
	}

	waitErr := f.Wait(context.Background())
	if errors.Is(waitErr, context.Canceled) {
		// Interrupted by the caller's context: shut down cleanly so
		// the checkpoint covers everything finished so far.
		_ = f.Stop()
	}

	summary, _ := f.Summary()
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return summary, waitErr
	}
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}
