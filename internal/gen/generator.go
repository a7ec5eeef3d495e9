// Package gen produces the ordered stream of candidate names to test.
//
// The sequence is deterministic: shortest length first, lexicographic
// over the configured alphabet within a length. The name-at-position
// function is pure, so seeking to a cursor reproduces the exact tail a
// fresh run would have produced at that offset. That property is what
// makes checkpointed resume cheap: the cursor is a single integer.
package gen

import (
	"fmt"
	"math"
	"strings"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

// EasyLetters is the default letter set with easily confused letters
// removed (i, l, o, q, v, x, z).
const EasyLetters = "abcdefhkmnprstuwy"

// AllLetters is the full lowercase alphabet.
const AllLetters = "abcdefghijklmnopqrstuvwxyz"

// Digits is the decimal digit set.
const Digits = "0123456789"

// Alphanumeric is letters plus digits.
const Alphanumeric = AllLetters + Digits

// Spec describes a candidate space. Prefix and suffix characters are
// held fixed inside each name; only the remaining positions enumerate,
// so the space is filtered combinatorially rather than by skipping
// generated names.
type Spec struct {
	// Alphabet enumerates the free positions. Order defines the
	// sequence order. Must be non-empty with no duplicate characters.
	Alphabet string

	// Kind labels candidates with the character class that produced them.
	Kind domain.Kind

	// MinLength and MaxLength bound the total name length including
	// prefix and suffix. MaxLength zero means MaxLength = MinLength.
	MinLength int
	MaxLength int

	// Prefix and Suffix are fixed characters at the ends of each name.
	Prefix string
	Suffix string

	// Limit caps the candidates yielded in one run, independent of the
	// cursor. Zero means no cap.
	Limit uint64
}

// Validate checks the spec for errors and fills derived defaults.
func (s *Spec) Validate() error {
	if s.Alphabet == "" {
		return fmt.Errorf("alphabet is required")
	}
	seen := [256]bool{}
	for i := 0; i < len(s.Alphabet); i++ {
		c := s.Alphabet[i]
		if seen[c] {
			return fmt.Errorf("alphabet has duplicate character %q", string(c))
		}
		seen[c] = true
	}
	if s.MinLength <= 0 {
		return fmt.Errorf("length must be positive")
	}
	if s.MaxLength == 0 {
		s.MaxLength = s.MinLength
	}
	if s.MaxLength < s.MinLength {
		return fmt.Errorf("max length %d below min length %d", s.MaxLength, s.MinLength)
	}
	if s.freeAt(s.MaxLength) < 0 {
		return fmt.Errorf("prefix and suffix longer than max length")
	}
	return nil
}

// freeAt returns the number of enumerated positions at total length n.
func (s Spec) freeAt(n int) int {
	return n - len(s.Prefix) - len(s.Suffix)
}

// blockSize returns the number of candidates of total length n, and
// whether that count fits in a uint64. When it does not, the block is
// treated as unbounded: every remaining position falls inside it.
func (s Spec) blockSize(n int) (uint64, bool) {
	free := s.freeAt(n)
	if free < 0 {
		return 0, true
	}
	base := uint64(len(s.Alphabet))
	size := uint64(1)
	for i := 0; i < free; i++ {
		if size > math.MaxUint64/base {
			return 0, false
		}
		size *= base
	}
	return size, true
}

// SpaceSize returns the total number of candidates in the space,
// saturating at MaxUint64.
func (s Spec) SpaceSize() uint64 {
	var total uint64
	for n := s.MinLength; n <= s.MaxLength; n++ {
		size, ok := s.blockSize(n)
		if !ok || total > math.MaxUint64-size {
			return math.MaxUint64
		}
		total += size
	}
	return total
}

// NameAt returns the candidate name at the given position in the
// sequence, or false when the position is past the end of the space.
// Pure: depends only on the spec and the position.
func (s Spec) NameAt(pos uint64) (string, bool) {
	for n := s.MinLength; n <= s.MaxLength; n++ {
		size, bounded := s.blockSize(n)
		if bounded && pos >= size {
			pos -= size
			continue
		}
		free := s.freeAt(n)
		if free < 0 {
			continue
		}
		var b strings.Builder
		b.Grow(n)
		b.WriteString(s.Prefix)

		// Decompose pos into base-|alphabet| digits, most significant
		// first, which is exactly lexicographic order.
		base := uint64(len(s.Alphabet))
		digits := make([]byte, free)
		for i := free - 1; i >= 0; i-- {
			digits[i] = s.Alphabet[pos%base]
			pos /= base
		}
		b.Write(digits)
		b.WriteString(s.Suffix)
		return b.String(), true
	}
	return "", false
}

// Generator yields candidates lazily in the spec's deterministic order.
// Not safe for concurrent use; the orchestrator owns a single instance.
type Generator struct {
	spec    Spec
	pos     uint64
	yielded uint64
}

// New creates a generator for the given spec.
func New(spec Spec) (*Generator, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	return &Generator{spec: spec}, nil
}

// Spec returns the validated spec the generator runs on.
func (g *Generator) Spec() Spec { return g.spec }

// Seek moves the generator to the given cursor position. Candidates
// already yielded do not count against the limit again.
func (g *Generator) Seek(cursor uint64) {
	g.pos = cursor
}

// Position returns the next position the generator will yield.
func (g *Generator) Position() uint64 { return g.pos }

// Next returns the next candidate. ok is false when the space is
// exhausted or the run limit is reached.
func (g *Generator) Next() (c domain.Candidate, ok bool) {
	if g.spec.Limit > 0 && g.yielded >= g.spec.Limit {
		return domain.Candidate{}, false
	}
	name, ok := g.spec.NameAt(g.pos)
	if !ok {
		return domain.Candidate{}, false
	}
	c = domain.Candidate{Name: name, Position: g.pos, Kind: g.spec.Kind}
	g.pos++
	g.yielded++
	return c, true
}
