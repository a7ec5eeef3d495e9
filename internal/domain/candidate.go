package domain

// Kind selects the character class a candidate was generated from.
type Kind int

const (
	KindLetters Kind = iota
	KindDigits
	KindAlphanumeric
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLetters:
		return "letters"
	case KindDigits:
		return "digits"
	case KindAlphanumeric:
		return "alphanumeric"
	default:
		return "unknown"
	}
}

// Candidate is a generated domain name under test, excluding the TLD.
// Candidates are immutable: generated once, never mutated, consumed
// exactly once per run unless the run is resumed.
type Candidate struct {
	// Name is the label string over the configured alphabet.
	Name string

	// Position is the candidate's offset in the generator's
	// deterministic sequence. It drives checkpointing.
	Position uint64

	// Kind records which character class produced the name.
	Kind Kind
}

// Length returns the label length.
func (c Candidate) Length() int { return len(c.Name) }

// FQDN joins the candidate with a TLD ("." prefix optional).
func (c Candidate) FQDN(tld string) string {
	if tld == "" {
		return c.Name
	}
	if tld[0] == '.' {
		return c.Name + tld
	}
	return c.Name + "." + tld
}
