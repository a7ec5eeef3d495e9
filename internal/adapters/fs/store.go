// Package fs implements the durable result store: append-only CSV
// streams for records plus an atomically rewritten checkpoint file.
package fs

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

const (
	checkedFileName    = "checked.csv"
	availableFileName  = "available.csv"
	errorsFileName     = "errors.csv"
	checkpointFileName = "checkpoint.json"

	// defaultFlushEvery bounds how many appends may sit in the CSV
	// writer buffers before an automatic flush.
	defaultFlushEvery = 32
)

// bestRecord is the highest-ranked classification seen for a name.
type bestRecord struct {
	source domain.Source
	status domain.Status
}

// rank orders records for the dedup index: terminal beats non-terminal,
// API beats DNS, later beats earlier at equal rank. The last rule is
// what lets a final verification pass correct an earlier record by
// appending rather than editing.
func (r bestRecord) rank() int {
	n := 0
	if r.status.Terminal() {
		n += 2
	}
	if r.source == domain.SourceAPI {
		n++
	}
	return n
}

// Store implements ports.ResultStore on a directory of CSV streams.
// Every record is appended to the checked stream; available and error
// records are mirrored to their own streams for direct consumption.
// The dedup index is rebuilt from the checked stream on open.
type Store struct {
	mu sync.Mutex

	dir string

	checked   *stream
	available *stream
	errors    *stream

	index   map[string]bestRecord
	pending map[string]struct{} // names awaiting API confirmation

	// cursor advances only over contiguous finished positions; done
	// holds finished positions ahead of the cursor.
	cursor uint64
	done   map[uint64]struct{}

	availableCount uint64

	flushEvery int
	unflushed  int

	closed bool
}

// Open creates or reopens a store rooted at dir. Existing streams are
// replayed to rebuild the dedup index; the checkpoint file, if present,
// supplies the resume cursor.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}

	s := &Store{
		dir:        dir,
		index:      make(map[string]bestRecord),
		pending:    make(map[string]struct{}),
		done:       make(map[uint64]struct{}),
		flushEvery: defaultFlushEvery,
	}

	if err := s.replay(filepath.Join(dir, checkedFileName)); err != nil {
		return nil, err
	}
	if err := s.loadCheckpoint(); err != nil {
		return nil, err
	}

	var err error
	if s.checked, err = openStream(filepath.Join(dir, checkedFileName)); err != nil {
		return nil, err
	}
	if s.available, err = openStream(filepath.Join(dir, availableFileName)); err != nil {
		s.checked.close()
		return nil, err
	}
	if s.errors, err = openStream(filepath.Join(dir, errorsFileName)); err != nil {
		s.checked.close()
		s.available.close()
		return nil, err
	}
	return s, nil
}

// Append implements ports.ResultStore.
func (s *Store) Append(res domain.ProbeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: store closed", domain.ErrStoreWrite)
	}

	row := encodeRow(res)
	if err := s.checked.write(row); err != nil {
		return err
	}
	switch res.Status {
	case domain.StatusAvailable:
		if err := s.available.write(row); err != nil {
			return err
		}
	case domain.StatusError:
		if err := s.errors.write(row); err != nil {
			return err
		}
	}

	s.absorb(res.Candidate.Name, bestRecord{source: res.Source, status: res.Status})

	s.unflushed++
	if s.unflushed >= s.flushEvery {
		return s.flushLocked()
	}
	return nil
}

// MarkDone implements ports.ResultStore.
func (s *Store) MarkDone(position uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < s.cursor {
		return
	}
	s.done[position] = struct{}{}
	for {
		if _, ok := s.done[s.cursor]; !ok {
			break
		}
		delete(s.done, s.cursor)
		s.cursor++
	}
}

// Seen implements ports.ResultStore.
func (s *Store) Seen(name string) (domain.Source, domain.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.index[name]
	if !ok {
		return 0, domain.StatusUnknown, false
	}
	return r.source, r.status, true
}

// PendingVerification implements ports.ResultStore.
func (s *Store) PendingVerification() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.pending))
	for name := range s.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Available implements ports.ResultStore.
func (s *Store) Available() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, s.availableCount)
	for name, rec := range s.index {
		if rec.status == domain.StatusAvailable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Checkpoint implements ports.ResultStore.
func (s *Store) Checkpoint() domain.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpointLocked()
}

func (s *Store) checkpointLocked() domain.Checkpoint {
	return domain.Checkpoint{
		Cursor:         s.cursor,
		TotalChecked:   uint64(len(s.index)),
		TotalAvailable: s.availableCount,
		LastUpdated:    time.Now().UTC(),
	}
}

// Flush implements ports.ResultStore.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.flushLocked()
}

// Close implements ports.ResultStore.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	err := s.flushLocked()
	s.checked.close()
	s.available.close()
	s.errors.close()
	s.closed = true
	return err
}

// flushLocked pushes CSV writer buffers to disk, then rewrites the
// checkpoint atomically. Records always hit disk before the checkpoint
// that covers them.
func (s *Store) flushLocked() error {
	for _, st := range []*stream{s.checked, s.available, s.errors} {
		if err := st.flush(); err != nil {
			return err
		}
	}
	s.unflushed = 0
	return s.saveCheckpoint(s.checkpointLocked())
}

// absorb updates the dedup index, the pending set and the counters
// with a new record, keeping only the highest-ranked record per name.
func (s *Store) absorb(name string, rec bestRecord) {
	old, had := s.index[name]
	if had && rec.rank() < old.rank() {
		return
	}
	s.index[name] = rec

	wasAvailable := had && old.status == domain.StatusAvailable
	isAvailable := rec.status == domain.StatusAvailable
	switch {
	case isAvailable && !wasAvailable:
		s.availableCount++
	case !isAvailable && wasAvailable:
		s.availableCount--
	}

	if isAvailable && rec.source == domain.SourceDNS {
		s.pending[name] = struct{}{}
	} else {
		delete(s.pending, name)
	}
}

// replay rebuilds the in-memory index from the checked stream.
func (s *Store) replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("%w: replay %s: %v", domain.ErrStoreWrite, path, err)
	}
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		s.absorb(row[0], bestRecord{
			source: sourceFromString(row[2]),
			status: statusFromString(row[1]),
		})
	}
	return nil
}

func (s *Store) loadCheckpoint() error {
	data, err := os.ReadFile(filepath.Join(s.dir, checkpointFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return fmt.Errorf("%w: checkpoint: %v", domain.ErrStoreWrite, err)
	}
	s.cursor = cp.Cursor
	return nil
}

// saveCheckpoint writes the checkpoint via temp file plus rename so a
// crash mid-write never leaves a torn file.
func (s *Store) saveCheckpoint(cp domain.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	path := filepath.Join(s.dir, checkpointFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return nil
}

// encodeRow serializes a result as name,status,source,provider,timestamp,note.
func encodeRow(res domain.ProbeResult) []string {
	return []string{
		res.Candidate.Name,
		res.Status.String(),
		res.Source.String(),
		res.Provider,
		res.Timestamp.UTC().Format(time.RFC3339),
		res.Note,
	}
}

func statusFromString(s string) domain.Status {
	switch s {
	case "available":
		return domain.StatusAvailable
	case "taken":
		return domain.StatusTaken
	case "error":
		return domain.StatusError
	default:
		return domain.StatusUnknown
	}
}

func sourceFromString(s string) domain.Source {
	if s == "api" {
		return domain.SourceAPI
	}
	return domain.SourceDNS
}

// stream is one append-only CSV file.
type stream struct {
	f *os.File
	w *csv.Writer
}

func openStream(path string) (*stream, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return &stream{f: f, w: csv.NewWriter(f)}, nil
}

func (st *stream) write(row []string) error {
	if err := st.w.Write(row); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return nil
}

func (st *stream) flush() error {
	st.w.Flush()
	if err := st.w.Error(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return nil
}

func (st *stream) close() {
	st.w.Flush()
	st.f.Close()
}
