package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cachebundle/internal/fsutil"
)

// Store is the backing store of an output namespace.
//
// Create must either durably store the full content under name or leave
// nothing behind under that name.
type Store interface {
	Create(ctx context.Context, name string, content io.Reader) error
}

// DirStore implements Store using a flat output directory.
//
// Structure:
//
//	{Dir}/
//	  {strong-name}.cache.{ext}
//	  {strong-name}.cache.{ext}.gz   (when precompressed)
//	  {basename}                     (basename mode)
type DirStore struct {
	// Dir is the module output directory.
	Dir string
}

// NewDirStore creates a filesystem-backed store.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// Create writes content to a temp file and renames it into place, so a
// crash never leaves a partial file under name.
func (s *DirStore) Create(ctx context.Context, name string, content io.Reader) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return fsutil.WriteFileAtomic(filepath.Join(s.Dir, name), content, 0o644)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid output name %q", name)
	}
	return nil
}

// MemoryStore implements Store in memory and counts writes per name.
// Useful for testing and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	writes  map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
		writes:  make(map[string]int),
	}
}

// Create stores a copy of content.
func (s *MemoryStore) Create(_ context.Context, name string, content io.Reader) error {
	if err := validName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = buf.Bytes()
	s.writes[name]++
	return nil
}

// Get returns a copy of the stored content.
func (s *MemoryStore) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return bytes.Clone(b), true
}

// Writes returns how many times name was written.
func (s *MemoryStore) Writes(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[name]
}

// TotalWrites returns the number of writes across all names.
func (s *MemoryStore) TotalWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.writes {
		n += w
	}
	return n
}

// Names returns the stored names, sorted.
func (s *MemoryStore) Names() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.entries))
	for n := range s.entries {
		out = append(out, n)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}
