package operations

import (
	"path/filepath"
	"sort"
	"sync"
)

// InFlight is the set of filenames with a pass queued or running.
type InFlight struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewInFlight creates an empty set.
func NewInFlight() *InFlight {
	return &InFlight{names: make(map[string]struct{})}
}

// Acquire marks the file as in flight. It returns false when the same
// filename is already marked.
func (f *InFlight) Acquire(path string) bool {
	name := filepath.Base(path)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.names[name]; busy {
		return false
	}
	f.names[name] = struct{}{}
	return true
}

// Release clears the mark for the file.
func (f *InFlight) Release(path string) {
	f.mu.Lock()
	delete(f.names, filepath.Base(path))
	f.mu.Unlock()
}

// Names lists the marked filenames in sorted order.
func (f *InFlight) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.names))
	for name := range f.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of marked files.
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.names)
}
