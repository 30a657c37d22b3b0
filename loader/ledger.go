package loader

import "sync"

// Ledger records which files have contributed externs. Entries are never
// removed; a file contributes at most once in the ledger's lifetime.
type Ledger struct {
	mu        sync.Mutex
	generated map[string]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{generated: make(map[string]struct{})}
}

// Mark records fileName and reports whether it was absent. Check and insert
// happen under one lock, so exactly one concurrent caller sees true.
func (l *Ledger) Mark(fileName string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.generated[fileName]; ok {
		return false
	}
	l.generated[fileName] = struct{}{}
	return true
}

// Has reports whether fileName was recorded.
func (l *Ledger) Has(fileName string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.generated[fileName]
	return ok
}

// Len returns the number of recorded files.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.generated)
}
