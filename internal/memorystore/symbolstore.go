package memorystore

import (
	"strings"
	"sync"
)

// SymbolSet is the ordered, de-duplicated set of tracked symbols.
type SymbolSet struct {
	mu      sync.Mutex
	symbols []string
	seen    map[string]bool
}

func NewSymbolSet(symbols ...string) *SymbolSet {
	s := &SymbolSet{
		symbols: make([]string, 0, len(symbols)),
		seen:    make(map[string]bool, len(symbols)),
	}
	for _, sym := range symbols {
		s.Add(sym)
	}
	return s
}

// NormalizeSymbol is the canonical form of a symbol everywhere it is used as a key.
// Case is significant: price payloads are keyed by the symbol as requested.
func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(symbol)
}

// Add inserts the normalized symbol. It reports whether the set changed.
func (s *SymbolSet) Add(symbol string) bool {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[symbol] {
		return false
	}
	s.seen[symbol] = true
	s.symbols = append(s.symbols, symbol)
	return true
}

func (s *SymbolSet) Contains(symbol string) bool {
	symbol = NormalizeSymbol(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[symbol]
}

func (s *SymbolSet) GetAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}
