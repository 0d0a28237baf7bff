package signal

import "sync/atomic"

// Store holds the active table. Readers never block; reload swaps the whole table.
type Store struct {
	table atomic.Pointer[Table]
}

// NewStore starts with t, or an empty table when t is nil.
func NewStore(t *Table) *Store {
	s := &Store{}
	s.Swap(t)
	return s
}

// Load returns the active table, never nil.
func (s *Store) Load() *Table {
	if t := s.table.Load(); t != nil {
		return t
	}
	return Empty()
}

// Swap installs t and returns the previous table.
func (s *Store) Swap(t *Table) *Table {
	if t == nil {
		t = Empty()
	}
	return s.table.Swap(t)
}

// Reload reads path and swaps it in. A table that fails to load disables
// signals until the next successful reload.
func (s *Store) Reload(path string) ([]Warning, error) {
	table, warnings, err := LoadFile(path)
	if err != nil {
		s.Swap(Empty())
		return warnings, err
	}
	s.Swap(table)
	return warnings, nil
}
