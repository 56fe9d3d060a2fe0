package session

import "github.com/KaramelBytes/datalens/internal/table"

// State holds at most one table. It is used from a single goroutine and
// does no locking.
type State struct {
	table *table.Table
}

// Replace makes t the current table.
func (s *State) Replace(t *table.Table) { s.table = t }

// Current returns the current table, if any.
func (s *State) Current() (*table.Table, bool) {
	return s.table, s.table != nil
}
