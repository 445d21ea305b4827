// file: store/memory/export_test.go
package memory

// TrackedRows is the size of the creation-order index.
func (s *Store) TrackedRows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.created)
}
