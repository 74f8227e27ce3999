package store

// sequencer orders round trips for one owner. Every request takes a number at
// dispatch and a response is applied only if its number is higher than any
// applied before it, so a slow response can never overwrite a newer one.
//
// Not safe for concurrent use; Store guards it with its mutex.
type sequencer struct {
	issued  uint64
	applied uint64
}

func (s *sequencer) next() uint64 {
	s.issued++
	return s.issued
}

// accept reports whether a response for seq may replace the cache, and
// records it as the latest applied if so.
func (s *sequencer) accept(seq uint64) bool {
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	return true
}
