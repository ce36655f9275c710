package llm

import "strings"

// Smoother re-chunks streamed text at word boundaries so the caller sees
// whole words instead of arbitrary byte splits. Presentation only: the
// concatenation of emitted chunks is byte-identical to the input deltas.
type Smoother struct {
	pending strings.Builder
}

// Push appends a raw delta and returns the word-complete prefix ready to
// emit, keeping any trailing partial word buffered.
func (s *Smoother) Push(delta string) string {
	s.pending.WriteString(delta)
	buf := s.pending.String()
	idx := strings.LastIndexAny(buf, " \t\n")
	if idx < 0 {
		return ""
	}
	out := buf[:idx+1]
	rest := buf[idx+1:]
	s.pending.Reset()
	s.pending.WriteString(rest)
	return out
}

// Flush returns whatever partial word is still buffered.
func (s *Smoother) Flush() string {
	out := s.pending.String()
	s.pending.Reset()
	return out
}
