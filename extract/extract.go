package extract

// Result is the structured view of the reply text at one point in the stream.
type Result struct {
	Prose          string      `json:"prose"`
	Files          []FileBlock `json:"files"`
	CompletedNames []string    `json:"completed_names"`
}

// Extract parses the full accumulated reply text. It has no hidden state:
// the same text always yields the same result, and a name completed for some
// text stays completed for every extension of that text.
func Extract(text string) Result {
	blocks := Scan(text)

	var completed CompletedSet
	for _, b := range blocks {
		if b.Complete {
			completed.Add(b.Name)
		}
	}

	return Result{
		Prose:          NormalizeProse(StripBlocks(text, blocks)),
		Files:          blocks,
		CompletedNames: completed.Names(),
	}
}

// Open returns the block still streaming, if any. Only the last block of a
// pass can be open because an open block extends to the end of the text.
func (r Result) Open() (FileBlock, bool) {
	if n := len(r.Files); n > 0 && !r.Files[n-1].Complete {
		return r.Files[n-1], true
	}
	return FileBlock{}, false
}

// CompletedSet is an ordered set of file names in first-completion order.
// The zero value is empty and ready to use.
type CompletedSet struct {
	names []string
	seen  map[string]struct{}
}

// Add records name and reports whether it was new.
func (s *CompletedSet) Add(name string) bool {
	if _, ok := s.seen[name]; ok {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Has reports whether name has been recorded.
func (s *CompletedSet) Has(name string) bool {
	_, ok := s.seen[name]
	return ok
}

// Len returns the number of recorded names.
func (s *CompletedSet) Len() int {
	return len(s.names)
}

// Names returns a copy of the recorded names in insertion order.
func (s *CompletedSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
