package steptree

// StepRecord is one parsed step annotation. Optional text fields are empty
// when the annotation did not carry them.
type StepRecord struct {
	Number   string `json:"number"` // Dotted identifier, e.g. "2.3.1"
	Name     string `json:"name"`
	Purpose  string `json:"purpose,omitempty"`
	Inputs   string `json:"inputs,omitempty"`
	Outputs  string `json:"outputs,omitempty"`
	Critical string `json:"critical,omitempty"`

	Line         int    `json:"line"`                    // 1-based marker line, 0 if unknown
	SourceFile   string `json:"source_file,omitempty"`   // File the marker was read from
	SourceModule string `json:"source_module,omitempty"` // Owning module; empty means the containing module
	Function     string `json:"function,omitempty"`      // Enclosing function; empty at module scope
}

// Module returns the owning module, falling back to the containing module.
func (r StepRecord) Module(containing string) string {
	if r.SourceModule != "" {
		return r.SourceModule
	}
	return containing
}

// File returns the originating file, falling back to the containing file.
func (r StepRecord) File(containing string) string {
	if r.SourceFile != "" {
		return r.SourceFile
	}
	return containing
}

// Store is the flat, append-only collection of records gathered by one
// module's extraction pass. It is not safe for concurrent use.
type Store struct {
	records []StepRecord
}

// Add appends records in the order given.
func (s *Store) Add(records ...StepRecord) {
	s.records = append(s.records, records...)
}

// Records returns a copy of the collected records.
func (s *Store) Records() []StepRecord {
	out := make([]StepRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}
