package extractor

// ImportFact is the structured representation of a single import statement
// extracted from Python source. Facts are immutable once produced.
type ImportFact struct {
	File       string   `json:"file"`              // originating file identity
	Module     string   `json:"module"`            // dotted module path, "" for bare relative imports
	Symbols    []string `json:"symbols,omitempty"` // imported names for from-imports ("*" for wildcard)
	Alias      string   `json:"alias,omitempty"`   // alias for the module or imported name
	FromImport bool     `json:"from_import"`
	Level      int      `json:"level"` // count of leading dots, 0 = absolute
	Line       int      `json:"line"`
	Column     int      `json:"column"`
}

// IsRelative reports whether the fact came from a relative import.
func (f ImportFact) IsRelative() bool {
	return f.Level > 0
}

// ParseFailure records a file whose source could not be parsed. The file is
// excluded from the dependency graph but never aborts the run.
type ParseFailure struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}
