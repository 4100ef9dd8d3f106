package excel

// RawRowData represents a row of raw table data as header -> cell text
type RawRowData map[string]string

// Table represents a complete uploaded CSV or XLSX table
type Table struct {
	Headers []string     // Column headers, trimmed
	Rows    []RawRowData // Data rows, blank rows skipped
}

// Column names recognised in uploaded tables. The formula column is matched
// case-insensitively, the manual count column exactly.
const (
	FormulaColumnFR = "formule"
	FormulaColumnEN = "formula"
	CountColumn     = "Count"
)
