package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"karyoscore/domain/batch"
	"karyoscore/internal"
	"karyoscore/internal/errors"

	"github.com/xuri/excelize/v2"
)

// File types accepted by DataReader
const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
)

// DataReader handles reading Excel and CSV tables
type DataReader struct {
	logger *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{logger: logger}
}

// FileType derives the table format from a file name
func FileType(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FileTypeCSV, nil
	case ".xlsx", ".xlsm":
		return FileTypeXLSX, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unsupported file type %q: upload a CSV or XLSX file", filepath.Ext(name)))
}

// ReadFile reads a table from disk
func (r *DataReader) ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("file %s", path))
		}
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()
	return r.Read(filepath.Base(path), file)
}

// Read reads a table from src; name only selects the format
func (r *DataReader) Read(name string, src io.Reader) (*Table, error) {
	fileType, err := FileType(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var rows [][]string
	switch fileType {
	case FileTypeCSV:
		rows, err = r.readCSVRows(src)
	default:
		rows, err = r.readExcelRows(src)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[DataReader] %s read in %s (%d rows)", name, time.Since(start), len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s must have at least a header row and one data row", strings.ToUpper(fileType)))
	}
	return r.processRows(rows), nil
}

// readExcelRows reads the first worksheet of a workbook
func (r *DataReader) readExcelRows(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to open Excel file"))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("Excel file has no worksheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	return rows, nil
}

// readCSVRows reads comma separated rows, tolerating ragged lines
func (r *DataReader) readCSVRows(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read CSV file"))
	}
	return rows, nil
}

// processRows converts raw string rows into a Table
func (r *DataReader) processRows(rows [][]string) *Table {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	var dataRows []RawRowData
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		blank := true
		for j, header := range headers {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if cell != "" {
				blank = false
			}
			rowData[header] = cell
		}
		if blank {
			continue
		}
		dataRows = append(dataRows, rowData)
	}

	return &Table{Headers: headers, Rows: dataRows}
}

// DetectFormulaColumn finds the formula column, matched case-insensitively
func DetectFormulaColumn(headers []string) (string, error) {
	for _, header := range headers {
		name := strings.ToLower(strings.TrimSpace(header))
		if name == FormulaColumnFR || name == FormulaColumnEN {
			return header, nil
		}
	}
	return "", errors.InvalidInput("the file must contain a 'Formule' column")
}

// HasCountColumn reports whether the table carries manual counts
func HasCountColumn(headers []string) bool {
	for _, header := range headers {
		if header == CountColumn {
			return true
		}
	}
	return false
}

// Records converts a table into batch records. The second result reports
// whether the table had a Count column.
func Records(table *Table) ([]batch.Record, bool, error) {
	formulaColumn, err := DetectFormulaColumn(table.Headers)
	if err != nil {
		return nil, false, err
	}
	hasCount := HasCountColumn(table.Headers)

	records := make([]batch.Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		record := batch.Record{Line: i + 1, Formula: row[formulaColumn]}
		if hasCount {
			record.ManualCount = parseCount(row[CountColumn])
		}
		records = append(records, record)
	}
	return records, hasCount, nil
}

// parseCount accepts "3" and spreadsheet renderings such as "3.0"
func parseCount(cell string) *int {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	if n, err := strconv.Atoi(cell); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(f)
	return &n
}
