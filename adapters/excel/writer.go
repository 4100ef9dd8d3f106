package excel

import (
	"fmt"
	"io"
	"strings"

	"karyoscore/domain/batch"
	"karyoscore/domain/karyotype"
	"karyoscore/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Sheet names of exported workbooks
const (
	SheetResults = "Results"
	SheetSummary = "Summary"
)

// ErrorCell replaces the automatic count of a failed row
const ErrorCell = "Error"

// RunHeaders returns the Results sheet header for a run
func RunHeaders(hasManualCount bool) []string {
	headers := []string{"Line", "Formula", "Automatic count", "Anomalies detected"}
	if hasManualCount {
		headers = append(headers, "Manual count", "Match")
	}
	return headers
}

// AnalysisHeaders is the header of a single-formula export
var AnalysisHeaders = []string{
	"Anomaly", "Type", "Explanation", "Occurrences", "Clones",
	"Score Jondreville 2020", "Score ISCN 2024",
}

// WriteRun writes a run as an XLSX workbook with a Results and a Summary sheet
func WriteRun(w io.Writer, run *batch.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return errors.Wrap(err, "failed to name results sheet")
	}

	hasManual := run.Summary.HasManualCount
	rows := make([][]interface{}, 0, len(run.Results))
	for _, result := range run.Results {
		var auto interface{} = result.AutoCount
		if result.Failed() {
			auto = ErrorCell
		}
		row := []interface{}{result.Line, result.Formula, auto, result.Detail()}
		if hasManual {
			var manual interface{} = ""
			if result.ManualCount != nil {
				manual = *result.ManualCount
			}
			row = append(row, manual, string(result.Match))
		}
		rows = append(rows, row)
	}
	if err := writeSheet(f, SheetResults, RunHeaders(hasManual), rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return errors.Wrap(err, "failed to create summary sheet")
	}
	s := run.Summary
	summary := [][]interface{}{
		{"Run", run.ID},
		{"Source", run.Source},
		{"Created", run.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Rows", s.Rows},
		{"Errors", s.Errors},
		{"Median automatic count", s.MedianAuto},
	}
	if hasManual {
		summary = append(summary,
			[]interface{}{"Matched", s.Matched},
			[]interface{}{"Match percent", s.MatchPercent},
			[]interface{}{"Mean absolute difference", s.MeanAbsDiff},
			[]interface{}{"Correlation", s.Correlation},
		)
	}
	if err := writeSheet(f, SheetSummary, []string{"Metric", "Value"}, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// WriteAnalysis writes the score rows of one formula, TOTAL row last
func WriteAnalysis(w io.Writer, formula string, result *karyotype.Result) error {
	if result == nil {
		return errors.InvalidInput(fmt.Sprintf("no analysis for formula %q", formula))
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return errors.Wrap(err, "failed to name results sheet")
	}

	rows := make([][]interface{}, 0, len(result.Rows)+1)
	for _, r := range result.Rows {
		rows = append(rows, []interface{}{
			r.Anomaly, string(r.Category), r.Explanation, r.Occurrences,
			strings.Join(r.Clones, ", "), r.ScoreJ, r.ScoreI,
		})
	}
	total := result.Total
	rows = append(rows, []interface{}{total.Anomaly, "", "", "", "", total.ScoreJ, total.ScoreI})

	if err := writeSheet(f, SheetResults, AnalysisHeaders, rows); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// writeSheet writes a bold header and the rows below it
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrapf(err, "failed to write %s header", sheet)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "failed to create header style")
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return errors.Wrapf(err, "failed to style %s header", sheet)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "invalid cell")
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "failed to write %s row %d", sheet, i+1)
		}
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return errors.Wrap(err, "invalid column")
	}
	return f.SetColWidth(sheet, "A", last, 20)
}
