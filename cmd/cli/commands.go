package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"karyoscore/adapters/excel"
	"karyoscore/adapters/report"
	"karyoscore/domain/batch"
	"karyoscore/domain/karyotype"
	"karyoscore/internal/config"
	"karyoscore/internal/container"
	"karyoscore/internal/errors"

	"github.com/spf13/cobra"
)

// Output formats of the analyze command
const (
	formatTable    = "table"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

type analysisOutput struct {
	Formula string          `json:"formula"`
	Rows    []karyotype.Row `json:"rows"`
	TotalJ  int             `json:"total_j"`
	TotalI  int             `json:"total_i"`
}

func loadContainer(ctx context.Context, withHistory bool, workers int) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !withHistory {
		cfg.Database.Enabled = false
	}
	cfg.Metrics.Enabled = false
	if workers > 0 {
		cfg.Batch.Workers = workers
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.InitWithDatabase(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newAnalyzeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analyze <formula>",
		Short: "Score one karyotype formula",
		Long: `Score one karyotype formula with both conventions.

Example: karyoscore analyze "47,XX,+8[10]/48,XX,+8,+21[10]" --format table`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context(), false, 0)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			formula := strings.TrimSpace(args[0])
			result, total, err := c.Analysis.Analyze(formula)
			if err != nil {
				return err
			}
			return writeAnalysis(cmd.OutOrStdout(), format, formula, result, total)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, markdown or json")
	return cmd
}

func writeAnalysis(w io.Writer, format, formula string, result *karyotype.Result, total int) error {
	switch format {
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ANOMALY\tTYPE\tEXPLANATION\tOCC\tCLONES\tJ2020\tISCN2024")
		for _, row := range result.AllRows() {
			occurrences := ""
			if row.Occurrences > 0 {
				occurrences = fmt.Sprint(row.Occurrences)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				row.Anomaly, row.Category, row.Explanation, occurrences,
				report.UniqueClones(row.Clones), row.ScoreJ, row.ScoreI)
		}
		return tw.Flush()
	case formatMarkdown:
		_, err := io.WriteString(w, report.Markdown(result))
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(analysisOutput{Formula: formula, Rows: result.Rows, TotalJ: result.TotalJ(), TotalI: total})
	}
	return errors.InvalidInput(fmt.Sprintf("unknown format %q", format))
}

func newBatchCmd() *cobra.Command {
	var out string
	var workers int
	var save bool
	var showReport bool

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Score every formula of a CSV or XLSX table",
		Long: `Score every formula of a table with a Formule column and an optional Count column.

Example: karyoscore batch cases.xlsx --out resultats_analyse.xlsx --workers 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context(), save, workers)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			table, err := excel.NewDataReader(c.Logger).ReadFile(args[0])
			if err != nil {
				return err
			}
			records, hasCount, err := excel.Records(table)
			if err != nil {
				return err
			}
			run, err := c.Batches.Run(cmd.Context(), args[0], records, hasCount)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if showReport {
				fmt.Fprintln(w, report.RunMarkdown(run))
			}
			writeSummary(w, run)

			if out != "" {
				if err := writeRunFile(out, run); err != nil {
					return err
				}
				fmt.Fprintf(w, "Results written to %s\n", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the results workbook to this path")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent analyses (default BATCH_WORKERS)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the run in the history database")
	cmd.Flags().BoolVar(&showReport, "report", false, "Print every row as a markdown table")
	return cmd
}

func writeSummary(w io.Writer, run *batch.Run) {
	s := run.Summary
	fmt.Fprintf(w, "Run %s: %d rows, %d errors, median automatic count %.1f\n", run.ID, s.Rows, s.Errors, s.MedianAuto)
	if s.HasManualCount {
		fmt.Fprintf(w, "Agreement: %d/%d (%d%%), mean absolute difference %.2f, correlation %.2f\n",
			s.Matched, s.Rows, s.MatchPercent, s.MeanAbsDiff, s.Correlation)
	}
}

func writeRunFile(path string, run *batch.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := excel.WriteRun(f, run); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the latest stored batch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context(), true, 0)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			if c.Runs == nil {
				return errors.New(errors.CodeNotFound, "run history is disabled")
			}

			runs, err := c.Runs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tROWS\tERRORS\tAGREEMENT")
			for _, run := range runs {
				agreement := "n/a"
				if run.Summary.HasManualCount {
					agreement = fmt.Sprintf("%d%%", run.Summary.MatchPercent)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04"),
					run.Source, run.Summary.Rows, run.Summary.Errors, agreement)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to list")
	return cmd
}
