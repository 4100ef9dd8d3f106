// Package report renders analyses as markdown and HTML.
package report

import (
	"fmt"
	"strings"

	"karyoscore/domain/batch"
	"karyoscore/domain/karyotype"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// NoAnomaly is rendered for a formula without any scored anomaly
const NoAnomaly = "_No anomaly detected._"

// Badge colours, keyed by score band
var badgeColors = map[karyotype.Badge]string{
	karyotype.BadgeHigh:     "#FF5733",
	karyotype.BadgeStandard: "#33A1FF",
	karyotype.BadgeNone:     "#AAAAAA",
}

// Color returns the display colour of a score band
func Color(b karyotype.Badge) string {
	if c, ok := badgeColors[b]; ok {
		return c
	}
	return badgeColors[karyotype.BadgeNone]
}

// ScoreText is the short score badge: 2pts, 1pt or 0pt
func ScoreText(score int) string {
	switch {
	case score >= karyotype.MaxScorePerAnomaly:
		return "2pts"
	case score == 1:
		return "1pt"
	}
	return "0pt"
}

// UniqueClones joins clone labels, dropping repeats but keeping order
func UniqueClones(clones []string) string {
	seen := make(map[string]bool, len(clones))
	out := make([]string, 0, len(clones))
	for _, c := range clones {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return strings.Join(out, ", ")
}

// Markdown renders one line per anomaly followed by the totals
func Markdown(result *karyotype.Result) string {
	var b strings.Builder
	if result == nil || len(result.Rows) == 0 {
		b.WriteString(NoAnomaly + "\n\n")
	} else {
		for _, row := range result.Rows {
			fmt.Fprintf(&b, "- **%s** `[%s]` **%s** %s\n",
				UniqueClones(row.Clones), row.Anomaly, ScoreText(row.ScoreI), row.Explanation)
		}
		b.WriteString("\n")
	}

	totalJ, totalI := 0, 0
	if result != nil {
		totalJ, totalI = result.TotalJ(), result.TotalI()
	}
	fmt.Fprintf(&b, "**Total score: %d** (ISCN 2024), %d (Jondreville 2020)\n", totalI, totalJ)
	return b.String()
}

// HTML converts the markdown report to HTML
func HTML(result *karyotype.Result) string {
	return string(ToHTML(Markdown(result)))
}

// ToHTML renders markdown with the common extensions, tables included.
// Typographic replacements stay off so ratios like 1/2 render literally.
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.SkipHTML})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// RunMarkdown renders a batch run as a table with the agreement line
func RunMarkdown(run *batch.Run) string {
	var b strings.Builder
	hasManual := run.Summary.HasManualCount

	if hasManual {
		b.WriteString("| Line | Formula | Automatic count | Manual count | Match | Anomalies detected |\n")
		b.WriteString("|---:|---|---:|---:|---|---|\n")
	} else {
		b.WriteString("| Line | Formula | Automatic count | Anomalies detected |\n")
		b.WriteString("|---:|---|---:|---|\n")
	}

	for _, r := range run.Results {
		auto := fmt.Sprint(r.AutoCount)
		if r.Failed() {
			auto = "Error"
		}
		formula := ""
		if r.Formula != "" {
			formula = "`" + cell(r.Formula) + "`"
		}
		cells := []string{fmt.Sprint(r.Line), formula, auto}
		if hasManual {
			manual := ""
			if r.ManualCount != nil {
				manual = fmt.Sprint(*r.ManualCount)
			}
			cells = append(cells, manual, string(r.Match))
		}
		cells = append(cells, cell(r.Detail()))
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	if hasManual {
		fmt.Fprintf(&b, "\nAgreement: %d/%d (%d%%)\n", run.Summary.Matched, run.Summary.Rows, run.Summary.MatchPercent)
	}
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
