// Package mcptools exposes the scoring engine as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"strings"

	"karyoscore/adapters/report"
	"karyoscore/app"
	"karyoscore/domain/karyotype"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// Tool names
const (
	AnalyzeToolName = "analyze_karyotype"
	ScoreToolName   = "score_karyotype"
)

// NewServer creates an MCP server with both karyotype tools registered
func NewServer(analysis *app.AnalysisService) *server.MCPServer {
	s := server.NewMCPServer(
		"karyoscore",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Score ISCN karyotype formulas. analyze_karyotype returns a readable report, score_karyotype returns the totals as JSON."),
	)

	analyzeTool := NewAnalyzeTool(analysis)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	scoreTool := NewScoreTool(analysis)
	s.AddTool(scoreTool.Definition(), scoreTool.Handle)
	return s
}

func formulaArgument() mcp.ToolOption {
	return mcp.WithString("formula",
		mcp.Required(),
		mcp.Description("ISCN karyotype formula, e.g. 47,XX,+8[10]/48,XX,+8,+21[10]"),
	)
}

// analyze runs the engine; a nil result comes with the tool error to return
func analyze(analysis *app.AnalysisService, req mcp.CallToolRequest) (*karyotype.Result, int, *mcp.CallToolResult) {
	formula := strings.TrimSpace(req.GetString("formula", ""))
	if formula == "" {
		return nil, 0, mcp.NewToolResultError("formula is required")
	}
	result, total, err := analysis.Analyze(formula)
	if err != nil {
		return nil, 0, mcp.NewToolResultError(err.Error())
	}
	return result, total, nil
}

// AnalyzeTool handles the analyze_karyotype MCP tool.
type AnalyzeTool struct {
	analysis *app.AnalysisService
}

// NewAnalyzeTool creates an AnalyzeTool.
func NewAnalyzeTool(analysis *app.AnalysisService) *AnalyzeTool {
	return &AnalyzeTool{analysis: analysis}
}

// Definition returns the MCP tool definition for analyze_karyotype.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool(AnalyzeToolName,
		mcp.WithDescription("List the anomalies of a karyotype formula with their clones, ISCN 2024 score and explanation."),
		formulaArgument(),
	)
}

// Handle processes the analyze_karyotype tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, _, toolErr := analyze(t.analysis, req)
	if toolErr != nil {
		return toolErr, nil
	}
	return mcp.NewToolResultText(report.Markdown(result)), nil
}

// ScoreTool handles the score_karyotype MCP tool.
type ScoreTool struct {
	analysis *app.AnalysisService
}

// NewScoreTool creates a ScoreTool.
func NewScoreTool(analysis *app.AnalysisService) *ScoreTool {
	return &ScoreTool{analysis: analysis}
}

// Scores is the JSON payload of score_karyotype
type Scores struct {
	Formula     string `json:"formula"`
	Anomalies   int    `json:"anomalies"`
	Jondreville int    `json:"score_jondreville_2020"`
	ISCN        int    `json:"score_iscn_2024"`
}

// Definition returns the MCP tool definition for score_karyotype.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool(ScoreToolName,
		mcp.WithDescription("Return the Jondreville 2020 and ISCN 2024 totals of a karyotype formula as JSON."),
		formulaArgument(),
	)
}

// Handle processes the score_karyotype tool call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, total, toolErr := analyze(t.analysis, req)
	if toolErr != nil {
		return toolErr, nil
	}
	payload, err := json.Marshal(Scores{
		Formula:     strings.TrimSpace(req.GetString("formula", "")),
		Anomalies:   len(result.Rows),
		Jondreville: result.TotalJ(),
		ISCN:        total,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
