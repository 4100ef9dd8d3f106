package ui

import (
	"bytes"
	"context"
	stderrors "errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"karyoscore/adapters/excel"
	"karyoscore/adapters/report"
	"karyoscore/domain/batch"
	"karyoscore/domain/core"
	"karyoscore/domain/karyotype"
	"karyoscore/internal/errors"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	runExportName   = "resultats_analyse.xlsx"
	maxListLimit    = 500
)

// indexPage is the data of index.html
type indexPage struct {
	Formula        string
	Warning        string
	Error          string
	Result         *karyotype.Result
	Report         template.HTML
	Run            *batch.Run
	RunReport      template.HTML
	Runs           []*batch.Run
	HistoryEnabled bool
}

type analyzeRequest struct {
	Formula string `json:"formula"`
}

type analyzeResponse struct {
	Formula string          `json:"formula"`
	Rows    []karyotype.Row `json:"rows"`
	Total   karyotype.Row   `json:"total"`
	TotalJ  int             `json:"total_j"`
	TotalI  int             `json:"total_i"`
}

func (s *Server) newPage(ctx context.Context) *indexPage {
	page := &indexPage{HistoryEnabled: s.runs != nil}
	if s.runs != nil {
		runs, err := s.runs.List(ctx, s.opts.HistoryLimit)
		if err != nil {
			s.logger.Warn("[UI] run history unavailable: %v", err)
		}
		page.Runs = runs
	}
	return page
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "index.html", s.newPage(c.Request.Context()))
}

// handleAnalyzeForm renders the report of the submitted formula
func (s *Server) handleAnalyzeForm(c *gin.Context) {
	page := s.newPage(c.Request.Context())
	page.Formula = strings.TrimSpace(c.PostForm("formula"))
	if page.Formula == "" {
		page.Warning = "Please enter a karyotype formula."
		s.renderTemplate(c, http.StatusBadRequest, "index.html", page)
		return
	}

	result, _, err := s.analysis.Analyze(page.Formula)
	if err != nil {
		page.Error = err.Error()
		s.renderTemplate(c, statusFor(err), "index.html", page)
		return
	}
	page.Result = result
	page.Report = template.HTML(report.HTML(result))
	s.renderTemplate(c, http.StatusOK, "index.html", page)
}

// handleBatchForm analyzes an uploaded table and renders the run
func (s *Server) handleBatchForm(c *gin.Context) {
	run, err := s.runUpload(c)
	page := s.newPage(c.Request.Context())
	if err != nil {
		page.Error = err.Error()
		s.renderTemplate(c, statusFor(err), "index.html", page)
		return
	}
	page.Run = run
	page.RunReport = template.HTML(report.ToHTML(report.RunMarkdown(run)))
	s.renderTemplate(c, http.StatusOK, "index.html", page)
}

func (s *Server) handleAnalyzeAPI(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput(`request body must be JSON {"formula": "..."}`))
		return
	}
	formula := strings.TrimSpace(req.Formula)
	if formula == "" {
		s.respondError(c, errors.InvalidInput("formula is required"))
		return
	}

	result, total, err := s.analysis.Analyze(formula)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analyzeResponse{
		Formula: formula,
		Rows:    result.Rows,
		Total:   result.Total,
		TotalJ:  result.TotalJ(),
		TotalI:  total,
	})
}

func (s *Server) handleAnalyzeExport(c *gin.Context) {
	formula := strings.TrimSpace(c.Query("formula"))
	if formula == "" {
		s.respondError(c, errors.InvalidInput("formula is required"))
		return
	}
	result, _, err := s.analysis.Analyze(formula)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteAnalysis(&buf, formula, result); err != nil {
		s.respondError(c, err)
		return
	}
	s.sendWorkbook(c, "analysis.xlsx", &buf)
}

func (s *Server) handleBatchAPI(c *gin.Context) {
	run, err := s.runUpload(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// handleBatchExport analyzes an upload and answers with the results
// workbook directly, so it works without run history.
func (s *Server) handleBatchExport(c *gin.Context) {
	run, err := s.runUpload(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteRun(&buf, run); err != nil {
		s.respondError(c, err)
		return
	}
	s.sendWorkbook(c, runExportName, &buf)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		s.respondError(c, errHistoryDisabled)
		return
	}
	limit := s.opts.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			s.respondError(c, errors.InvalidInput("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.loadRun(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleExportRun(c *gin.Context) {
	run, err := s.loadRun(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteRun(&buf, run); err != nil {
		s.respondError(c, err)
		return
	}
	s.sendWorkbook(c, runExportName, &buf)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "history": s.runs != nil})
}

var errHistoryDisabled = errors.New(errors.CodeNotFound, "run history is disabled")

func (s *Server) loadRun(c *gin.Context) (*batch.Run, error) {
	if s.runs == nil {
		return nil, errHistoryDisabled
	}
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		return nil, err
	}
	return s.runs.Get(c.Request.Context(), id.String())
}

// runUpload reads the multipart "file" field and analyzes it
func (s *Server) runUpload(c *gin.Context) (*batch.Run, error) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errors.InvalidInput("a CSV or XLSX file is required in the 'file' field")
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open upload")
	}
	defer file.Close()

	table, err := s.reader.Read(header.Filename, file)
	if err != nil {
		return nil, err
	}
	records, hasCount, err := excel.Records(table)
	if err != nil {
		return nil, err
	}
	return s.batches.Run(c.Request.Context(), header.Filename, records, hasCount)
}

func (s *Server) sendWorkbook(c *gin.Context, name string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
