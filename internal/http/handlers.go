package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"breakeven/internal/core"
	applog "breakeven/internal/log"
	"breakeven/internal/report"
	"breakeven/internal/storage"
)

const (
	msgPDFFailed   = "Failed to generate PDF"
	msgEmailSent   = "Email sent successfully"
	msgEmailFailed = "Failed to send email"
	msgSaveFailed  = "Failed to save calculation"
	msgNotFound    = "Calculation not found"
	msgBadRequest  = "Invalid request body"
)

// inputError maps validation failures to a status and a message fit for the
// user. ok is false for anything that is not the caller's fault.
func inputError(err error) (status int, msg string, ok bool) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, msgBadRequest, true
	case errors.Is(err, core.ErrInsufficientExpenses):
		return http.StatusUnprocessableEntity, core.InsufficientMessage, true
	case errors.Is(err, core.ErrInvalidWorkDays):
		return http.StatusUnprocessableEntity, "Work days per week must be between 1 and 7.", true
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "Expense amounts must be non-negative numbers.", true
	case errors.Is(err, core.ErrInvalidEmail):
		return http.StatusUnprocessableEntity, "Please enter a valid email address.", true
	}
	return 0, "", false
}

// writeJSONError writes the user-facing message for validation errors and
// fallback for everything else, logging the latter.
func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, err error, fallback, op string) {
	if status, msg, ok := inputError(err); ok {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rejected request input",
			applog.FieldOperation, op,
			applog.FieldErrorType, applog.ErrorTypeValidation,
			applog.FieldError, err.Error())
		JSONMessage(status, msg).Write(w)
		return
	}
	s.structured.LogError(r.Context(), fallback, err, applog.ComponentHTTP, op, nil)
	JSONMessage(http.StatusInternalServerError, fallback).Write(w)
}

// resultFor recomputes the result for a posted calculation. The client totals
// are compared and logged but never used.
func (s *Server) resultFor(ctx context.Context, req CalculationRequest) (core.CalculationResult, error) {
	result, err := s.svc.Reconcile(ctx, req.Expenses, req.WorkDays, req.ClientTotals())
	if err != nil {
		return core.CalculationResult{}, err
	}
	if err := core.RequireSufficient(result.Expenses); err != nil {
		return core.CalculationResult{}, err
	}
	return result, nil
}

type indexCategory struct {
	Key   string
	Label string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Title      string
		Symbol     string
		WorkDays   int
		DayOptions []int
		Categories []indexCategory
	}{
		Title:    report.Title,
		Symbol:   s.svc.Renderer().Formatter().CurrencyFormat().Symbol,
		WorkDays: 5,
	}
	for d := core.MinWorkDays; d <= core.MaxWorkDays; d++ {
		data.DayOptions = append(data.DayOptions, d)
	}
	for _, c := range core.Categories {
		data.Categories = append(data.Categories, indexCategory{Key: string(c), Label: c.Label()})
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	NewResponse().BodyHTML(buf.String()).Write(w)
}

type breakdownRow struct {
	Label   string
	Amount  string
	Percent string
	Width   int
}

// handleUICalculate renders the on-screen summary partial.
func (s *Server) handleUICalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	money := s.svc.Renderer().Formatter()

	req, err := ParseCalculationForm(NewRequestBodyParser(w, r), money)
	if err == nil {
		var result core.CalculationResult
		result, err = s.svc.Calculate(ctx, req.Expenses, req.WorkDays)
		if err == nil {
			s.renderSummary(w, r, result)
			return
		}
	}

	if status, msg, ok := inputError(err); ok {
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	s.structured.LogError(ctx, "Calculation failed", err, applog.ComponentHTTP, applog.OpCalculate, nil)
	InternalServerError("Something went wrong. Please try again.").Write(w)
}

func (s *Server) renderSummary(w http.ResponseWriter, r *http.Request, result core.CalculationResult) {
	ctx := r.Context()
	s.appMetrics.calculations.Add(1)
	s.structured.LogCalculation(ctx, result.WorkDays, result.Expenses.Len(), result.TotalMonthly, result.DailyBreakEven)

	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}

	renderer := s.svc.Renderer()
	money := renderer.Formatter()
	doc := renderer.Render(result)
	methodology, _ := doc.Section(report.KindMethodology)

	data := struct {
		WorkDays    int
		Total       string
		Daily       string
		Rows        []breakdownRow
		Methodology []string
	}{
		WorkDays:    result.WorkDays,
		Total:       money.Format(result.TotalMonthly),
		Daily:       money.Format(result.DailyBreakEven),
		Methodology: methodology.Lines,
	}
	for _, l := range report.Breakdown(result) {
		width := int(l.Percentage + 0.5)
		if width < 2 {
			width = 2
		}
		data.Rows = append(data.Rows, breakdownRow{
			Label:   l.Label,
			Amount:  money.Format(l.Amount),
			Percent: report.FormatPercent(l.Percentage),
			Width:   width,
		})
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "results.html", data); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Template execution error", "error", err, "template", "results.html")
		InternalServerError("Failed to render results").Write(w)
		return
	}
	NewResponse().TriggerCalculated(result).BodyHTML(buf.String()).Write(w)
}

// CalculateResponse is the body of POST /api/calculate.
type CalculateResponse struct {
	Result    core.CalculationResult `json:"result"`
	Breakdown []report.BreakdownLine `json:"breakdown"`
	Formatted FormattedTotals        `json:"formatted"`
}

type FormattedTotals struct {
	TotalMonthly   string `json:"totalMonthly"`
	DailyBreakEven string `json:"dailyBreakEven"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeJSONError(w, r, err, msgBadRequest, applog.OpParse)
		return
	}

	result, err := s.svc.Calculate(r.Context(), req.Expenses, req.WorkDays)
	if err != nil {
		s.writeJSONError(w, r, err, "Failed to calculate", applog.OpCalculate)
		return
	}
	s.appMetrics.calculations.Add(1)

	money := s.svc.Renderer().Formatter()
	breakdown := report.Breakdown(result)
	if breakdown == nil {
		breakdown = []report.BreakdownLine{}
	}
	NewResponse().JSON(CalculateResponse{
		Result:    result,
		Breakdown: breakdown,
		Formatted: FormattedTotals{
			TotalMonthly:   money.Format(result.TotalMonthly),
			DailyBreakEven: money.Format(result.DailyBreakEven),
		},
	}).Write(w)
}

func (s *Server) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CalculationRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeJSONError(w, r, err, msgPDFFailed, applog.OpParse)
		return
	}
	result, err := s.resultFor(ctx, req)
	if err != nil {
		s.writeJSONError(w, r, err, msgPDFFailed, applog.OpValidate)
		return
	}

	pdf, err := s.svc.RenderPDF(ctx, result)
	if err != nil {
		s.writeJSONError(w, r, err, msgPDFFailed, applog.OpRender)
		return
	}
	s.appMetrics.pdfs.Add(1)

	NewResponse().
		Header("Content-Type", report.ContentType).
		Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`).
		Header("Content-Length", strconv.Itoa(len(pdf))).
		Body(pdf).
		Write(w)
}

func (s *Server) handleEmailResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EmailRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeJSONError(w, r, err, msgEmailFailed, applog.OpParse)
		return
	}
	if err := core.ValidateEmail(req.Email); err != nil {
		s.writeJSONError(w, r, err, msgEmailFailed, applog.OpValidate)
		return
	}
	result, err := s.resultFor(ctx, req.CalculationData)
	if err != nil {
		s.writeJSONError(w, r, err, msgEmailFailed, applog.OpValidate)
		return
	}

	if err := s.svc.EmailReport(ctx, req.Email, result); err != nil {
		s.writeJSONError(w, r, err, msgEmailFailed, applog.OpEmail)
		return
	}
	s.appMetrics.emails.Add(1)
	JSONMessage(http.StatusOK, msgEmailSent).Write(w)
}

func (s *Server) handleSaveCalculation(w http.ResponseWriter, r *http.Request) {
	var rec core.CalculationRecord
	if err := DecodeJSON(w, r, &rec); err != nil {
		s.writeJSONError(w, r, err, msgSaveFailed, applog.OpParse)
		return
	}
	rec.ID = 0
	rec.CreatedAt = time.Time{}

	stored, err := s.svc.Save(r.Context(), rec)
	if err != nil {
		s.writeJSONError(w, r, err, msgSaveFailed, applog.OpCreate)
		return
	}
	s.appMetrics.saved.Add(1)
	NewResponse().JSON(stored).Write(w)
}

func (s *Server) handleGetCalculation(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		JSONMessage(http.StatusBadRequest, "Invalid calculation id").Write(w)
		return
	}

	rec, err := s.svc.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		JSONMessage(http.StatusNotFound, msgNotFound).Write(w)
		return
	}
	if err != nil {
		s.writeJSONError(w, r, err, "Failed to load calculation", applog.OpRead)
		return
	}
	NewResponse().JSON(rec).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.svc.Ping(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewResponse().Status(httpStatus).JSON(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics reports request, protection, cache and application counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]interface{}{
		"uptime_seconds": int64(time.Since(s.appMetrics.uptime).Seconds()),
		"requests":       s.traceMiddleware.GetMetrics(),
		"rate_limit":     s.rateLimiter.GetMetrics(),
		"security":       s.securityDetector.GetMetrics(),
		"pdf_cache":      s.svc.CacheStats(),
		"application": map[string]int64{
			"calculations": s.appMetrics.calculations.Load(),
			"pdfs":         s.appMetrics.pdfs.Load(),
			"emails":       s.appMetrics.emails.Load(),
			"saved":        s.appMetrics.saved.Load(),
		},
	}).Write(w)
}
