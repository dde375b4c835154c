package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// Analyzer is the slice of the analysis service the report handler consumes.
type Analyzer interface {
	GetRiskReport(ctx context.Context, ticker string) (domain.RiskReport, error)
	History(ctx context.Context, limit int) ([]domain.ReportRecord, error)
	Latest(ctx context.Context, ticker string) (domain.ReportRecord, error)
}

// ReportHandler serves risk-report endpoints.
type ReportHandler struct {
	svc    Analyzer
	logger *slog.Logger
}

// NewReportHandler creates a ReportHandler backed by the analysis service.
func NewReportHandler(svc Analyzer, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

// Analyze assembles (or serves the cached) risk report for a ticker.
// GET /api/analyze/{ticker}
func (h *ReportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	log := logHandler(h.logger, "analyze")

	ticker := pathParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	report, err := h.svc.GetRiskReport(r.Context(), ticker)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOnlyBridged):
			writeError(w, http.StatusNotFound,
				"only bridged or wrapped deployments were found for this ticker")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "unknown ticker")
		case errors.Is(err, domain.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "upstream rate limit reached, retry later")
		default:
			log.ErrorContext(r.Context(), "analysis failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "analysis unavailable")
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// History lists recently generated report records, newest first. A ticker
// query parameter narrows the response to that ticker's latest record.
// GET /api/reports/history?limit=N
// GET /api/reports/history?ticker=usdt
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logHandler(h.logger, "history")

	if ticker := r.URL.Query().Get("ticker"); ticker != "" {
		record, err := h.svc.Latest(r.Context(), ticker)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "no reports recorded for this ticker")
				return
			}
			log.ErrorContext(r.Context(), "latest report query failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
		writeJSON(w, http.StatusOK, record)
		return
	}

	limit := parseLimit(r, 50, 500)

	records, err := h.svc.History(r.Context(), limit)
	if err != nil {
		log.ErrorContext(r.Context(), "history query failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if records == nil {
		records = []domain.ReportRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"reports": records,
	})
}
