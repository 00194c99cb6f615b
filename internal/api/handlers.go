package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/spice-dashboard/internal/export"
	"github.com/Veraticus/spice-dashboard/internal/limits"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

const dateLayout = "2006-01-02"

type healthResponse struct {
	Time   time.Time `json:"time"`
	Status string    `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Time: s.engine.Now()})
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(chi.URLParam(r, "year"), "year")
	if err != nil {
		writeError(w, err)
		return
	}
	month, err := intParam(chi.URLParam(r, "month"), "month")
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := s.engine.MonthlyReport(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, rep, func() export.Table { return export.MonthlyTable(rep) })
}

func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(chi.URLParam(r, "year"), "year")
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := s.engine.YearlyReport(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, rep, func() export.Table { return export.YearlyTable(rep) })
}

// handleForecast projects to the end of the current month, or through the
// inclusive ?until=YYYY-MM-DD date.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var periodEnd time.Time
	if until := r.URL.Query().Get("until"); until != "" {
		day, err := time.ParseInLocation(dateLayout, until, s.engine.Settings().Location)
		if err != nil {
			writeError(w, fmt.Errorf("%w: until must be YYYY-MM-DD", errBadRequest))
			return
		}
		periodEnd = day.AddDate(0, 0, 1)
	}
	f, err := s.engine.Forecast(r.Context(), periodEnd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, f, func() export.Table { return export.ForecastTable(f) })
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := intParam(raw, "days")
		if err != nil {
			writeError(w, err)
			return
		}
		if n <= 0 {
			writeError(w, fmt.Errorf("%w: days must be positive", errBadRequest))
			return
		}
		days = n
	}
	p, err := s.engine.CashFlow(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, p, func() export.Table { return export.CashFlowTable(p) })
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	payments, err := s.engine.Recurring(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, payments, func() export.Table { return export.RecurringTable(payments) })
}

// handleBudgets evaluates ?period=YYYY-MM, defaulting to the current month.
func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	now := s.engine.Now()
	period := r.URL.Query().Get("period")
	if period == "" {
		period = model.FormatPeriod(now.Year(), now.Month())
	}
	start, err := model.ParsePeriod(period, now.Location())
	if err != nil {
		writeError(w, err)
		return
	}
	statuses, err := s.engine.Budgets(r.Context(), start.Year(), start.Month())
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, statuses, func() export.Table { return export.BudgetsTable(period, statuses) })
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.engine.Limits(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, statuses, func() export.Table { return export.LimitsTable(statuses) })
}

type checkRequest struct {
	Date    *time.Time `json:"date,omitempty"`
	Details string     `json:"details"`
	TagIDs  []string   `json:"tagIds"`
	Amount  float64    `json:"amount"`
}

type checkResponse struct {
	Breaches []limits.Breach `json:"breaches"`
	Allowed  bool            `json:"allowed"`
}

// handleCheckTransaction reports the limits a prospective debit would exceed.
// Amount is the positive debit amount.
func (s *Server) handleCheckTransaction(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err))
		return
	}
	if req.Amount <= 0 {
		writeError(w, fmt.Errorf("%w: amount must be positive", errBadRequest))
		return
	}

	candidate := model.Transaction{
		Type:    model.TypeDebit,
		Details: strings.TrimSpace(req.Details),
		Debit:   req.Amount,
		Amount:  req.Amount,
		TagIDs:  req.TagIDs,
	}
	if req.Date != nil {
		candidate.Date = *req.Date
	}

	breaches, err := s.engine.CheckTransaction(r.Context(), candidate)
	if err != nil {
		writeError(w, err)
		return
	}
	if breaches == nil {
		breaches = []limits.Breach{}
	}
	writeJSON(w, http.StatusOK, checkResponse{Allowed: len(breaches) == 0, Breaches: breaches})
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	progress, err := s.engine.Goals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeTable(w, r, progress, func() export.Table { return export.GoalsTable(progress) })
}

// handleWhatIf projects a goal at ?rate= percent of income saved.
func (s *Server) handleWhatIf(w http.ResponseWriter, r *http.Request) {
	rate, err := strconv.ParseFloat(r.URL.Query().Get("rate"), 64)
	if err != nil || rate < 0 || rate > 100 {
		writeError(w, fmt.Errorf("%w: rate must be a percentage between 0 and 100", errBadRequest))
		return
	}
	p, err := s.engine.WhatIf(r.Context(), chi.URLParam(r, "id"), rate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func intParam(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, name)
	}
	return n, nil
}
