// Package engine is the facade the CLI and HTTP API share. Each call loads a
// fresh snapshot and runs the analytics against it with the configured
// settings, so both surfaces always agree.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/budget"
	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/config"
	"github.com/Veraticus/spice-dashboard/internal/forecast"
	"github.com/Veraticus/spice-dashboard/internal/goals"
	"github.com/Veraticus/spice-dashboard/internal/limits"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/report"
	"github.com/Veraticus/spice-dashboard/internal/service"
)

// Engine runs analytics over snapshots from a source.
type Engine struct {
	source   service.SnapshotSource
	reports  *report.Generator
	clock    func() time.Time
	settings config.Analytics
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the engine's notion of the current instant.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithReportGenerator replaces the stock report generator.
func WithReportGenerator(g *report.Generator) Option {
	return func(e *Engine) {
		e.reports = g
	}
}

// New creates an engine reading from source with the given settings.
func New(source service.SnapshotSource, settings config.Analytics, opts ...Option) *Engine {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	g := report.NewGenerator()
	g.InvestmentKeywords = settings.InvestmentKeywords
	g.TopN = settings.TopN

	e := &Engine{
		source:   source,
		settings: settings,
		reports:  g,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the current instant in the configured location.
func (e *Engine) Now() time.Time {
	return e.clock().In(e.settings.Location)
}

// Settings returns the analytics settings the engine runs with.
func (e *Engine) Settings() config.Analytics {
	return e.settings
}

func (e *Engine) snapshot(ctx context.Context, op string) (*model.Snapshot, time.Time, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load snapshot for %s: %w", op, err)
	}
	now := e.Now()
	common.LogDebug("engine call", common.Fields{
		"op":           op,
		"now":          now.Format(time.RFC3339),
		"transactions": len(snap.Transactions),
	})
	return snap, now, nil
}

// MonthlyReport builds the report for one calendar month.
func (e *Engine) MonthlyReport(ctx context.Context, year int, month time.Month) (*report.MonthlyReport, error) {
	snap, now, err := e.snapshot(ctx, "monthly_report")
	if err != nil {
		return nil, err
	}
	r, err := e.reports.Monthly(snap, year, month, now)
	if err != nil {
		return nil, common.NewUserError("Month must be between 1 and 12", err)
	}
	return r, nil
}

// YearlyReport builds the report for one calendar year.
func (e *Engine) YearlyReport(ctx context.Context, year int) (*report.YearlyReport, error) {
	snap, now, err := e.snapshot(ctx, "yearly_report")
	if err != nil {
		return nil, err
	}
	return e.reports.Yearly(snap, year, now)
}

// Forecast projects the balance up to periodEnd, or to the end of the
// current month when periodEnd is zero.
func (e *Engine) Forecast(ctx context.Context, periodEnd time.Time) (forecast.Forecast, error) {
	snap, now, err := e.snapshot(ctx, "forecast")
	if err != nil {
		return forecast.Forecast{}, err
	}
	if periodEnd.IsZero() {
		return forecast.MonthEnd(snap.Transactions, now, e.settings.ForecastOptions()), nil
	}
	return forecast.Balance(snap.Transactions, now, periodEnd, e.settings.ForecastOptions()), nil
}

// CashFlow projects monthly cash flow for horizonDays, falling back to the
// configured horizon when horizonDays is not positive.
func (e *Engine) CashFlow(ctx context.Context, horizonDays int) (forecast.Projection, error) {
	snap, now, err := e.snapshot(ctx, "cash_flow")
	if err != nil {
		return forecast.Projection{}, err
	}
	if horizonDays <= 0 {
		horizonDays = e.settings.HorizonDays
	}
	return forecast.ProjectCashFlow(snap.Transactions, now, horizonDays, e.settings.ForecastOptions()), nil
}

// Recurring lists the detected recurring payments.
func (e *Engine) Recurring(ctx context.Context) ([]forecast.RecurringPayment, error) {
	snap, _, err := e.snapshot(ctx, "recurring")
	if err != nil {
		return nil, err
	}
	return forecast.DetectRecurring(snap.Transactions, e.settings.MinOccurrences), nil
}

// Budgets evaluates the budgets set for a calendar month.
func (e *Engine) Budgets(ctx context.Context, year int, month time.Month) ([]budget.Status, error) {
	snap, now, err := e.snapshot(ctx, "budgets")
	if err != nil {
		return nil, err
	}
	statuses, errs := budget.EvaluateAll(budget.ForPeriod(snap.Budgets, year, month), snap.Transactions, snap.TagNames(), now)
	for _, err := range errs {
		slog.Warn("Skipped budget", "error", err)
	}
	return statuses, nil
}

// Limits evaluates every spending limit, active or not.
func (e *Engine) Limits(ctx context.Context) ([]limits.Status, error) {
	snap, now, err := e.snapshot(ctx, "limits")
	if err != nil {
		return nil, err
	}
	return limits.EvaluateAll(snap.Limits, snap.Transactions, now), nil
}

// CheckTransaction reports the active limits a prospective debit would exceed.
func (e *Engine) CheckTransaction(ctx context.Context, candidate model.Transaction) ([]limits.Breach, error) {
	snap, now, err := e.snapshot(ctx, "check_transaction")
	if err != nil {
		return nil, err
	}
	if candidate.Date.IsZero() {
		candidate.Date = now
	}
	breaches := limits.CheckTransaction(snap.Limits, snap.Transactions, candidate, now)
	if len(breaches) > 0 {
		slog.Info("Transaction would exceed limits",
			"details", candidate.Details,
			"amount", candidate.DebitAmount(),
			"breaches", len(breaches))
	}
	return breaches, nil
}

// Goals evaluates progress on every savings goal.
func (e *Engine) Goals(ctx context.Context) ([]goals.Progress, error) {
	snap, now, err := e.snapshot(ctx, "goals")
	if err != nil {
		return nil, err
	}
	out := make([]goals.Progress, 0, len(snap.Goals))
	for _, g := range snap.Goals {
		out = append(out, goals.Evaluate(g, snap.Transactions, now))
	}
	return out, nil
}

// WhatIf projects when a goal would be reached at savingsRate percent of income.
func (e *Engine) WhatIf(ctx context.Context, goalID string, savingsRate float64) (goals.Projection, error) {
	snap, now, err := e.snapshot(ctx, "what_if")
	if err != nil {
		return goals.Projection{}, err
	}
	goal, ok := snap.Goal(goalID)
	if !ok {
		return goals.Projection{}, fmt.Errorf("savings goal %q: %w", goalID, common.ErrNotFound)
	}
	return goals.WhatIf(goal, snap.Transactions, now, savingsRate), nil
}
