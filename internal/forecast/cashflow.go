package forecast

import (
	"time"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// DefaultHorizonDays is the cash-flow projection horizon when none is given.
const DefaultHorizonDays = 90

// Period is one projected window of a cash-flow projection.
type Period struct {
	Start             time.Time         `json:"start"`
	End               time.Time         `json:"end"`
	Label             string            `json:"label"`
	RecurringPayments []ExpectedPayment `json:"recurringPayments"`
	ExpectedInflow    float64           `json:"expectedInflow"`
	ExpectedOutflow   float64           `json:"expectedOutflow"`
	NetFlow           float64           `json:"netFlow"`
	Days              int               `json:"days"`
}

// Projection is a cash-flow projection over a fixed horizon, bucketed into
// calendar months. Partial months at either edge are prorated by days.
type Projection struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Periods      []Period  `json:"periods"`
	HorizonDays  int       `json:"horizonDays"`
	TotalInflow  float64   `json:"totalInflow"`
	TotalOutflow float64   `json:"totalOutflow"`
	NetFlow      float64   `json:"netFlow"`
}

// CashFlow projects inflow and outflow for horizonDays after now using the
// same baseline and recurring list as the balance forecaster, so for an equal
// window the projection's NetFlow equals the forecast's trend minus its
// recurring total. Every month in the horizon appears, even when empty.
func CashFlow(txns []model.Transaction, recurring []RecurringPayment, now time.Time, horizonDays int, opts Options) Projection {
	opts = opts.withDefaults()
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	start := horizonStart(now)
	end := start.AddDate(0, 0, horizonDays)
	base := newBaseline(txns, recurring, now, opts.TrendDays)

	proj := Projection{Start: start, End: end, HorizonDays: horizonDays}
	for _, w := range ledger.Windows(start, end, ledger.Monthly) {
		days := w.Days()
		p := Period{
			Start:             w.Start,
			End:               w.End,
			Label:             ledger.MonthKey(w.Start),
			Days:              days,
			RecurringPayments: expectedPayments(recurring, now, w.Start, w.End),
		}
		p.ExpectedInflow = base.dailyInflow * float64(days)
		p.ExpectedOutflow = base.dailyOutflow*float64(days) + sumPayments(p.RecurringPayments)
		p.NetFlow = p.ExpectedInflow - p.ExpectedOutflow

		proj.TotalInflow += p.ExpectedInflow
		proj.TotalOutflow += p.ExpectedOutflow
		proj.Periods = append(proj.Periods, p)
	}
	proj.NetFlow = proj.TotalInflow - proj.TotalOutflow
	return proj
}

// ProjectCashFlow detects recurring payments itself before projecting.
func ProjectCashFlow(txns []model.Transaction, now time.Time, horizonDays int, opts Options) Projection {
	opts = opts.withDefaults()
	return CashFlow(txns, DetectRecurring(txns, opts.MinOccurrences), now, horizonDays, opts)
}
