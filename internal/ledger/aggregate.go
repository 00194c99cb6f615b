package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Granularity selects the bucket width used when aggregating.
type Granularity string

// Supported granularities.
const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// Bucket is the cash flow of one window [Start, End).
type Bucket struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Key              string    `json:"key"`
	TotalInflow      float64   `json:"totalInflow"`
	TotalOutflow     float64   `json:"totalOutflow"`
	NetCashFlow      float64   `json:"netCashFlow"`
	TransactionCount int       `json:"transactionCount"`
	SurplusDays      int       `json:"surplusDays"`
	DeficitDays      int       `json:"deficitDays"`
}

// Window is a half-open time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days returns the number of calendar days the window spans.
func (w Window) Days() int {
	return DaysBetween(w.Start, w.End)
}

// Truncate returns the start of the bucket containing t.
func (g Granularity) Truncate(t time.Time) time.Time {
	switch g {
	case Daily:
		return DayStart(t)
	case Weekly:
		return WeekStart(t)
	case Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return MonthStart(t)
	}
}

// Next returns the start of the bucket following the one starting at start.
func (g Granularity) Next(start time.Time) time.Time {
	switch g {
	case Daily:
		return start.AddDate(0, 0, 1)
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// Key formats the label for the bucket starting at start.
func (g Granularity) Key(start time.Time) string {
	switch g {
	case Daily:
		return start.Format("2006-01-02")
	case Weekly:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Yearly:
		return start.Format("2006")
	default:
		return MonthKey(start)
	}
}

// Windows partitions [start, end) into buckets of granularity g. The first and
// last windows are clipped to the range, so a horizon that starts mid-month
// yields a partial first month.
func Windows(start, end time.Time, g Granularity) []Window {
	var windows []Window
	for cur := g.Truncate(start); cur.Before(end); cur = g.Next(cur) {
		w := Window{Start: cur, End: g.Next(cur)}
		if w.Start.Before(start) {
			w.Start = start
		}
		if w.End.After(end) {
			w.End = end
		}
		windows = append(windows, w)
	}
	return windows
}

// Aggregate buckets transactions by the calendar windows their dates fall in.
// Only windows with at least one transaction are returned, which lets callers
// tell "no data" apart from "data present but flat".
func Aggregate(txns []model.Transaction, g Granularity, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.UTC
	}
	byStart := make(map[time.Time]*bucketAcc)
	for i := range txns {
		start := g.Truncate(txns[i].Date.In(loc))
		acc, ok := byStart[start]
		if !ok {
			acc = newBucketAcc(start, g.Next(start), g.Key(start))
			byStart[start] = acc
		}
		acc.add(&txns[i], loc)
	}

	buckets := make([]Bucket, 0, len(byStart))
	for _, acc := range byStart {
		buckets = append(buckets, acc.bucket())
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets
}

// AggregateRange buckets transactions into every window of [start, end),
// including empty ones, in chronological order. Transactions outside the range
// are ignored.
func AggregateRange(txns []model.Transaction, g Granularity, start, end time.Time) []Bucket {
	loc := start.Location()
	windows := Windows(start, end, g)
	accs := make([]*bucketAcc, len(windows))
	for i, w := range windows {
		accs[i] = newBucketAcc(w.Start, w.End, g.Key(g.Truncate(w.Start)))
	}

	for i := range txns {
		d := txns[i].Date.In(loc)
		idx := sort.Search(len(windows), func(k int) bool {
			return windows[k].End.After(d)
		})
		if idx < len(windows) && windows[idx].Contains(d) {
			accs[idx].add(&txns[i], loc)
		}
	}

	buckets := make([]Bucket, len(accs))
	for i, acc := range accs {
		buckets[i] = acc.bucket()
	}
	return buckets
}

type bucketAcc struct {
	daily   map[time.Time]decimal.Decimal
	inflow  decimal.Decimal
	outflow decimal.Decimal
	b       Bucket
}

func newBucketAcc(start, end time.Time, key string) *bucketAcc {
	return &bucketAcc{
		b:     Bucket{Key: key, Start: start, End: end},
		daily: make(map[time.Time]decimal.Decimal),
	}
}

func (a *bucketAcc) add(txn *model.Transaction, loc *time.Location) {
	in, out := Amount(txn.CreditAmount()), Amount(txn.DebitAmount())
	a.inflow = a.inflow.Add(in)
	a.outflow = a.outflow.Add(out)
	a.b.TransactionCount++
	day := DayStart(txn.Date.In(loc))
	a.daily[day] = a.daily[day].Add(in).Sub(out)
}

func (a *bucketAcc) bucket() Bucket {
	b := a.b
	b.TotalInflow = Float(a.inflow)
	b.TotalOutflow = Float(a.outflow)
	b.NetCashFlow = Float(a.inflow.Sub(a.outflow))
	for _, net := range a.daily {
		switch net.Sign() {
		case 1:
			b.SurplusDays++
		case -1:
			b.DeficitDays++
		}
	}
	return b
}
