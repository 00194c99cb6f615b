package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Entry is one keyed amount in a Breakdown.
type Entry struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// Breakdown is an ordered list of keyed amounts, largest first. Ties are
// broken by key so exports and top-N lists are stable.
type Breakdown []Entry

// Total returns the sum of all entry amounts.
func (b Breakdown) Total() float64 {
	var total decimal.Decimal
	for _, e := range b {
		total = total.Add(Amount(e.Amount))
	}
	return Float(total)
}

// Top returns at most n leading entries.
func (b Breakdown) Top(n int) Breakdown {
	if n <= 0 || n >= len(b) {
		return b
	}
	return b[:n]
}

// Find returns the entry for key.
func (b Breakdown) Find(key string) (Entry, bool) {
	for _, e := range b {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Accumulator collects amounts per key and produces a sorted Breakdown.
type Accumulator struct {
	entries map[string]*Entry
	sums    map[string]decimal.Decimal
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		entries: make(map[string]*Entry),
		sums:    make(map[string]decimal.Decimal),
	}
}

// Add records amount under key.
func (a *Accumulator) Add(key string, amount float64) {
	e, ok := a.entries[key]
	if !ok {
		e = &Entry{Key: key}
		a.entries[key] = e
	}
	a.sums[key] = a.sums[key].Add(Amount(amount))
	e.Amount = Float(a.sums[key])
	e.Count++
}

// Breakdown returns the sorted entries, labelling each with label(key).
// A nil label function uses the key itself.
func (a *Accumulator) Breakdown(label func(string) string) Breakdown {
	out := make(Breakdown, 0, len(a.entries))
	for _, e := range a.entries {
		entry := *e
		if label != nil {
			entry.Label = label(entry.Key)
		} else {
			entry.Label = entry.Key
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Key < out[j].Key
	})
	return out
}
