package health

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/merchant"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// LookbackDays is the length of the history window anomalies are judged
// against.
const LookbackDays = 90

// Anomaly severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Anomaly types.
const (
	TypeAmountOutlier = "amount_outlier"
	TypeMerchantSpike = "merchant_spike"
)

// Anomaly is a debit that stands out from recent history.
type Anomaly struct {
	Date          time.Time `json:"date"`
	TransactionID string    `json:"transactionId"`
	Merchant      string    `json:"merchant"`
	Details       string    `json:"details"`
	Type          string    `json:"type"`
	Severity      string    `json:"severity"`
	Message       string    `json:"message"`
	Amount        float64   `json:"amount"`
	Expected      float64   `json:"expected"`
	ZScore        float64   `json:"zScore,omitempty"`
}

// Detector flags unusually large debits.
type Detector struct {
	Threshold     float64 // Z-score above which a debit is an outlier
	MinSamples    int     // History debits needed before z-scores are trusted
	SpikeMultiple float64 // Multiple of a merchant's median that counts as a spike
}

// NewDetector returns a detector with the stock thresholds.
func NewDetector() *Detector {
	return &Detector{Threshold: 2, MinSamples: 10, SpikeMultiple: 3}
}

// Detect compares each debit in month against the debits in history, which
// should cover the LookbackDays before the month. A debit is an amount
// outlier when its z-score against all history debits exceeds the threshold,
// and a merchant spike when it is a multiple of that merchant's median.
// Results are ordered by severity, then amount, largest first.
func (d *Detector) Detect(month, history []model.Transaction) []Anomaly {
	mean, stddev, n := debitStats(history)
	medians := merchantMedians(history)

	var out []Anomaly
	for i := range month {
		txn := &month[i]
		if !txn.IsDebit() {
			continue
		}
		amount := txn.DebitAmount()
		name := merchant.Extract(txn.Details)

		if n >= d.MinSamples && stddev > 0 {
			if z := (amount - mean) / stddev; z > d.Threshold {
				out = append(out, Anomaly{
					Date:          txn.Date,
					TransactionID: txn.ID,
					Merchant:      name,
					Details:       txn.Details,
					Type:          TypeAmountOutlier,
					Severity:      zSeverity(z),
					Amount:        amount,
					Expected:      mean,
					ZScore:        z,
					Message:       fmt.Sprintf("%.2f at %s is %.1f standard deviations above typical spending", amount, txn.Details, z),
				})
				continue
			}
		}

		if med, ok := medians[name]; ok && med > 0 && amount >= d.SpikeMultiple*med {
			sev := SeverityMedium
			if amount >= 2*d.SpikeMultiple*med {
				sev = SeverityHigh
			}
			out = append(out, Anomaly{
				Date:          txn.Date,
				TransactionID: txn.ID,
				Merchant:      name,
				Details:       txn.Details,
				Type:          TypeMerchantSpike,
				Severity:      sev,
				Amount:        amount,
				Expected:      med,
				Message:       fmt.Sprintf("%.2f at %s is %.1fx the usual %.2f", amount, name, amount/med, med),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity); ri != rj {
			return ri > rj
		}
		return out[i].Amount > out[j].Amount
	})
	return out
}

func zSeverity(z float64) string {
	switch {
	case z > 3:
		return SeverityHigh
	case z > 2.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func severityRank(s string) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

func debitStats(txns []model.Transaction) (mean, stddev float64, n int) {
	var sum float64
	for i := range txns {
		if txns[i].IsDebit() {
			sum += txns[i].DebitAmount()
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	mean = sum / float64(n)

	var sq float64
	for i := range txns {
		if txns[i].IsDebit() {
			diff := txns[i].DebitAmount() - mean
			sq += diff * diff
		}
	}
	return mean, math.Sqrt(sq / float64(n)), n
}

// merchantMedians returns the median debit of each merchant seen at least
// three times.
func merchantMedians(txns []model.Transaction) map[string]float64 {
	amounts := make(map[string][]float64)
	for i := range txns {
		if !txns[i].IsDebit() {
			continue
		}
		name := merchant.Extract(txns[i].Details)
		if name == merchant.Unknown {
			continue
		}
		amounts[name] = append(amounts[name], txns[i].DebitAmount())
	}

	medians := make(map[string]float64, len(amounts))
	for name, values := range amounts {
		if len(values) < 3 {
			continue
		}
		sort.Float64s(values)
		mid := len(values) / 2
		if len(values)%2 == 0 {
			medians[name] = (values[mid-1] + values[mid]) / 2
		} else {
			medians[name] = values[mid]
		}
	}
	return medians
}
