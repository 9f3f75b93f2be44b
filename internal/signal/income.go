package signal

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/types"
)

// Payroll cadence labels and their deposit-to-monthly multipliers. The
// irregular multiplier is deliberately conservative.
const (
	CadenceWeekly    = "weekly"
	CadenceBiweekly  = "bi-weekly"
	CadenceMonthly   = "monthly"
	CadenceIrregular = "irregular"
)

func cadenceMultiplier(cadence string) float64 {
	switch cadence {
	case CadenceWeekly:
		return 4.33
	case CadenceBiweekly:
		return 2.17
	case CadenceMonthly:
		return 1
	default:
		return 2
	}
}

// incomeSignals detects the user's dominant deposit source and estimates
// monthly income from its cadence. Cadence needs more history than any one
// reporting window offers, so deposits are always gathered over the fixed
// IncomeLookbackDays horizon; the window parameter only labels the emitted
// signals. Returns the monthly estimate alongside the signals so savings
// extraction can reuse it without a second pass. Fewer than two deposits from
// any single source means income cannot be estimated and no income signals
// are emitted.
func (e *Extractor) incomeSignals(recs types.RecordSet, window Window, now time.Time) ([]Signal, float64) {
	cutoff := now.AddDate(0, 0, -e.IncomeLookbackDays)

	sources := make(map[string][]types.Transaction)
	display := make(map[string]string)
	for _, txn := range recs.Transactions {
		if txn.Pending || txn.Amount <= 0 {
			continue
		}
		if txn.Date.Before(cutoff) || txn.Date.After(now) {
			continue
		}
		name := strings.TrimSpace(txn.MerchantName)
		if name == "" {
			name = strings.TrimSpace(txn.Category)
		}
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		sources[key] = append(sources[key], txn)
		if _, seen := display[key]; !seen {
			display[key] = name
		}
	}

	// Dominant source: highest total inflow; ties broken by name so the
	// choice is stable across runs.
	var (
		bestKey   string
		bestTotal float64
	)
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		total := 0.0
		for _, txn := range sources[key] {
			total += txn.Amount
		}
		if total > bestTotal {
			bestKey, bestTotal = key, total
		}
	}

	deposits := sources[bestKey]
	if len(deposits) < 2 {
		return nil, 0
	}
	sort.Slice(deposits, func(i, j int) bool { return deposits[i].Date.Before(deposits[j].Date) })

	cadence := detectCadence(deposits)
	typical := medianAmount(deposits)
	monthly := decimal.NewFromFloat(typical).
		Mul(decimal.NewFromFloat(cadenceMultiplier(cadence)))
	monthlyVal, _ := monthly.Round(2).Float64()

	meta := IncomeMeta{
		Cadence:        cadence,
		TypicalDeposit: typical,
		DepositCount:   len(deposits),
		Source:         display[bestKey],
	}
	signals := []Signal{
		{UserID: recs.UserID, Type: TypeIncomeMonthlyEstimate, Window: window, Value: Float(monthlyVal), Meta: meta},
		{UserID: recs.UserID, Type: TypeIncomeDepositCount, Window: window, Value: Float(float64(len(deposits))), Meta: meta},
	}
	return signals, monthlyVal
}

// detectCadence buckets the median gap between consecutive deposits.
func detectCadence(deposits []types.Transaction) string {
	gaps := make([]int, 0, len(deposits)-1)
	for i := 1; i < len(deposits); i++ {
		gaps = append(gaps, daysBetween(deposits[i-1].Date, deposits[i].Date))
	}
	sort.Ints(gaps)
	median := gaps[len(gaps)/2]
	switch {
	case median <= 9:
		return CadenceWeekly
	case median <= 16:
		return CadenceBiweekly
	case median <= 35:
		return CadenceMonthly
	default:
		return CadenceIrregular
	}
}

func medianAmount(deposits []types.Transaction) float64 {
	amounts := make([]float64, len(deposits))
	for i, txn := range deposits {
		amounts[i] = txn.Amount
	}
	sort.Float64s(amounts)
	mid := len(amounts) / 2
	if len(amounts)%2 == 1 {
		return amounts[mid]
	}
	v, _ := decimal.NewFromFloat((amounts[mid-1] + amounts[mid]) / 2).Round(2).Float64()
	return v
}
