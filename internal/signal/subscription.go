package signal

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/types"
)

// subscriptionSignals detects recurring merchant charges over a fixed 90-day
// lookback, independent of the requested window. A merchant qualifies when it
// has at least 3 occurrences, all amounts within $1.00 of each other, and
// every consecutive gap between 27 and 33 days. A single gap outside the
// range disqualifies the whole group.
func (e *Extractor) subscriptionSignals(recs types.RecordSet, window Window, now time.Time) []Signal {
	lookback := now.AddDate(0, 0, -e.SubscriptionLookbackDays)

	groups := make(map[string][]types.Transaction)
	display := make(map[string]string)
	for _, txn := range recs.Transactions {
		if txn.Pending || !txn.Outflow() {
			continue
		}
		if txn.Date.Before(lookback) || txn.Date.After(now) {
			continue
		}
		name := strings.TrimSpace(txn.MerchantName)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		groups[key] = append(groups[key], txn)
		if _, ok := display[key]; !ok {
			display[key] = name
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var (
		qualifying   []SubscriptionGroup
		monthlySpend = decimal.Zero
	)
	for _, key := range keys {
		txns := groups[key]
		group, ok := e.qualifySubscription(display[key], txns)
		if !ok {
			continue
		}
		qualifying = append(qualifying, group)
		monthlySpend = monthlySpend.Add(decimal.NewFromFloat(group.MonthlyAmount))
	}
	if len(qualifying) == 0 {
		return nil
	}

	meta := SubscriptionMeta{Merchants: qualifying}
	spend, _ := monthlySpend.Round(2).Float64()

	share := 0.0
	if total := trailingSpend(recs.Transactions, now, 30); total > 0 {
		share = spend / total * 100
	}

	return []Signal{
		{UserID: recs.UserID, Type: TypeSubscriptionCount, Window: window, Value: Float(float64(len(qualifying))), Meta: meta},
		{UserID: recs.UserID, Type: TypeSubscriptionMonthlySpend, Window: window, Value: Float(spend), Meta: meta},
		{UserID: recs.UserID, Type: TypeSubscriptionShare, Window: window, Value: Float(share), Meta: meta},
	}
}

func (e *Extractor) qualifySubscription(merchant string, txns []types.Transaction) (SubscriptionGroup, bool) {
	if len(txns) < e.SubscriptionMinOccurrences {
		return SubscriptionGroup{}, false
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })

	minAmt := math.Abs(txns[0].Amount)
	maxAmt := minAmt
	for _, txn := range txns[1:] {
		amt := math.Abs(txn.Amount)
		if amt < minAmt {
			minAmt = amt
		}
		if amt > maxAmt {
			maxAmt = amt
		}
	}
	if maxAmt-minAmt > e.SubscriptionAmountTolerance {
		return SubscriptionGroup{}, false
	}

	gapSum := 0.0
	for i := 1; i < len(txns); i++ {
		gap := daysBetween(txns[i-1].Date, txns[i].Date)
		if gap < e.SubscriptionMinGapDays || gap > e.SubscriptionMaxGapDays {
			return SubscriptionGroup{}, false
		}
		gapSum += float64(gap)
	}

	// One month's worth per subscription: the first occurrence's amount,
	// not the historical total.
	monthly, _ := decimal.NewFromFloat(math.Abs(txns[0].Amount)).Round(2).Float64()
	return SubscriptionGroup{
		Merchant:      merchant,
		Occurrences:   len(txns),
		MonthlyAmount: monthly,
		AvgGapDays:    gapSum / float64(len(txns)-1),
	}, true
}

// trailingSpend totals absolute outflow over the trailing N days.
func trailingSpend(txns []types.Transaction, now time.Time, days int) float64 {
	cutoff := now.AddDate(0, 0, -days)
	total := decimal.Zero
	for _, txn := range txns {
		if txn.Pending || !txn.Outflow() {
			continue
		}
		if txn.Date.Before(cutoff) || txn.Date.After(now) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(math.Abs(txn.Amount)))
	}
	out, _ := total.Float64()
	return out
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
