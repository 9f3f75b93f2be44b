package signal

import (
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/types"
)

// savingsSignals aggregates savings-account balances and window net inflow.
// The savings rate relates monthly inflow to the income estimate from the
// same window; when income is unknown the rate signal is omitted rather than
// divided by zero.
func (e *Extractor) savingsSignals(recs types.RecordSet, window Window, now time.Time, monthlyIncome float64) []Signal {
	var (
		savings []types.Account
		names   []string
	)
	for _, acct := range recs.Accounts {
		if acct.IsSavings() {
			savings = append(savings, acct)
			names = append(names, acct.Name)
		}
	}
	if len(savings) == 0 {
		return nil
	}

	balance := decimal.Zero
	ids := make(map[string]struct{}, len(savings))
	for _, acct := range savings {
		balance = balance.Add(decimal.NewFromFloat(acct.CurrentBalance))
		ids[acct.ID] = struct{}{}
	}

	dur, ok := window.Duration()
	if !ok {
		return nil
	}
	cutoff := now.Add(-dur)
	inflow := decimal.Zero
	for _, txn := range recs.Transactions {
		if txn.Pending {
			continue
		}
		if _, mine := ids[txn.AccountID]; !mine {
			continue
		}
		if txn.Date.Before(cutoff) || txn.Date.After(now) {
			continue
		}
		inflow = inflow.Add(decimal.NewFromFloat(txn.Amount))
	}

	meta := SavingsMeta{AccountNames: names}
	balanceVal, _ := balance.Round(2).Float64()
	inflowVal, _ := inflow.Round(2).Float64()

	out := []Signal{
		{UserID: recs.UserID, Type: TypeSavingsBalance, Window: window, Value: Float(balanceVal), Meta: meta},
		{UserID: recs.UserID, Type: TypeSavingsNetInflow, Window: window, Value: Float(inflowVal), Meta: meta},
	}

	if monthlyIncome > 0 {
		windowDays := dur.Hours() / 24
		monthlyInflow := inflowVal / windowDays * 30
		rate := monthlyInflow / monthlyIncome * 100
		rateVal, _ := decimal.NewFromFloat(rate).Round(2).Float64()
		out = append(out, Signal{UserID: recs.UserID, Type: TypeSavingsRate, Window: window, Value: Float(rateVal), Meta: meta})
	}
	return out
}
