package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincoach/internal/types"
)

func depositAt(now time.Time, daysAgo int, amount float64, source string) types.Transaction {
	return types.Transaction{
		ID:           source + "-" + now.AddDate(0, 0, -daysAgo).Format("20060102"),
		UserID:       "u1",
		AccountID:    "chk",
		Date:         now.AddDate(0, 0, -daysAgo),
		Amount:       amount,
		MerchantName: source,
	}
}

func TestIncomeBiweeklyCadence(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recs := types.RecordSet{
		UserID: "u1",
		Transactions: []types.Transaction{
			depositAt(now, 2, 1450, "Globex Payroll"),
			depositAt(now, 16, 1450, "Globex Payroll"),
		},
	}
	e := NewExtractor()
	signals, monthly := e.incomeSignals(recs, Window30d, now)
	require.NotEmpty(t, signals)

	est := findSignal(t, signals, TypeIncomeMonthlyEstimate)
	assert.InDelta(t, 1450*2.17, *est.Value, 0.01)
	assert.InDelta(t, monthly, *est.Value, 1e-9)

	meta, ok := est.Meta.(IncomeMeta)
	require.True(t, ok)
	assert.Equal(t, CadenceBiweekly, meta.Cadence)
	assert.Equal(t, "Globex Payroll", meta.Source)
	assert.Equal(t, 2, meta.DepositCount)
}

func TestIncomeMonthlyCadence(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recs := types.RecordSet{
		UserID: "u1",
		Transactions: []types.Transaction{
			depositAt(now, 3, 2600, "Initech Payroll"),
			depositAt(now, 33, 2600, "Initech Payroll"),
			depositAt(now, 63, 2600, "Initech Payroll"),
		},
	}
	e := NewExtractor()
	signals, monthly := e.incomeSignals(recs, Window180d, now)
	require.NotEmpty(t, signals)
	assert.InDelta(t, 2600, monthly, 1e-9)

	meta := findSignal(t, signals, TypeIncomeMonthlyEstimate).Meta.(IncomeMeta)
	assert.Equal(t, CadenceMonthly, meta.Cadence)
}

func TestIncomeIrregularCadenceUsesConservativeMultiplier(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recs := types.RecordSet{
		UserID: "u1",
		Transactions: []types.Transaction{
			depositAt(now, 5, 900, "Gig Platform"),
			depositAt(now, 50, 1200, "Gig Platform"),
			depositAt(now, 170, 700, "Gig Platform"),
		},
	}
	e := NewExtractor()
	signals, monthly := e.incomeSignals(recs, Window180d, now)
	require.NotEmpty(t, signals)

	meta := findSignal(t, signals, TypeIncomeMonthlyEstimate).Meta.(IncomeMeta)
	assert.Equal(t, CadenceIrregular, meta.Cadence)
	// Median deposit is 900; irregular multiplies by 2.
	assert.InDelta(t, 1800, monthly, 1e-9)
}

func TestIncomeIrregularCadenceVisibleInShortWindow(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	// Deposits 40-50 days apart: only one lands inside the last 30 days, but
	// the fixed lookback still sees the full history.
	recs := types.RecordSet{
		UserID: "u1",
		Transactions: []types.Transaction{
			depositAt(now, 10, 1100, "Gig Platform"),
			depositAt(now, 55, 950, "Gig Platform"),
			depositAt(now, 100, 1300, "Gig Platform"),
			depositAt(now, 145, 800, "Gig Platform"),
		},
	}
	e := NewExtractor()
	signals, _ := e.incomeSignals(recs, Window30d, now)
	require.NotEmpty(t, signals)

	est := findSignal(t, signals, TypeIncomeMonthlyEstimate)
	assert.Equal(t, Window30d, est.Window)

	meta, ok := est.Meta.(IncomeMeta)
	require.True(t, ok)
	assert.Equal(t, CadenceIrregular, meta.Cadence)
	assert.Equal(t, 4, meta.DepositCount)
}

func TestIncomeLookbackBoundsDeposits(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recs := types.RecordSet{
		UserID: "u1",
		Transactions: []types.Transaction{
			depositAt(now, 3, 2600, "Initech Payroll"),
			depositAt(now, 33, 2600, "Initech Payroll"),
			depositAt(now, 200, 2600, "Initech Payroll"),
		},
	}
	e := NewExtractor()
	signals, _ := e.incomeSignals(recs, Window30d, now)
	require.NotEmpty(t, signals)

	meta := findSignal(t, signals, TypeIncomeMonthlyEstimate).Meta.(IncomeMeta)
	assert.Equal(t, 2, meta.DepositCount)
	assert.Equal(t, CadenceMonthly, meta.Cadence)
}

func TestIncomeSingleDepositInsufficient(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recs := types.RecordSet{
		UserID: "u1",
		Transactions: []types.Transaction{
			depositAt(now, 3, 5000, "One Time Client"),
		},
	}
	e := NewExtractor()
	signals, monthly := e.incomeSignals(recs, Window30d, now)
	assert.Empty(t, signals)
	assert.Zero(t, monthly)
}

func TestIncomeDominantSourceWinsOverSmallerInflows(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recs := types.RecordSet{
		UserID: "u1",
		Transactions: []types.Transaction{
			depositAt(now, 2, 1450, "Globex Payroll"),
			depositAt(now, 16, 1450, "Globex Payroll"),
			depositAt(now, 4, 25, "Marketplace Refund"),
			depositAt(now, 10, 40, "Marketplace Refund"),
		},
	}
	e := NewExtractor()
	signals, _ := e.incomeSignals(recs, Window30d, now)
	meta := findSignal(t, signals, TypeIncomeMonthlyEstimate).Meta.(IncomeMeta)
	assert.Equal(t, "Globex Payroll", meta.Source)
}

func TestSavingsSignalsWithIncome(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recs := types.RecordSet{
		UserID: "u1",
		Accounts: []types.Account{
			{ID: "sav", UserID: "u1", Name: "Rainy Day", Type: types.AccountTypeDepository, Subtype: "savings", CurrentBalance: 5200},
		},
		Transactions: []types.Transaction{
			{ID: "t1", UserID: "u1", AccountID: "sav", Date: now.AddDate(0, 0, -5), Amount: 300},
			{ID: "t2", UserID: "u1", AccountID: "sav", Date: now.AddDate(0, 0, -19), Amount: 300},
		},
	}
	e := NewExtractor()
	signals := e.savingsSignals(recs, Window30d, now, 3000)

	assert.InDelta(t, 5200, *findSignal(t, signals, TypeSavingsBalance).Value, 1e-9)
	assert.InDelta(t, 600, *findSignal(t, signals, TypeSavingsNetInflow).Value, 1e-9)
	assert.InDelta(t, 20, *findSignal(t, signals, TypeSavingsRate).Value, 0.01)
}

func TestSavingsRateOmittedWithoutIncome(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recs := types.RecordSet{
		UserID: "u1",
		Accounts: []types.Account{
			{ID: "sav", UserID: "u1", Type: types.AccountTypeDepository, Subtype: "savings", CurrentBalance: 100},
		},
	}
	e := NewExtractor()
	signals := e.savingsSignals(recs, Window30d, now, 0)
	assert.True(t, hasSignal(signals, TypeSavingsBalance))
	assert.False(t, hasSignal(signals, TypeSavingsRate))
}

func TestSavingsNoAccountsNoSignals(t *testing.T) {
	now := time.Now()
	e := NewExtractor()
	assert.Empty(t, e.savingsSignals(types.RecordSet{UserID: "u1"}, Window30d, now, 3000))
}
