package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincoach/internal/types"
)

func fptr(v float64) *float64 { return &v }

func findSignal(t *testing.T, signals []Signal, sigType string) Signal {
	t.Helper()
	for _, s := range signals {
		if s.Type == sigType {
			return s
		}
	}
	t.Fatalf("signal %s not found", sigType)
	return Signal{}
}

func hasSignal(signals []Signal, sigType string) bool {
	for _, s := range signals {
		if s.Type == sigType {
			return true
		}
	}
	return false
}

func TestCreditSignalsSingleCard(t *testing.T) {
	recs := types.RecordSet{
		UserID: "u1",
		Accounts: []types.Account{
			{ID: "a1", UserID: "u1", Name: "Everyday Card", Type: types.AccountTypeCredit,
				CurrentBalance: 3750, CreditLimit: fptr(5000), APR: fptr(22)},
		},
	}
	e := NewExtractor()
	signals := e.creditSignals(recs, Window30d)

	maxUtil := findSignal(t, signals, TypeCreditUtilizationMax)
	require.NotNil(t, maxUtil.Value)
	assert.InDelta(t, 75.0, *maxUtil.Value, 1e-9)

	assert.Equal(t, 1.0, *findSignal(t, signals, TypeCreditUtilizationFlag30).Value)
	assert.Equal(t, 1.0, *findSignal(t, signals, TypeCreditUtilizationFlag50).Value)
	assert.Equal(t, 0.0, *findSignal(t, signals, TypeCreditUtilizationFlag80).Value)

	interest := findSignal(t, signals, TypeCreditMonthlyInterest)
	assert.InDelta(t, 68.75, *interest.Value, 1e-9)

	meta, ok := maxUtil.Meta.(CreditCardMeta)
	require.True(t, ok)
	require.Len(t, meta.Cards, 1)
	assert.Equal(t, "Everyday Card", meta.Cards[0].Name)
	assert.Equal(t, 3750.0, meta.Cards[0].Balance)
	assert.Equal(t, 5000.0, meta.Cards[0].Limit)
}

func TestCreditSignalsNoCreditAccounts(t *testing.T) {
	recs := types.RecordSet{
		UserID: "u1",
		Accounts: []types.Account{
			{ID: "a1", Type: types.AccountTypeDepository, Subtype: "checking", CurrentBalance: 500},
		},
	}
	e := NewExtractor()
	assert.Empty(t, e.creditSignals(recs, Window30d))
}

func TestCreditSignalsZeroLimitExcludedFromUtilization(t *testing.T) {
	recs := types.RecordSet{
		UserID: "u1",
		Accounts: []types.Account{
			{ID: "a1", Type: types.AccountTypeCredit, CurrentBalance: 900, CreditLimit: fptr(1000)},
			{ID: "a2", Type: types.AccountTypeCredit, CurrentBalance: 400, IsOverdue: true},
		},
	}
	e := NewExtractor()
	signals := e.creditSignals(recs, Window30d)

	assert.Equal(t, 1.0, *findSignal(t, signals, TypeCreditCardCount).Value)
	assert.InDelta(t, 90.0, *findSignal(t, signals, TypeCreditUtilizationMax).Value, 1e-9)
	// The zero-limit card still drives the overdue flag.
	assert.Equal(t, 1.0, *findSignal(t, signals, TypeCreditOverdue).Value)
	assert.False(t, hasSignal(signals, TypeCreditMonthlyInterest))
}

func TestCreditSignalsClampNegativeBalance(t *testing.T) {
	recs := types.RecordSet{
		UserID: "u1",
		Accounts: []types.Account{
			{ID: "a1", Type: types.AccountTypeCredit, CurrentBalance: -50, CreditLimit: fptr(1000)},
		},
	}
	e := NewExtractor()
	signals := e.creditSignals(recs, Window30d)
	assert.Equal(t, 0.0, *findSignal(t, signals, TypeCreditUtilizationMax).Value)
}

func TestUtilizationFlagsMonotonic(t *testing.T) {
	recs := types.RecordSet{
		UserID: "u1",
		Accounts: []types.Account{
			{ID: "a1", Type: types.AccountTypeCredit, CurrentBalance: 850, CreditLimit: fptr(1000)},
		},
	}
	e := NewExtractor()
	signals := e.creditSignals(recs, Window30d)
	if *findSignal(t, signals, TypeCreditUtilizationFlag80).Value == 1.0 {
		assert.Equal(t, 1.0, *findSignal(t, signals, TypeCreditUtilizationFlag50).Value)
		assert.Equal(t, 1.0, *findSignal(t, signals, TypeCreditUtilizationFlag30).Value)
	}
}

func TestExtractEmptyUserYieldsNoSignals(t *testing.T) {
	e := NewExtractor()
	signals := e.Extract(types.RecordSet{UserID: "ghost"}, Window30d, time.Now())
	assert.Empty(t, signals)
}
