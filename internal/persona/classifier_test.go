package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincoach/internal/signal"
)

func sigSet(signals ...signal.Signal) signal.Set {
	return signal.NewSet("u1", signal.Window30d, signals)
}

func valueSig(sigType string, v float64, meta signal.Metadata) signal.Signal {
	return signal.Signal{UserID: "u1", Type: sigType, Window: signal.Window30d, Value: signal.Float(v), Meta: meta}
}

func highUtilSignals() []signal.Signal {
	meta := signal.CreditCardMeta{Cards: []signal.CardUtilization{
		{AccountID: "a1", Name: "Everyday Card", Balance: 3750, Limit: 5000, Utilization: 75},
	}}
	return []signal.Signal{
		valueSig(signal.TypeCreditUtilizationMax, 75, meta),
		valueSig(signal.TypeCreditMonthlyInterest, 68.75, meta),
		valueSig(signal.TypeCreditOverdue, 0, meta),
	}
}

func subscriptionSignals() []signal.Signal {
	meta := signal.SubscriptionMeta{Merchants: []signal.SubscriptionGroup{
		{Merchant: "Netflix", Occurrences: 3, MonthlyAmount: 15.99},
		{Merchant: "Spotify", Occurrences: 3, MonthlyAmount: 10.99},
		{Merchant: "PeakFit Gym", Occurrences: 3, MonthlyAmount: 34.99},
	}}
	return []signal.Signal{
		valueSig(signal.TypeSubscriptionCount, 3, meta),
		valueSig(signal.TypeSubscriptionMonthlySpend, 61.97, meta),
		valueSig(signal.TypeSubscriptionShare, 12.4, meta),
	}
}

func TestClassifyHighUtilizationCitesWorstCard(t *testing.T) {
	c := NewClassifier()
	p, criteria := c.Classify(sigSet(highUtilSignals()...))
	assert.Equal(t, HighUtilization, p)
	assert.Contains(t, criteria, "Everyday Card")
	assert.Contains(t, criteria, "$3750.00")
	assert.Contains(t, criteria, "$5000.00")
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier()
	set := sigSet(append(highUtilSignals(), subscriptionSignals()...)...)
	p1, crit1 := c.Classify(set)
	p2, crit2 := c.Classify(set)
	assert.Equal(t, p1, p2)
	assert.Equal(t, crit1, crit2)
}

func TestClassifyPriorityHighUtilizationBeatsSubscriptions(t *testing.T) {
	c := NewClassifier()
	set := sigSet(append(highUtilSignals(), subscriptionSignals()...)...)
	p, _ := c.Classify(set)
	assert.Equal(t, HighUtilization, p)
}

func TestClassifySubscriptionHeavy(t *testing.T) {
	c := NewClassifier()
	p, criteria := c.Classify(sigSet(subscriptionSignals()...))
	assert.Equal(t, SubscriptionHeavy, p)
	assert.Contains(t, criteria, "Netflix")
	assert.Contains(t, criteria, "3 active subscriptions")
}

func TestClassifySubscriptionCountAloneInsufficient(t *testing.T) {
	c := NewClassifier()
	set := sigSet(
		valueSig(signal.TypeSubscriptionCount, 3, nil),
		valueSig(signal.TypeSubscriptionMonthlySpend, 20, nil),
		valueSig(signal.TypeSubscriptionShare, 4, nil),
	)
	p, _ := c.Classify(set)
	assert.NotEqual(t, SubscriptionHeavy, p)
}

func TestClassifyVariableIncome(t *testing.T) {
	c := NewClassifier()
	meta := signal.IncomeMeta{Cadence: signal.CadenceIrregular, TypicalDeposit: 900, DepositCount: 3, Source: "Gig Platform"}
	set := sigSet(
		valueSig(signal.TypeIncomeMonthlyEstimate, 1800, meta),
		valueSig(signal.TypeIncomeDepositCount, 3, meta),
	)
	p, criteria := c.Classify(set)
	assert.Equal(t, VariableIncome, p)
	assert.Contains(t, criteria, "irregular")
	assert.Contains(t, criteria, "Gig Platform")
}

func TestClassifySavingsBuilderByRate(t *testing.T) {
	c := NewClassifier()
	set := sigSet(
		valueSig(signal.TypeSavingsBalance, 5200, nil),
		valueSig(signal.TypeSavingsNetInflow, 600, nil),
		valueSig(signal.TypeSavingsRate, 20, nil),
	)
	p, criteria := c.Classify(set)
	assert.Equal(t, SavingsBuilder, p)
	assert.Contains(t, criteria, "20.0%")
}

func TestClassifyFinancialNewcomer(t *testing.T) {
	c := NewClassifier()
	set := sigSet(
		valueSig(signal.TypeAccountCount, 1, nil),
		valueSig(signal.TypeTransactionCount, 3, nil),
	)
	p, criteria := c.Classify(set)
	assert.Equal(t, FinancialNewcomer, p)
	assert.Contains(t, criteria, "no credit history")
}

func TestClassifyCardWithoutLimitIsNotNewcomer(t *testing.T) {
	// A credit card with no reported limit produces no utilization or count
	// signals, only the overdue marker. That marker alone is credit history.
	c := NewClassifier()
	set := sigSet(
		valueSig(signal.TypeAccountCount, 1, nil),
		valueSig(signal.TypeTransactionCount, 3, nil),
		valueSig(signal.TypeCreditOverdue, 0, nil),
	)
	p, _ := c.Classify(set)
	assert.NotEqual(t, FinancialNewcomer, p)
	assert.Equal(t, Neutral, p)
}

func TestClassifyEmptySetIsNeutral(t *testing.T) {
	c := NewClassifier()
	p, criteria := c.Classify(sigSet())
	assert.Equal(t, Neutral, p)
	require.NotEmpty(t, criteria)
}

func TestAllPersonasEndWithNeutral(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	assert.Equal(t, Neutral, all[len(all)-1])
	for _, p := range all {
		assert.True(t, Valid(p))
	}
	assert.False(t, Valid(Persona("mystery")))
}
