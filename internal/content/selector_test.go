package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincoach/internal/persona"
	"fincoach/internal/signal"
)

func sigSet(signals ...signal.Signal) signal.Set {
	return signal.NewSet("u1", signal.Window30d, signals)
}

func valueSig(sigType string, v float64) signal.Signal {
	return signal.Signal{UserID: "u1", Type: sigType, Window: signal.Window30d, Value: signal.Float(v)}
}

func titles(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestSelectNeutralReturnsBothAlwaysInclude(t *testing.T) {
	s := NewSelector(DefaultCatalog(), 2, 3)
	items := s.Select(persona.Neutral, sigSet())
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, ReasonAlwaysInclude, it.Reason)
	}
}

func TestSelectHighUtilizationAllConditionsTruncatesToMax(t *testing.T) {
	s := NewSelector(DefaultCatalog(), 2, 3)
	set := sigSet(
		valueSig(signal.TypeCreditUtilizationMax, 92),
		valueSig(signal.TypeCreditUtilizationFlag80, 1),
		valueSig(signal.TypeCreditMonthlyInterest, 40),
		valueSig(signal.TypeCreditOverdue, 1),
	)
	items := s.Select(persona.HighUtilization, set)
	require.Len(t, items, 3)
	assert.Equal(t, "Understanding Credit Utilization", items[0].Title)
	assert.Equal(t, ReasonAlwaysInclude, items[0].Reason)
	assert.Equal(t, ReasonCondition, items[1].Reason)
	assert.Equal(t, ReasonCondition, items[2].Reason)
}

func TestSelectBackfillsToMinimum(t *testing.T) {
	s := NewSelector(DefaultCatalog(), 2, 3)
	// No signals, so no condition fires and the second slot is backfilled.
	items := s.Select(persona.HighUtilization, sigSet())
	require.Len(t, items, 2)
	assert.Equal(t, ReasonAlwaysInclude, items[0].Reason)
	assert.Equal(t, ReasonBackfill, items[1].Reason)
	assert.Equal(t, "Paying Down High-Interest Balances First", items[1].Title)
}

func TestSelectUnknownPersonaFallsBackToNeutral(t *testing.T) {
	s := NewSelector(DefaultCatalog(), 2, 3)
	items := s.Select(persona.Persona("mystery"), sigSet())
	require.Len(t, items, 2)
	assert.Contains(t, titles(items), "A Quick Financial Health Checklist")
}

func TestSelectIsDeterministic(t *testing.T) {
	s := NewSelector(DefaultCatalog(), 2, 3)
	set := sigSet(valueSig(signal.TypeSubscriptionMonthlySpend, 120), valueSig(signal.TypeSubscriptionShare, 15))
	first := titles(s.Select(persona.SubscriptionHeavy, set))
	second := titles(s.Select(persona.SubscriptionHeavy, set))
	assert.Equal(t, first, second)
}

func TestNewSelectorSnapsInvalidBounds(t *testing.T) {
	s := NewSelector(DefaultCatalog(), 0, -1)
	items := s.Select(persona.Neutral, sigSet())
	assert.Len(t, items, 2)
}

func TestDefaultCatalogEveryPersonaCanReachMinimum(t *testing.T) {
	c := DefaultCatalog()
	s := NewSelector(c, 2, 3)
	for _, p := range persona.All() {
		items := s.Select(p, sigSet())
		assert.GreaterOrEqual(t, len(items), 2, "persona %s", p)
		assert.LessOrEqual(t, len(items), 3, "persona %s", p)
	}
}
