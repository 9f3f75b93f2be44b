package rationale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincoach/internal/persona"
	"fincoach/internal/signal"
	"fincoach/internal/types"
)

func TestBuildEmitsFourOrderedSteps(t *testing.T) {
	set := highUtilSet()
	assignment := persona.Assignment{
		UserID:   "u1",
		Persona:  persona.HighUtilization,
		Criteria: "Everyday Card carries a $3750.00 balance against a $5000.00 limit (75.0% utilization)",
	}
	item := testItem("Understanding Credit Utilization")
	rationaleText := NewComposer().Compose(item, assignment.Persona, set)

	steps := NewTraceBuilder().Build(item, assignment, set, rationaleText)
	require.Len(t, steps, types.TraceStepCount)
	for i, step := range steps {
		assert.Equal(t, i+1, step.Step)
		assert.NotEmpty(t, step.Reasoning)
		assert.NotEmpty(t, step.DataCited)
	}
}

func TestBuildStepOneCitesTriggerSignals(t *testing.T) {
	steps := NewTraceBuilder().Build(testItem("x"), persona.Assignment{Persona: persona.HighUtilization, Criteria: "c"}, highUtilSet(), "r")
	first := steps[0]
	assert.Contains(t, first.Reasoning, "credit utilization")
	assert.Contains(t, first.Reasoning, "30d window")
	assert.Equal(t, 75.0, first.DataCited[signal.TypeCreditUtilizationMax])
	assert.Equal(t, 68.75, first.DataCited[signal.TypeCreditMonthlyInterest])
}

func TestBuildStepTwoCarriesAssignmentCriteria(t *testing.T) {
	assignment := persona.Assignment{Persona: persona.Neutral, Criteria: "no behavioral pattern stood out in the available account and transaction data"}
	steps := NewTraceBuilder().Build(testItem("x"), assignment, sigSet(), "r")
	assert.Equal(t, assignment.Criteria, steps[1].Reasoning)
	assert.Equal(t, string(persona.Neutral), steps[1].DataCited["persona"])
	assert.Equal(t, assignment.Criteria, steps[1].DataCited["criteria"])
}

func TestBuildStepThreeCitesSelection(t *testing.T) {
	item := testItem("A Quick Financial Health Checklist")
	steps := NewTraceBuilder().Build(item, persona.Assignment{Persona: persona.Neutral, Criteria: "c"}, sigSet(), "r")
	third := steps[2]
	assert.Contains(t, third.Reasoning, item.Title)
	assert.Equal(t, item.Title, third.DataCited["title"])
	assert.Equal(t, item.Reason, third.DataCited["selection_reason"])
}

func TestBuildStepFourCitesRationaleFigures(t *testing.T) {
	set := highUtilSet()
	rationaleText := "text " + Disclaimer
	steps := NewTraceBuilder().Build(testItem("x"), persona.Assignment{Persona: persona.HighUtilization, Criteria: "c"}, set, rationaleText)
	fourth := steps[3]
	assert.Equal(t, true, fourth.DataCited["disclaimer_present"])
	assert.Equal(t, len(rationaleText), fourth.DataCited["rationale_length"])
	cards, ok := fourth.DataCited["cards"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, cards, 1)
	assert.Equal(t, "Everyday Card", cards[0]["name"])
}

func TestBuildNeutralCitesBaselineProfile(t *testing.T) {
	steps := NewTraceBuilder().Build(testItem("x"), persona.Assignment{Persona: persona.Neutral, Criteria: "c"}, sigSet(), "r")
	assert.Contains(t, steps[0].Reasoning, "baseline profile")
	assert.Equal(t, 0, steps[0].DataCited["signal_count"])
}
