package rationale

import (
	"fmt"

	"fincoach/internal/content"
	"fincoach/internal/persona"
	"fincoach/internal/signal"
	"fincoach/internal/types"
)

// TraceBuilder emits the fixed 4-step audit trace for one recommendation:
// signal detected, persona assigned, recommendation selected, rationale
// generated. Always all four, in order.
type TraceBuilder struct{}

func NewTraceBuilder() *TraceBuilder { return &TraceBuilder{} }

// Build returns the four trace steps. RecommendationID is filled by the
// store when the recommendation is persisted.
func (t *TraceBuilder) Build(item content.Item, assignment persona.Assignment, sigs signal.Set, rationaleText string) []types.TraceStep {
	sigType, sigCited := triggerSignal(assignment.Persona, sigs)
	return []types.TraceStep{
		{
			Step:      1,
			Reasoning: fmt.Sprintf("Detected %s signals over the %s window.", sigType, sigs.Window),
			DataCited: sigCited,
		},
		{
			Step:      2,
			Reasoning: assignment.Criteria,
			DataCited: map[string]any{
				"persona":  string(assignment.Persona),
				"criteria": assignment.Criteria,
			},
		},
		{
			Step:      3,
			Reasoning: fmt.Sprintf("Selected %q for persona %s: %s.", item.Title, assignment.Persona, item.Reason),
			DataCited: map[string]any{
				"title":            item.Title,
				"persona":          string(assignment.Persona),
				"selection_reason": item.Reason,
			},
		},
		{
			Step:      4,
			Reasoning: "Composed rationale citing the figures below.",
			DataCited: rationaleCitations(assignment.Persona, sigs, rationaleText),
		},
	}
}

// triggerSignal names the signal category that drove the persona decision
// and cites its concrete values.
func triggerSignal(p persona.Persona, sigs signal.Set) (string, map[string]any) {
	cited := make(map[string]any)
	switch p {
	case persona.HighUtilization:
		citeValue(cited, sigs, signal.TypeCreditUtilizationMax)
		citeValue(cited, sigs, signal.TypeCreditMonthlyInterest)
		citeValue(cited, sigs, signal.TypeCreditOverdue)
		return "credit utilization", cited
	case persona.SubscriptionHeavy:
		citeValue(cited, sigs, signal.TypeSubscriptionCount)
		citeValue(cited, sigs, signal.TypeSubscriptionMonthlySpend)
		citeValue(cited, sigs, signal.TypeSubscriptionShare)
		if meta, ok := sigs.Meta(signal.TypeSubscriptionCount).(signal.SubscriptionMeta); ok {
			cited["merchants"] = meta.MerchantNames()
		}
		return "recurring subscription", cited
	case persona.VariableIncome:
		citeValue(cited, sigs, signal.TypeIncomeMonthlyEstimate)
		citeValue(cited, sigs, signal.TypeIncomeDepositCount)
		if meta, ok := sigs.Meta(signal.TypeIncomeMonthlyEstimate).(signal.IncomeMeta); ok {
			cited["cadence"] = meta.Cadence
		}
		return "income cadence", cited
	case persona.SavingsBuilder:
		citeValue(cited, sigs, signal.TypeSavingsBalance)
		citeValue(cited, sigs, signal.TypeSavingsNetInflow)
		citeValue(cited, sigs, signal.TypeSavingsRate)
		return "savings activity", cited
	case persona.FinancialNewcomer:
		citeValue(cited, sigs, signal.TypeAccountCount)
		citeValue(cited, sigs, signal.TypeTransactionCount)
		return "account profile", cited
	default:
		cited["signal_count"] = sigs.Len()
		return "baseline profile", cited
	}
}

// rationaleCitations records the exact figures the rationale text drew on.
func rationaleCitations(p persona.Persona, sigs signal.Set, rationaleText string) map[string]any {
	cited := make(map[string]any)
	switch p {
	case persona.HighUtilization:
		citeValue(cited, sigs, signal.TypeCreditUtilizationMax)
		citeValue(cited, sigs, signal.TypeCreditMonthlyInterest)
		if meta, ok := sigs.Meta(signal.TypeCreditUtilizationMax).(signal.CreditCardMeta); ok && len(meta.Cards) > 0 {
			cards := make([]map[string]any, 0, len(meta.Cards))
			for _, card := range meta.Cards {
				cards = append(cards, map[string]any{
					"name":        card.Name,
					"balance":     card.Balance,
					"limit":       card.Limit,
					"utilization": card.Utilization,
				})
			}
			cited["cards"] = cards
		}
	case persona.SubscriptionHeavy:
		citeValue(cited, sigs, signal.TypeSubscriptionCount)
		citeValue(cited, sigs, signal.TypeSubscriptionMonthlySpend)
		if meta, ok := sigs.Meta(signal.TypeSubscriptionCount).(signal.SubscriptionMeta); ok {
			cited["merchants"] = meta.MerchantNames()
		}
	case persona.VariableIncome:
		citeValue(cited, sigs, signal.TypeIncomeMonthlyEstimate)
		if meta, ok := sigs.Meta(signal.TypeIncomeMonthlyEstimate).(signal.IncomeMeta); ok {
			cited["cadence"] = meta.Cadence
			cited["source"] = meta.Source
		}
	case persona.SavingsBuilder:
		citeValue(cited, sigs, signal.TypeSavingsBalance)
		citeValue(cited, sigs, signal.TypeSavingsNetInflow)
		citeValue(cited, sigs, signal.TypeSavingsRate)
	case persona.FinancialNewcomer:
		citeValue(cited, sigs, signal.TypeAccountCount)
		citeValue(cited, sigs, signal.TypeTransactionCount)
	}
	cited["disclaimer_present"] = true
	cited["rationale_length"] = len(rationaleText)
	return cited
}

func citeValue(dest map[string]any, sigs signal.Set, sigType string) {
	if v, ok := sigs.Value(sigType); ok {
		dest[sigType] = v
	}
}
