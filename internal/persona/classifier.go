package persona

import (
	"fmt"
	"strings"

	"fincoach/internal/signal"
)

// Classifier assigns exactly one persona from a signal set. Predicates are
// evaluated in a fixed priority order and the first match wins; there is no
// scoring or blending. Classification is a total deterministic function:
// the same signal set always yields the same persona and criteria string.
type Classifier struct {
	rules []rule
}

type rule struct {
	persona Persona
	match   func(signal.Set) (bool, string)
}

// NewClassifier builds the classifier with the standard priority chain.
func NewClassifier() *Classifier {
	return &Classifier{rules: []rule{
		{HighUtilization, matchHighUtilization},
		{SubscriptionHeavy, matchSubscriptionHeavy},
		{VariableIncome, matchVariableIncome},
		{SavingsBuilder, matchSavingsBuilder},
		{FinancialNewcomer, matchFinancialNewcomer},
	}}
}

// Classify returns the winning persona and a human-readable criteria string
// citing the specific values that satisfied the predicate.
func (c *Classifier) Classify(set signal.Set) (Persona, string) {
	if c == nil {
		return Neutral, neutralCriteria
	}
	for _, r := range c.rules {
		if ok, criteria := r.match(set); ok {
			return r.persona, criteria
		}
	}
	return Neutral, neutralCriteria
}

const neutralCriteria = "no behavioral pattern stood out in the available account and transaction data"

// High utilization matches on any one trigger: max utilization at or above
// 50%, positive estimated interest charges, or an overdue card.
func matchHighUtilization(set signal.Set) (bool, string) {
	maxUtil, hasUtil := set.Value(signal.TypeCreditUtilizationMax)
	interest, hasInterest := set.Value(signal.TypeCreditMonthlyInterest)
	overdue := set.Flag(signal.TypeCreditOverdue)

	triggered := (hasUtil && maxUtil >= 50) || (hasInterest && interest > 0) || overdue
	if !triggered {
		return false, ""
	}

	var parts []string
	if meta, ok := set.Meta(signal.TypeCreditUtilizationMax).(signal.CreditCardMeta); ok && len(meta.Cards) > 0 {
		worst := meta.Cards[0]
		for _, card := range meta.Cards[1:] {
			if card.Utilization > worst.Utilization {
				worst = card
			}
		}
		parts = append(parts, fmt.Sprintf("%s carries a $%.2f balance against a $%.2f limit (%.1f%% utilization)",
			cardLabel(worst), worst.Balance, worst.Limit, worst.Utilization))
	} else if hasUtil {
		parts = append(parts, fmt.Sprintf("maximum card utilization is %.1f%%", maxUtil))
	}
	if hasInterest && interest > 0 {
		parts = append(parts, fmt.Sprintf("estimated interest charges of $%.2f per month", interest))
	}
	if overdue {
		parts = append(parts, "at least one card is past due")
	}
	if len(parts) == 0 {
		// Detailed metadata unavailable; fall back to a generic phrase.
		parts = append(parts, "credit card balances are high relative to their limits")
	}
	return true, strings.Join(parts, "; ")
}

func cardLabel(card signal.CardUtilization) string {
	if name := strings.TrimSpace(card.Name); name != "" {
		return name
	}
	return "a credit card"
}

// Subscription heavy requires the count mandatorily and either the spend or
// the share trigger.
func matchSubscriptionHeavy(set signal.Set) (bool, string) {
	count, hasCount := set.Value(signal.TypeSubscriptionCount)
	spend, hasSpend := set.Value(signal.TypeSubscriptionMonthlySpend)
	share, hasShare := set.Value(signal.TypeSubscriptionShare)

	if !hasCount || count < 3 {
		return false, ""
	}
	if !((hasSpend && spend >= 50) || (hasShare && share >= 10)) {
		return false, ""
	}

	criteria := fmt.Sprintf("%d active subscriptions totaling $%.2f per month", int(count), spend)
	if meta, ok := set.Meta(signal.TypeSubscriptionCount).(signal.SubscriptionMeta); ok && len(meta.Merchants) > 0 {
		criteria += " (" + strings.Join(meta.MerchantNames(), ", ") + ")"
	}
	if hasShare && share >= 10 {
		criteria += fmt.Sprintf(", %.1f%% of recent spending", share)
	}
	return true, criteria
}

func matchVariableIncome(set signal.Set) (bool, string) {
	deposits, hasDeposits := set.Value(signal.TypeIncomeDepositCount)
	meta, hasMeta := set.Meta(signal.TypeIncomeMonthlyEstimate).(signal.IncomeMeta)
	if !hasDeposits || !hasMeta || meta.Cadence != signal.CadenceIrregular {
		return false, ""
	}
	return true, fmt.Sprintf("%d deposits from %s arrive on an irregular schedule (typical deposit $%.2f)",
		int(deposits), meta.Source, meta.TypicalDeposit)
}

func matchSavingsBuilder(set signal.Set) (bool, string) {
	inflow, hasInflow := set.Value(signal.TypeSavingsNetInflow)
	rate, hasRate := set.Value(signal.TypeSavingsRate)
	balance, _ := set.Value(signal.TypeSavingsBalance)

	switch {
	case hasRate && rate >= 10:
		return true, fmt.Sprintf("%.1f%% of estimated income is flowing into savings ($%.2f this window, $%.2f saved)",
			rate, inflow, balance)
	case hasInflow && inflow > 0 && !hasRate:
		return true, fmt.Sprintf("savings balances grew by $%.2f this window to $%.2f", inflow, balance)
	default:
		return false, ""
	}
}

// Financial newcomer: a thin file with no credit history. The overdue signal
// is emitted for every credit account, limit or not, so its presence is the
// credit-history marker here.
func matchFinancialNewcomer(set signal.Set) (bool, string) {
	accounts, hasAccounts := set.Value(signal.TypeAccountCount)
	txns, _ := set.Value(signal.TypeTransactionCount)
	_, hasCredit := set.Value(signal.TypeCreditOverdue)

	if !hasAccounts || accounts < 1 || accounts > 2 || txns >= 10 || hasCredit {
		return false, ""
	}
	return true, fmt.Sprintf("only %d account(s) and %d transaction(s) on record, with no credit history",
		int(accounts), int(txns))
}
