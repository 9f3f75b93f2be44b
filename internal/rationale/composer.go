package rationale

import (
	"fmt"
	"strings"

	"fincoach/internal/content"
	"fincoach/internal/persona"
	"fincoach/internal/signal"
)

// Disclaimer is appended to every rationale exactly once.
const Disclaimer = "This is educational content, not financial advice."

// Composer renders the user-facing explanation for one selected item. The
// text cites concrete figures from the signal set so a reader can see the
// data behind the recommendation.
type Composer struct{}

func NewComposer() *Composer { return &Composer{} }

// Compose builds the rationale paragraph for an item and appends the
// disclaimer if the text does not already carry it.
func (c *Composer) Compose(item content.Item, p persona.Persona, sigs signal.Set) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q was selected for you. ", item.Title)
	b.WriteString(c.personaDetail(p, sigs))
	text := strings.TrimSpace(b.String())
	if !strings.Contains(text, Disclaimer) {
		text = text + " " + Disclaimer
	}
	return text
}

func (c *Composer) personaDetail(p persona.Persona, sigs signal.Set) string {
	switch p {
	case persona.HighUtilization:
		return highUtilizationDetail(sigs)
	case persona.SubscriptionHeavy:
		return subscriptionDetail(sigs)
	case persona.VariableIncome:
		return variableIncomeDetail(sigs)
	case persona.SavingsBuilder:
		return savingsDetail(sigs)
	case persona.FinancialNewcomer:
		return newcomerDetail(sigs)
	default:
		return "We do not yet have enough account activity to point to specific figures, so this item covers general good practice."
	}
}

func highUtilizationDetail(sigs signal.Set) string {
	maxUtil, _ := sigs.Value(signal.TypeCreditUtilizationMax)
	var b strings.Builder
	fmt.Fprintf(&b, "Your highest credit card utilization is %.1f%%.", maxUtil)
	if meta, ok := sigs.Meta(signal.TypeCreditUtilizationMax).(signal.CreditCardMeta); ok && len(meta.Cards) > 0 {
		worst := meta.Cards[0]
		for _, card := range meta.Cards[1:] {
			if card.Utilization > worst.Utilization {
				worst = card
			}
		}
		fmt.Fprintf(&b, " On %s you are carrying $%.2f of a $%.2f limit.", worst.Name, worst.Balance, worst.Limit)
	}
	if interest, ok := sigs.Value(signal.TypeCreditMonthlyInterest); ok && interest > 0 {
		fmt.Fprintf(&b, " At current rates that costs roughly $%.2f in interest per month.", interest)
	}
	if sigs.Flag(signal.TypeCreditOverdue) {
		b.WriteString(" At least one card is currently past due.")
	}
	return b.String()
}

func subscriptionDetail(sigs signal.Set) string {
	count, _ := sigs.Value(signal.TypeSubscriptionCount)
	spend, _ := sigs.Value(signal.TypeSubscriptionMonthlySpend)
	var b strings.Builder
	fmt.Fprintf(&b, "We detected %d recurring subscriptions totaling about $%.2f per month", int(count), spend)
	if meta, ok := sigs.Meta(signal.TypeSubscriptionCount).(signal.SubscriptionMeta); ok && len(meta.Merchants) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(meta.MerchantNames(), ", "))
	}
	b.WriteString(".")
	if share, ok := sigs.Value(signal.TypeSubscriptionShare); ok && share > 0 {
		fmt.Fprintf(&b, " That is %.1f%% of your spending over the last 30 days.", share)
	}
	return b.String()
}

func variableIncomeDetail(sigs signal.Set) string {
	var b strings.Builder
	if meta, ok := sigs.Meta(signal.TypeIncomeMonthlyEstimate).(signal.IncomeMeta); ok {
		fmt.Fprintf(&b, "Your deposits from %s arrive on an %s schedule", meta.Source, meta.Cadence)
		if meta.TypicalDeposit > 0 {
			fmt.Fprintf(&b, ", typically around $%.2f", meta.TypicalDeposit)
		}
		b.WriteString(".")
	} else {
		b.WriteString("Your income deposits do not follow a regular schedule.")
	}
	if est, ok := sigs.Value(signal.TypeIncomeMonthlyEstimate); ok && est > 0 {
		fmt.Fprintf(&b, " We estimate about $%.2f of income per month.", est)
	}
	return b.String()
}

func savingsDetail(sigs signal.Set) string {
	var b strings.Builder
	if balance, ok := sigs.Value(signal.TypeSavingsBalance); ok {
		fmt.Fprintf(&b, "You hold $%.2f across your savings accounts.", balance)
	}
	if inflow, ok := sigs.Value(signal.TypeSavingsNetInflow); ok && inflow > 0 {
		fmt.Fprintf(&b, " Over the recent window you added a net $%.2f.", inflow)
	}
	if rate, ok := sigs.Value(signal.TypeSavingsRate); ok {
		fmt.Fprintf(&b, " That works out to saving %.1f%% of your estimated income.", rate)
	}
	if b.Len() == 0 {
		return "You are building savings, though we could not compute exact figures from the available records."
	}
	return strings.TrimSpace(b.String())
}

func newcomerDetail(sigs signal.Set) string {
	accounts, _ := sigs.Value(signal.TypeAccountCount)
	txns, _ := sigs.Value(signal.TypeTransactionCount)
	return fmt.Sprintf("Your profile shows %d linked accounts and %d recent transactions, which suggests you are just getting started.",
		int(accounts), int(txns))
}
