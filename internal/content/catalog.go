package content

import (
	"fincoach/internal/persona"
	"fincoach/internal/signal"
)

// Descriptor is one catalog entry. AlwaysInclude entries are selected
// unconditionally; Condition entries are selected when the predicate holds
// over the user's signals; entries with neither serve as backfill.
type Descriptor struct {
	Title         string
	Body          string
	ProductKey    string
	AlwaysInclude bool
	Condition     func(signal.Set) bool
}

// Catalog maps each persona to its ordered content entries.
type Catalog struct {
	items map[persona.Persona][]Descriptor
}

// Items returns the catalog entries for a persona, in catalog order.
func (c *Catalog) Items(p persona.Persona) []Descriptor {
	if c == nil {
		return nil
	}
	return c.items[p]
}

// DefaultCatalog builds the built-in template catalog. Neutral carries only
// always-include entries so every user gets a non-empty result.
func DefaultCatalog() *Catalog {
	return &Catalog{items: map[persona.Persona][]Descriptor{
		persona.HighUtilization: {
			{
				Title:         "Understanding Credit Utilization",
				Body:          "Credit utilization is the share of your available credit you are currently using. Lenders generally view utilization under 30% more favorably, and paying balances down before the statement closes lowers the figure they see.",
				AlwaysInclude: true,
			},
			{
				Title: "Paying Down High-Interest Balances First",
				Body:  "When a card carries interest or is past due, payments beyond the minimum go furthest on the balance with the highest APR. Listing each balance with its rate makes the order obvious.",
				Condition: func(s signal.Set) bool {
					interest, _ := s.Value(signal.TypeCreditMonthlyInterest)
					return s.Flag(signal.TypeCreditOverdue) || interest > 0
				},
			},
			{
				Title: "Why Minimum Payments Stretch Out Debt",
				Body:  "Minimum payments mostly cover interest, so the balance shrinks slowly. Even a small fixed amount above the minimum shortens the payoff timeline considerably.",
				Condition: func(s signal.Set) bool {
					return s.Flag(signal.TypeCreditUtilizationFlag80)
				},
			},
			{
				Title:      "How Balance Transfers Work",
				Body:       "A balance transfer moves debt to a card with a lower promotional rate. Transfer fees and the rate after the promotional period determine whether the move actually saves money.",
				ProductKey: "balance_transfer_card",
				Condition: func(s signal.Set) bool {
					interest, _ := s.Value(signal.TypeCreditMonthlyInterest)
					return interest > 0
				},
			},
		},
		persona.SubscriptionHeavy: {
			{
				Title:         "Auditing Your Recurring Subscriptions",
				Body:          "Recurring charges are easy to lose track of. Reviewing the last three months of statements and listing every repeating merchant shows exactly what renews automatically and what it costs per month.",
				AlwaysInclude: true,
			},
			{
				Title: "Trimming Subscription Spend",
				Body:  "When subscriptions add up to a meaningful monthly amount, canceling the ones unused in the past month is the fastest cut. Annual plans for the keepers often cost less than month-to-month.",
				Condition: func(s signal.Set) bool {
					spend, _ := s.Value(signal.TypeSubscriptionMonthlySpend)
					return spend >= 75
				},
			},
			{
				Title: "Putting a Ceiling on Recurring Charges",
				Body:  "Deciding a fixed share of monthly spending for subscriptions turns renewals into a budgeting decision instead of a default. Anything over the ceiling has to displace something else.",
				Condition: func(s signal.Set) bool {
					share, _ := s.Value(signal.TypeSubscriptionShare)
					return share >= 10
				},
			},
		},
		persona.VariableIncome: {
			{
				Title:         "Budgeting on an Irregular Income",
				Body:          "With income that varies, budgeting from the lowest recent month rather than the average keeps essentials covered in lean stretches. Surplus months then build the buffer instead of raising the baseline.",
				AlwaysInclude: true,
			},
			{
				Title: "Building a Buffer for Lean Months",
				Body:  "A buffer of one to two months of essential expenses absorbs the gap between deposits. Funding it first from above-baseline months makes irregular income feel steadier.",
				Condition: func(s signal.Set) bool {
					deposits, _ := s.Value(signal.TypeIncomeDepositCount)
					return deposits >= 2
				},
			},
			{
				Title: "Separating Fixed from Flexible Expenses",
				Body:  "Knowing the fixed minimum a month must cover tells you exactly how much of each deposit is already spoken for. Everything above that line can flex with the income.",
			},
		},
		persona.SavingsBuilder: {
			{
				Title:         "Keeping Your Savings Momentum",
				Body:          "A regular transfer into savings, sized to happen right after income arrives, keeps the habit automatic. Reviewing the amount once a quarter catches room to increase it.",
				AlwaysInclude: true,
			},
			{
				Title:      "What High-Yield Savings Accounts Offer",
				Body:       "High-yield savings accounts pay noticeably more interest than standard ones while keeping the money accessible. Rate, fees and transfer limits are the points to compare.",
				ProductKey: "high_yield_savings",
				Condition: func(s signal.Set) bool {
					rate, ok := s.Value(signal.TypeSavingsRate)
					return ok && rate >= 10
				},
			},
			{
				Title: "Naming a Target for Your Savings",
				Body:  "Savings with a named target and amount are easier to protect from everyday spending. An emergency fund of three months of essentials is a common first target.",
			},
		},
		persona.FinancialNewcomer: {
			{
				Title:         "Getting Started with a Simple Budget",
				Body:          "A first budget only needs three buckets: essentials, savings and everything else. Tracking one month of spending against those buckets shows where the money actually goes.",
				AlwaysInclude: true,
			},
			{
				Title:      "Opening Your First Savings Account",
				Body:       "A separate savings account keeps money set aside from everyday spending. Even small regular deposits establish the habit that matters more than the starting amount.",
				ProductKey: "starter_savings",
			},
			{
				Title:      "Credit Basics: Building a History",
				Body:       "A credit history is built by borrowing small amounts and repaying on time. A secured card or credit-builder product is a common low-risk starting point.",
				ProductKey: "starter_credit_card",
			},
		},
		persona.Neutral: {
			{
				Title:         "A Quick Financial Health Checklist",
				Body:          "A periodic check covers four things: spending versus income, progress on savings, any balances carrying interest, and upcoming large expenses. Fifteen minutes a month keeps surprises rare.",
				AlwaysInclude: true,
			},
			{
				Title:         "Understanding Your Spending Categories",
				Body:          "Grouping transactions into a handful of categories shows the shape of your spending. The categories that grow month over month are the ones worth a closer look.",
				AlwaysInclude: true,
			},
		},
	}}
}
