package signal

import (
	"github.com/shopspring/decimal"

	"fincoach/internal/types"
)

// Utilization flag thresholds, in percent. Ordering matters: flags are
// monotonic (80 set implies 50 and 30 set).
var utilizationFlagThresholds = []struct {
	Type    string
	Percent float64
}{
	{TypeCreditUtilizationFlag30, 30},
	{TypeCreditUtilizationFlag50, 50},
	{TypeCreditUtilizationFlag80, 80},
}

// creditSignals aggregates utilization, overdue state and estimated interest
// across the user's credit cards. Cards with a missing or zero limit are
// excluded from utilization math but still count toward overdue and interest.
func (e *Extractor) creditSignals(recs types.RecordSet, window Window) []Signal {
	cards := recs.CreditAccounts()
	if len(cards) == 0 {
		return nil
	}

	var (
		utilizations []CardUtilization
		anyOverdue   bool
		interest     = decimal.Zero
		aprKnown     bool
	)
	for _, card := range cards {
		if card.IsOverdue {
			anyOverdue = true
		}
		if card.APR != nil && card.CurrentBalance > 0 {
			monthly := decimal.NewFromFloat(card.CurrentBalance).
				Mul(decimal.NewFromFloat(*card.APR)).
				Div(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(12))
			interest = interest.Add(monthly)
			aprKnown = true
		}
		if card.CreditLimit == nil || *card.CreditLimit <= 0 {
			continue
		}
		util := card.CurrentBalance / *card.CreditLimit * 100
		if util < 0 {
			// Credit balance (the card is overpaid); clamp instead of
			// reporting negative utilization.
			util = 0
		}
		utilizations = append(utilizations, CardUtilization{
			AccountID:   card.ID,
			Name:        card.Name,
			Balance:     card.CurrentBalance,
			Limit:       *card.CreditLimit,
			Utilization: util,
			APR:         card.APR,
			Overdue:     card.IsOverdue,
		})
	}

	meta := CreditCardMeta{Cards: utilizations}
	var out []Signal

	if len(utilizations) > 0 {
		maxUtil, sum := utilizations[0].Utilization, 0.0
		for _, u := range utilizations {
			if u.Utilization > maxUtil {
				maxUtil = u.Utilization
			}
			sum += u.Utilization
		}
		avg := sum / float64(len(utilizations))

		out = append(out,
			Signal{UserID: recs.UserID, Type: TypeCreditUtilizationMax, Window: window, Value: Float(maxUtil), Meta: meta},
			Signal{UserID: recs.UserID, Type: TypeCreditUtilizationAvg, Window: window, Value: Float(avg), Meta: meta},
			Signal{UserID: recs.UserID, Type: TypeCreditCardCount, Window: window, Value: Float(float64(len(utilizations))), Meta: meta},
		)
		for _, th := range utilizationFlagThresholds {
			flag := 0.0
			if maxUtil >= th.Percent {
				flag = 1.0
			}
			out = append(out, Signal{UserID: recs.UserID, Type: th.Type, Window: window, Value: Float(flag), Meta: meta})
		}
	}

	overdueVal := 0.0
	if anyOverdue {
		overdueVal = 1.0
	}
	out = append(out, Signal{UserID: recs.UserID, Type: TypeCreditOverdue, Window: window, Value: Float(overdueVal), Meta: meta})

	if aprKnown {
		rounded, _ := interest.Round(2).Float64()
		out = append(out, Signal{UserID: recs.UserID, Type: TypeCreditMonthlyInterest, Window: window, Value: Float(rounded), Meta: meta})
	}
	return out
}
