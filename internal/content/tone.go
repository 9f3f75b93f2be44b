package content

import (
	"context"
	"strings"

	"fincoach/internal/logger"
	"fincoach/internal/store/auditlog"
)

// prohibitedPhrases is the fixed tone policy list. Matching is
// case-insensitive substring; the list errs toward catching shaming or
// judgmental framing rather than precision.
var prohibitedPhrases = []string{
	"you should be ashamed",
	"shame on you",
	"irresponsible",
	"reckless spending",
	"bad with money",
	"wasting your money",
	"foolish",
	"lazy",
	"failure",
	"stupid",
	"your fault",
	"blame yourself",
	"out of control",
	"disgraceful",
}

// CheckTone returns the prohibited phrases found in text.
func CheckTone(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, phrase := range prohibitedPhrases {
		if strings.Contains(lower, phrase) {
			hits = append(hits, phrase)
		}
	}
	return hits
}

// ToneGate applies the tone policy. Template content logs and continues;
// generative content is rejected so the caller falls back to templates.
type ToneGate struct {
	audit auditlog.Sink
}

func NewToneGate(audit auditlog.Sink) *ToneGate {
	if audit == nil {
		audit = auditlog.NopSink{}
	}
	return &ToneGate{audit: audit}
}

// ReviewTemplate logs violations in template content and always passes it.
func (t *ToneGate) ReviewTemplate(ctx context.Context, userID string, item Item) {
	t.review(ctx, userID, item, "flagged")
}

// ReviewGenerative reports whether generated content passes. Violations are
// logged and the item is rejected.
func (t *ToneGate) ReviewGenerative(ctx context.Context, userID string, item Item) bool {
	return len(t.review(ctx, userID, item, "discarded")) == 0
}

func (t *ToneGate) review(ctx context.Context, userID string, item Item, decision string) []string {
	hits := CheckTone(item.Title + " " + item.Body)
	for _, phrase := range hits {
		logger.Warnf("tone policy hit for user %s in %q: %q", userID, item.Title, phrase)
		err := t.audit.Append(ctx, auditlog.Entry{
			UserID:   userID,
			Stage:    auditlog.StageTone,
			Subject:  item.Title,
			Decision: decision,
			Reason:   "prohibited phrase: " + phrase,
		})
		if err != nil {
			logger.Warnf("audit append failed for user %s: %v", userID, err)
		}
	}
	return hits
}
