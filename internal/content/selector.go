package content

import (
	"fincoach/internal/persona"
	"fincoach/internal/signal"
)

// Selection reasons recorded for the decision trace.
const (
	ReasonAlwaysInclude = "always included for persona"
	ReasonCondition     = "signal condition matched"
	ReasonBackfill      = "backfilled to reach minimum item count"
	ReasonGenerated     = "generated for persona"
)

// Item is one selected piece of content plus the reason it was picked.
type Item struct {
	Descriptor
	Reason string
}

// Selector picks 2-3 items from the persona's catalog.
type Selector struct {
	catalog  *Catalog
	minItems int
	maxItems int
}

// NewSelector builds a selector over the given catalog. Bounds outside the
// 2-3 contract are snapped back to it.
func NewSelector(catalog *Catalog, minItems, maxItems int) *Selector {
	if minItems <= 0 {
		minItems = 2
	}
	if maxItems < minItems {
		maxItems = 3
	}
	return &Selector{catalog: catalog, minItems: minItems, maxItems: maxItems}
}

// Select returns the persona's items in catalog order: always-include first
// pass, condition matches second, backfill until minItems, truncated at
// maxItems. Deterministic for a given catalog and signal set.
func (s *Selector) Select(p persona.Persona, sigs signal.Set) []Item {
	entries := s.catalog.Items(p)
	if len(entries) == 0 {
		entries = s.catalog.Items(persona.Neutral)
	}
	picked := make([]Item, 0, len(entries))
	taken := make([]bool, len(entries))

	for i, d := range entries {
		if d.AlwaysInclude {
			picked = append(picked, Item{Descriptor: d, Reason: ReasonAlwaysInclude})
			taken[i] = true
		}
	}
	for i, d := range entries {
		if taken[i] || d.Condition == nil {
			continue
		}
		if d.Condition(sigs) {
			picked = append(picked, Item{Descriptor: d, Reason: ReasonCondition})
			taken[i] = true
		}
	}
	for i, d := range entries {
		if len(picked) >= s.minItems {
			break
		}
		if taken[i] {
			continue
		}
		picked = append(picked, Item{Descriptor: d, Reason: ReasonBackfill})
		taken[i] = true
	}
	if len(picked) > s.maxItems {
		picked = picked[:s.maxItems]
	}
	return picked
}
