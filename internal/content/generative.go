package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"fincoach/internal/logger"
	"fincoach/internal/persona"
	"fincoach/internal/provider"
	"fincoach/internal/signal"
)

// itemsSchema constrains the model output to 2-3 titled items.
const itemsSchema = `{
	"type": "array",
	"minItems": 2,
	"maxItems": 3,
	"items": {
		"type": "object",
		"required": ["title", "body"],
		"properties": {
			"title": {"type": "string", "minLength": 1, "maxLength": 120},
			"body": {"type": "string", "minLength": 1, "maxLength": 1200}
		}
	}
}`

const generativeSystemPrompt = `You write short educational personal-finance content. ` +
	`Respond with a JSON array of 2-3 objects, each with "title" and "body" string fields. ` +
	`Be factual and supportive, cite no specific products, and give no individualized financial advice.`

// Generator produces model-written content items as a substitute for the
// template catalog. Every failure path falls back to the templates the
// caller already holds; the fallback is never silent.
type Generator struct {
	provider provider.ModelProvider
	cache    *GeneratedCache
	tone     *ToneGate
	schema   *jsonschema.Schema
	now      func() time.Time
}

// NewGenerator wires the generative path. A nil provider yields a generator
// that always falls back.
func NewGenerator(p provider.ModelProvider, cache *GeneratedCache, tone *ToneGate) (*Generator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("items.json", strings.NewReader(itemsSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("items.json")
	if err != nil {
		return nil, err
	}
	return &Generator{
		provider: p,
		cache:    cache,
		tone:     tone,
		schema:   schema,
		now:      time.Now,
	}, nil
}

// Generate returns model-produced items for the persona, or templates when
// the generative path is unavailable or its output fails validation.
func (g *Generator) Generate(ctx context.Context, userID string, p persona.Persona, sigs signal.Set, templates []Item) []Item {
	if g == nil || g.provider == nil || !g.provider.Enabled() {
		return templates
	}
	now := g.now()
	if cached, ok := g.cache.Get(userID, p, now); ok {
		return cached
	}

	raw, err := g.provider.Call(ctx, generativeSystemPrompt, buildUserPrompt(p, sigs))
	if err != nil {
		logger.Warnf("generative call failed for user %s, using templates: %v", userID, err)
		return templates
	}
	items, err := g.parse(raw)
	if err != nil {
		logger.Warnf("generative output rejected for user %s, using templates: %v", userID, err)
		return templates
	}
	for _, item := range items {
		if !g.tone.ReviewGenerative(ctx, userID, item) {
			logger.Warnf("generative output failed tone policy for user %s, using templates", userID)
			return templates
		}
	}
	g.cache.Set(userID, p, items, now)
	return items
}

// InvalidateUser drops any cached generative content for the user.
func (g *Generator) InvalidateUser(userID string) {
	if g == nil {
		return
	}
	g.cache.Delete(userID)
}

// parse coerces the raw model output into the expected array shape and
// validates it against the item schema.
func (g *Generator) parse(raw string) ([]Item, error) {
	coerced, err := coerceItemsJSON(raw)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal([]byte(coerced), &doc); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := g.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	var decoded []struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.Unmarshal([]byte(coerced), &decoded); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(decoded))
	for _, d := range decoded {
		items = append(items, Item{
			Descriptor: Descriptor{Title: strings.TrimSpace(d.Title), Body: strings.TrimSpace(d.Body)},
			Reason:     ReasonGenerated,
		})
	}
	return items, nil
}

// coerceItemsJSON accepts the shapes models actually emit: a bare array, an
// object wrapping the array under "items", a single item object, or any of
// those inside a markdown code fence.
func coerceItemsJSON(raw string) (string, error) {
	raw = stripCodeFence(strings.TrimSpace(raw))
	if raw == "" {
		return "", fmt.Errorf("empty output")
	}
	if !gjson.Valid(raw) {
		return "", fmt.Errorf("invalid json")
	}
	parsed := gjson.Parse(raw)
	if parsed.IsArray() {
		return raw, nil
	}
	if !parsed.IsObject() {
		return "", fmt.Errorf("root must be a json array or object")
	}
	if items := parsed.Get("items"); items.Exists() {
		if !items.IsArray() {
			return "", fmt.Errorf("items must be an array")
		}
		return strings.TrimSpace(items.Raw), nil
	}
	if strings.TrimSpace(parsed.Get("title").String()) == "" {
		return "", fmt.Errorf("object output has neither items array nor title field")
	}
	return "[" + raw + "]", nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildUserPrompt(p persona.Persona, sigs signal.Set) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The reader's spending profile is %q.\n", string(p))
	if len(sigs.All()) > 0 {
		b.WriteString("Relevant figures:\n")
		for _, sig := range sigs.All() {
			if sig.Value == nil {
				continue
			}
			fmt.Fprintf(&b, "- %s: %.2f\n", sig.Type, *sig.Value)
		}
	}
	b.WriteString("Write 2-3 short educational items tailored to this profile.")
	return b.String()
}
