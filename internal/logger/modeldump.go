package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Model exchange dumps carry full prompts and raw outputs, so they stay off
// unless both a writer and the payload toggle are set.
var modelDump struct {
	sync.Mutex
	out     *log.Logger
	enabled bool
}

// SetModelWriter directs generative-model exchange dumps to w. Nil disables.
func SetModelWriter(w io.Writer) {
	modelDump.Lock()
	defer modelDump.Unlock()
	if w == nil {
		modelDump.out = nil
		return
	}
	modelDump.out = log.New(w, "", log.LstdFlags)
}

// EnableModelPayloadDump toggles dumping of full prompts and raw outputs.
func EnableModelPayloadDump(enabled bool) {
	modelDump.Lock()
	modelDump.enabled = enabled
	modelDump.Unlock()
}

// ModelRequest records the prompts sent to a generative provider.
func ModelRequest(provider, purpose, system, user string) {
	writeModelDump(provider, purpose, "SYSTEM", system, "USER", user)
}

// ModelResponse records the raw output returned by a generative provider.
func ModelResponse(provider, purpose, raw string) {
	writeModelDump(provider, purpose, "OUTPUT", raw)
}

// writeModelDump takes title/body pairs and renders one labeled block per
// pair under a single [MODEL] header.
func writeModelDump(provider, purpose string, pairs ...string) {
	modelDump.Lock()
	out, enabled := modelDump.out, modelDump.enabled
	modelDump.Unlock()
	if out == nil || !enabled {
		return
	}
	var b strings.Builder
	b.WriteString("[MODEL]")
	if provider != "" {
		fmt.Fprintf(&b, "[%s]", provider)
	}
	if purpose != "" {
		fmt.Fprintf(&b, "[%s]", purpose)
	}
	b.WriteString("\n")
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "--- %s ---\n%s\n", pairs[i], strings.TrimRight(pairs[i+1], "\n"))
	}
	out.Print(b.String())
}
