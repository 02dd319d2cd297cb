package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const rephraseSystem = `You rewrite search queries. Given a user question, produce 2 to 3 alternative phrasings that preserve its meaning but use different wording. Output one phrasing per line with no numbering, bullets, or commentary.`

// LLMRephraser asks the generation model for alternative phrasings of
// a query.
type LLMRephraser struct {
	g     *genkit.Genkit
	model string
}

// NewLLMRephraser creates a rephraser bound to a model name.
func NewLLMRephraser(g *genkit.Genkit, model string) *LLMRephraser {
	return &LLMRephraser{g: g, model: model}
}

// Rephrase implements Rephraser.
func (r *LLMRephraser) Rephrase(ctx context.Context, query string) ([]string, error) {
	resp, err := genkit.Generate(ctx, r.g,
		ai.WithModelName(r.model),
		ai.WithSystem(rephraseSystem),
		ai.WithPrompt("Rephrase this query:\n%s", query),
	)
	if err != nil {
		return nil, fmt.Errorf("generating rephrasings: %w", err)
	}
	return parsePhrasings(resp.Text()), nil
}

// parsePhrasings extracts phrasings from model output, tolerating the
// numbering and bullets models add despite instructions.
func parsePhrasings(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
