package chat

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

// Generator abstracts the language model call. A nil onToken runs the
// call without streaming; otherwise every fragment is delivered to
// onToken before the full text is returned.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, onToken func(string) error) (string, error)
}

// ModelGenerator is the genkit-backed Generator used in production.
type ModelGenerator struct {
	g           *genkit.Genkit
	model       string
	temperature float64
	retry       retryConfig
}

// NewModelGenerator binds a generator to a fully qualified model name.
func NewModelGenerator(g *genkit.Genkit, model string, temperature float64) *ModelGenerator {
	return &ModelGenerator{g: g, model: model, temperature: temperature, retry: defaultRetryConfig()}
}

// Generate implements Generator. Non-streaming calls are retried on
// transient errors; streaming calls are not, since a retry would
// replay fragments the client already received.
func (m *ModelGenerator) Generate(ctx context.Context, system, prompt string, onToken func(string) error) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(m.model),
		ai.WithSystem(system),
		ai.WithPrompt("%s", prompt),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(m.temperature)),
		}),
	}

	if onToken != nil {
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			return onToken(chunk.Text())
		}))
		resp, err := genkit.Generate(ctx, m.g, opts...)
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}
		return resp.Text(), nil
	}

	var resp *ai.ModelResponse
	err := withRetry(ctx, m.retry, func() error {
		var callErr error
		resp, callErr = genkit.Generate(ctx, m.g, opts...)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}
	return resp.Text(), nil
}
