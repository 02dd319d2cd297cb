// Package chat orchestrates answer generation: classify the question,
// retrieve document context for informational queries, stream the
// model response as typed events, and record the exchange in
// conversation memory.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudshift-ai/migbot/internal/classify"
	"github.com/cloudshift-ai/migbot/internal/index"
	"github.com/cloudshift-ai/migbot/internal/memory"
)

// defaultPacing smooths client-side rendering between token events.
// Cosmetic only.
const defaultPacing = 15 * time.Millisecond

// Retriever is the retrieval surface the orchestrator consumes.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]index.Chunk, error)
}

// Service runs the per-request answer pipeline.
type Service struct {
	retriever Retriever
	memory    memory.Store
	gen       Generator
	pacing    time.Duration
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPacing overrides the delay between token emissions. Zero
// disables pacing; tests use this.
func WithPacing(d time.Duration) Option {
	return func(s *Service) { s.pacing = d }
}

// NewService wires the orchestrator.
func NewService(retriever Retriever, mem memory.Store, gen Generator, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		retriever: retriever,
		memory:    mem,
		gen:       gen,
		pacing:    defaultPacing,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stream answers a question, delivering events through emit. Exactly
// one terminal event is emitted: done on success, error on any
// retrieval or generation failure. Memory gains the exchange only
// after generation succeeds. The returned error reports emit failures
// (client gone), not pipeline failures.
func (s *Service) Stream(ctx context.Context, identity, question string, emit func(Event) error) error {
	system, prompt, err := s.prepare(ctx, identity, question)
	if err != nil {
		s.logger.Error("chat pipeline failed", "identity", identity, "error", err)
		return emit(errorEvent(err.Error()))
	}

	if err := emit(thinkingComplete()); err != nil {
		return err
	}

	var emitErr error
	full, err := s.gen.Generate(ctx, system, prompt, func(fragment string) error {
		if err := emit(tokenEvent(fragment)); err != nil {
			emitErr = err
			return err
		}
		return s.pace(ctx)
	})
	if err != nil {
		if emitErr != nil {
			return emitErr
		}
		s.logger.Error("generation failed", "identity", identity, "error", err)
		return emit(errorEvent(err.Error()))
	}

	s.remember(identity, question, full)
	return emit(doneEvent(full))
}

// Ask is the synchronous variant: same pipeline, no events, markdown
// stripped from the returned answer.
func (s *Service) Ask(ctx context.Context, identity, question string) (string, error) {
	system, prompt, err := s.prepare(ctx, identity, question)
	if err != nil {
		return "", err
	}

	full, err := s.gen.Generate(ctx, system, prompt, nil)
	if err != nil {
		return "", err
	}

	s.remember(identity, question, full)
	return StripMarkdown(full), nil
}

// prepare computes the system instruction and enhanced prompt for a
// question. Informational questions run retrieval; conversational
// ones carry only dialogue context.
func (s *Service) prepare(ctx context.Context, identity, question string) (system, prompt string, err error) {
	enhanced := s.memory.Context(identity) + question

	if classify.Classify(question) == classify.Conversational {
		return conversationalPrompt, enhanced, nil
	}

	chunks, err := s.retriever.Retrieve(ctx, enhanced)
	if err != nil {
		return "", "", fmt.Errorf("retrieving context: %w", err)
	}
	return specialistPrompt + formatContext(chunks), enhanced, nil
}

// remember records the exchange, user turn first. Raw model output is
// stored so later context keeps the original formatting.
func (s *Service) remember(identity, question, answer string) {
	s.memory.Append(identity, memory.RoleUser, question)
	s.memory.Append(identity, memory.RoleAssistant, answer)
}

func (s *Service) pace(ctx context.Context) error {
	if s.pacing <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.pacing):
		return nil
	}
}

// formatContext renders retrieved chunks as a numbered document block
// appended to the system instruction.
func formatContext(chunks []index.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nContext documents:\n\n")
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Document %d:\n%s", i+1, c.Text)
	}
	return sb.String()
}
