package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jacky-htg/warm-transfer/libs/interfaces"
	"github.com/jacky-htg/warm-transfer/libs/vendors/keyword"
)

// ErrEmptyTranscript is the request error for a blank transcript on the
// summary endpoint.
var ErrEmptyTranscript = errors.New("Transcript cannot be empty")

const instruction = "You summarize customer support calls for the agent who is taking over the call. " +
	"Write a concise summary of 3 to 5 sentences covering the customer's issue, what has been tried, " +
	"and what still needs to happen. Reply with the summary only."

const maxSummaryTokens = 300

// Summarizer turns call transcripts into short briefings.
type Summarizer struct {
	llm interfaces.LLM
	log *zap.Logger
}

// New returns a Summarizer. A nil llm means no hosted backend is available
// and every summary comes from the keyword heuristic.
func New(llm interfaces.LLM, log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Summarizer{llm: llm, log: log}
}

// Configured reports whether a text-generation backend is wired in.
func (s *Summarizer) Configured() bool { return s.llm != nil }

// Summarize returns a 3-5 sentence summary of transcript. Blank transcripts
// get the brief canned summary whatever the backend.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if s.llm == nil || strings.TrimSpace(transcript) == "" {
		return keyword.Summarize(transcript), nil
	}

	type result struct {
		text string
		err  error
	}
	// buffered so the goroutine can finish after the caller has gone
	done := make(chan result, 1)
	go func() {
		text, err := s.llm.Generate(ctx, transcript,
			interfaces.WithSystem(instruction),
			interfaces.WithMaxTokens(maxSummaryTokens),
			interfaces.WithTemperature(0.3))
		done <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("generate summary: %w", r.err)
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			s.log.Warn("empty completion, using keyword summary")
			return keyword.Summarize(transcript), nil
		}
		return text, nil
	}
}
