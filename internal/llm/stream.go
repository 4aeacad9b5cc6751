package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// DeltaFunc receives one text fragment. Returning an error aborts the
// stream; the error is surfaced as the stream's failure cause.
type DeltaFunc func(fragment string) error

// Streamer is the abstract model-call service the conversation layer
// consumes: a lazy, finite, non-restartable sequence of text deltas
// that terminates normally or fails with a cause.
type Streamer interface {
	Stream(ctx context.Context, system string, window []llms.MessageContent, onDelta DeltaFunc) error
}

var _ Streamer = (*Model)(nil)

// Stream runs one turn: the system instruction plus the rolling
// conversation window go up, tagged text deltas come back in order.
// Blocks until the upstream stream ends; a nil return means normal
// completion and that every delta was delivered.
func (m *Model) Stream(ctx context.Context, system string, window []llms.MessageContent, onDelta DeltaFunc) error {
	messages := make([]llms.MessageContent, 0, len(window)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	messages = append(messages, window...)

	_, err := m.llm.GenerateContent(ctx, messages,
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			return onDelta(string(chunk))
		}),
	)
	if err != nil {
		return wrapFatalError(fmt.Errorf("stream: %w", err))
	}
	return nil
}
