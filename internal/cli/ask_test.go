package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/avelinek/ensemble/internal/llm"
)

// fakeStreamer replays canned fragments, then ends with err.
type fakeStreamer struct {
	fragments []string
	err       error
}

func (f *fakeStreamer) Stream(ctx context.Context, system string, window []llms.MessageContent, onDelta llm.DeltaFunc) error {
	for _, fr := range f.fragments {
		if err := onDelta(fr); err != nil {
			return err
		}
	}
	return f.err
}

func TestAskOnceSuccess(t *testing.T) {
	setupTestSession(t)
	streamer := &fakeStreamer{fragments: []string{"[START:sage]he", "llo[END]"}}

	var out strings.Builder
	turn, err := askOnce(context.Background(), streamer, "q", &out)
	if err != nil {
		t.Fatalf("askOnce: %v", err)
	}
	if turn == nil {
		t.Fatal("expected a turn back")
	}

	if !strings.Contains(out.String(), "Sage:\nhello") {
		t.Errorf("output %q missing the finished bubble", out.String())
	}

	snap := collector.Snapshot().Turns
	if snap == nil || snap.Count != 1 {
		t.Errorf("turn metrics = %+v, want one recorded turn", snap)
	}
}

func TestAskOnceStreamFailure(t *testing.T) {
	setupTestSession(t)
	streamer := &fakeStreamer{
		fragments: []string{"[START:sage]half a tho"},
		err:       errors.New("socket closed"),
	}

	var out strings.Builder
	_, err := askOnce(context.Background(), streamer, "q", &out)
	if err == nil {
		t.Fatal("expected an error from a failed stream")
	}

	// Partial content already received is still printed.
	if !strings.Contains(out.String(), "half a tho") {
		t.Errorf("output %q missing partial content", out.String())
	}

	if snap := collector.Snapshot().Turns; snap != nil {
		t.Errorf("failed turn recorded metrics: %+v", snap)
	}
}

func TestAskOnceFatalAPIError(t *testing.T) {
	setupTestSession(t)
	streamer := &fakeStreamer{err: llm.ErrFatalAPI}

	var out strings.Builder
	_, err := askOnce(context.Background(), streamer, "q", &out)
	if !errors.Is(err, llm.ErrFatalAPI) {
		t.Fatalf("err = %v, want ErrFatalAPI in the chain", err)
	}
	if !strings.Contains(err.Error(), "provider rejected") {
		t.Errorf("err %q does not name the provider rejection", err)
	}
}
