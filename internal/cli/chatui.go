package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/avelinek/ensemble/internal/chat"
	"github.com/avelinek/ensemble/internal/llm"
	"github.com/avelinek/ensemble/internal/metrics"
	"github.com/avelinek/ensemble/internal/models"
	"github.com/avelinek/ensemble/internal/persona"
	"github.com/avelinek/ensemble/internal/service"
)

// Theme holds the color scheme for the chat display.
type Theme struct {
	User        lipgloss.Color
	Fallback    lipgloss.Color
	Placeholder lipgloss.Color
	Status      lipgloss.Color
	Error       lipgloss.Color
	Hint        lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:        lipgloss.Color("#5FAFD7"), // light blue
	Fallback:    lipgloss.Color("#FFAF00"), // amber
	Placeholder: lipgloss.Color("#6C6C6C"), // dim gray
	Status:      lipgloss.Color("#00D787"), // green
	Error:       lipgloss.Color("#FF005F"), // red
	Hint:        lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) placeholderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Placeholder).Italic(true)
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// Placeholder text for bubbles without content yet.
const (
	thinkingPlaceholder = "thinking…"
	emptyPlaceholder    = "..."
)

// keyHint is the idle status line.
const keyHint = "enter to send · ctrl+s to clip last bubble · ctrl+c to quit"

// streamDeltaMsg carries one model stream fragment.
type streamDeltaMsg struct {
	fragment string
}

// streamDoneMsg signals the end of the model stream.
type streamDoneMsg struct {
	err error
}

// clipResultMsg carries the outcome of a note clip.
type clipResultMsg struct {
	persona string
	err     error
}

// chatDeps bundles everything the chat UI needs. notes and archive
// may be nil when persistence is disabled.
type chatDeps struct {
	conversation *chat.Conversation
	roster       *persona.Roster
	streamer     llm.Streamer
	notes        *service.NoteService
	archive      *service.ArchiveService
	window       int
	logger       *slog.Logger
}

// chatModel is the bubbletea model for the chat session.
type chatModel struct {
	deps chatDeps

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	theme    Theme

	width  int
	height int

	// Live stream plumbing. events is re-created per turn; cancel
	// aborts the in-flight model call.
	events chan tea.Msg
	cancel context.CancelFunc
	turn   *chat.Turn

	status   string
	err      error
	quitting bool
}

// newChatModel creates the chat UI model.
func newChatModel(deps chatDeps) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Say something..."
	ta.SetHeight(3)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return chatModel{
		deps:     deps,
		viewport: viewport.New(),
		textarea: ta,
		spinner:  sp,
		theme:    defaultTheme,
		status:   keyHint,
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit

		case "enter":
			return m.submit()

		case "ctrl+s":
			return m, m.clipLastBubble()
		}

		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.deps.conversation.InFlight() {
			m.refresh()
		}
		return m, cmd

	case streamDeltaMsg:
		m.deps.conversation.ApplyDelta(msg.fragment)
		m.refresh()
		return m, m.waitForEvent()

	case streamDoneMsg:
		return m.finishTurn(msg.err)

	case clipResultMsg:
		if msg.err != nil {
			m.status = m.theme.errorStyle().Render(fmt.Sprintf("clip failed: %v", msg.err))
		} else {
			m.status = m.theme.statusStyle().Render(fmt.Sprintf("clipped %s's bubble into the soil", msg.persona))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit sends the typed message as a new turn.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}

	turn, err := m.deps.conversation.Submit(text)
	if err != nil {
		// A turn is already streaming; keep the draft.
		m.status = m.theme.hintStyle().Render("wait for the current reply to finish")
		return m, nil
	}

	m.turn = turn
	m.textarea.Reset()
	m.status = m.theme.hintStyle().Render("streaming...")
	m.refresh()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.events = make(chan tea.Msg, 64)

	system := llm.SystemInstruction(m.deps.roster)
	window := llm.BuildWindow(m.deps.conversation.History(), m.deps.roster, m.deps.window)

	events := m.events
	streamer := m.deps.streamer
	go func() {
		start := time.Now()
		err := streamer.Stream(ctx, system, window, func(fragment string) error {
			events <- streamDeltaMsg{fragment: fragment}
			return nil
		})
		collector.RecordTiming(metrics.OpLLMStream, time.Since(start))
		events <- streamDoneMsg{err: err}
	}()

	return m, tea.Batch(m.waitForEvent(), m.spinner.Tick)
}

// waitForEvent delivers the next stream event to Update.
func (m chatModel) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// finishTurn settles the conversation after the stream ends. Completed
// turns feed the metrics collector and are archived in the background;
// failed turns do neither.
func (m chatModel) finishTurn(streamErr error) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	turn := m.turn
	m.turn = nil

	if streamErr != nil {
		m.deps.conversation.Fail(streamErr)
		if errors.Is(streamErr, llm.ErrFatalAPI) {
			m.status = m.theme.errorStyle().Render("provider rejected the call — check credentials and billing")
		} else {
			m.status = m.theme.errorStyle().Render("reply interrupted")
		}
		m.deps.logger.Warn("stream failed", "error", streamErr)
		m.refresh()
		return m, nil
	}

	m.deps.conversation.Complete()
	m.refresh()

	if turn == nil {
		return m, nil
	}

	bubbles := closedBubbleCount(turn.Snapshot())
	duration := turn.EndedAt.Sub(turn.StartedAt)
	collector.RecordTurn(duration, turn.Deltas, turn.Bytes, bubbles)

	m.status = m.theme.statusStyle().Render(turnStatsLine(turn.Deltas, turn.Bytes, bubbles, duration)) +
		"  " + m.theme.hintStyle().Render(keyHint)

	if m.deps.archive == nil {
		return m, nil
	}
	archive := m.deps.archive
	return m, func() tea.Msg {
		archive.Archive(context.Background(), turn)
		return nil
	}
}

// closedBubbleCount counts the records a finished turn actually shows.
func closedBubbleCount(records []models.MessageRecord) int {
	n := 0
	for _, r := range records {
		if !r.Open && r.Text != "" {
			n++
		}
	}
	return n
}

// turnStatsLine renders the last turn's stream counters for the status
// line.
func turnStatsLine(deltas, bytes, bubbles int, duration time.Duration) string {
	return fmt.Sprintf("%d bubbles · %d deltas · %dB · %.1fs",
		bubbles, deltas, bytes, duration.Seconds())
}

// clipLastBubble persists the newest finished agent bubble as a note.
func (m chatModel) clipLastBubble() tea.Cmd {
	if m.deps.notes == nil {
		return func() tea.Msg {
			return clipResultMsg{err: fmt.Errorf("persistence is disabled")}
		}
	}

	records := m.displayRecords()
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.Role != models.RoleAgent || r.Open || r.Text == "" || r.Speaker == persona.FallbackID {
			continue
		}
		notes := m.deps.notes
		roster := m.deps.roster
		name := roster.DisplayName(r.Speaker)
		return func() tea.Msg {
			_, err := notes.Clip(context.Background(), r, roster, nil)
			return clipResultMsg{persona: name, err: err}
		}
	}

	return func() tea.Msg {
		return clipResultMsg{err: fmt.Errorf("no finished bubble to clip")}
	}
}

// displayRecords is the transcript to render. History already carries
// the live turn's records: ApplyDelta splices every snapshot in as it
// arrives, so appending Turn().Snapshot() here would show each
// streaming bubble twice.
func (m chatModel) displayRecords() []models.MessageRecord {
	return m.deps.conversation.History()
}

// layout sizes the panes to the terminal.
func (m *chatModel) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.textarea.SetWidth(m.width)
	m.viewport.SetWidth(m.width)
	// Three textarea rows, one status row, one separator.
	h := m.height - m.textarea.Height() - 2
	if h < 1 {
		h = 1
	}
	m.viewport.SetHeight(h)
}

// refresh re-renders the transcript into the viewport and keeps it
// pinned to the bottom.
func (m *chatModel) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript renders every bubble, oldest first.
func (m *chatModel) renderTranscript() string {
	records := m.displayRecords()
	if len(records) == 0 {
		return m.theme.hintStyle().Render("The ensemble is listening.")
	}

	var b strings.Builder
	for _, r := range records {
		b.WriteString(m.renderBubble(r))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderBubble renders one message record with its speaker label.
func (m *chatModel) renderBubble(r models.MessageRecord) string {
	if r.Role == models.RoleUser {
		return m.theme.userStyle().Render("You") + "\n" + r.Text
	}

	label := m.speakerLabel(r.Speaker)

	switch {
	case r.Open && r.Text == "":
		return label + "\n" + m.spinner.View() + " " + m.theme.placeholderStyle().Render(thinkingPlaceholder)
	case r.Open:
		return label + "\n" + r.Text + " " + m.spinner.View()
	case r.Text == "":
		return label + "\n" + m.theme.placeholderStyle().Render(emptyPlaceholder)
	default:
		return label + "\n" + r.Text
	}
}

// speakerLabel renders a persona's display name in its roster color.
func (m *chatModel) speakerLabel(id string) string {
	name := m.deps.roster.DisplayName(id)

	color := m.theme.Fallback
	if p, ok := m.deps.roster.Get(id); ok && p.Color != "" {
		color = lipgloss.Color(p.Color)
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(name)
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.status)
	return tea.NewView(b.String())
}
