package tui

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"slider/internal/domain"
	"slider/internal/service"
)

// ChatPort is the console-facing subset of the chat backend.
type ChatPort interface {
	Handle(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error)
	Stats(conversationID string) (int, bool)
}

// exchange is one user message and what came back for it.
type exchange struct {
	message string
	resp    *service.ChatResponse
	err     error
}

// replyMsg carries a finished chat turn back into Update.
type replyMsg exchange

// Model is the Bubble Tea model for the chat console. Slides produced by the
// backend become the working deck so later edits and questions can refer to
// them.
type Model struct {
	port           ChatPort
	conversationID string
	input          textinput.Model
	viewport       viewport.Model
	turns          []exchange
	deck           []domain.Slide
	currentSlide   int
	status         string
	cursor         int
	ready          bool
	busy           bool
}

// New creates a console bound to one conversation.
func New(port ChatPort, conversationID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask for slides, or /slide N to select one"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		port:           port,
		conversationID: conversationID,
		input:          ti,
		viewport:       vp,
		status:         "Conversation " + conversationID + ". Type a message.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and reply events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := transcriptBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and deck line, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentTurn())
		return m, nil
	case replyMsg:
		m.busy = false
		m.turns = append(m.turns, exchange(msg))
		m.cursor = len(m.turns) - 1
		m.applyReply(exchange(msg))
		m.viewport.SetContent(m.renderCurrentTurn())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.input.SetValue("")
			if strings.HasPrefix(text, "/") {
				m.command(text)
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			return m, m.send(text)
		case "up":
			if len(m.turns) > 0 {
				m.cursor = (m.cursor - 1 + len(m.turns)) % len(m.turns)
				m.viewport.SetContent(m.renderCurrentTurn())
				return m, nil
			}
		case "down":
			if len(m.turns) > 0 {
				m.cursor = (m.cursor + 1) % len(m.turns)
				m.viewport.SetContent(m.renderCurrentTurn())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send runs the chat turn off the UI goroutine.
func (m Model) send(text string) tea.Cmd {
	req := service.ChatRequest{
		ConversationID: m.conversationID,
		Message:        text,
		CurrentSlide:   m.currentSlide,
		Slides:         append([]domain.Slide(nil), m.deck...),
	}
	port := m.port
	return func() tea.Msg {
		resp, err := port.Handle(context.Background(), req)
		return replyMsg{message: text, resp: resp, err: err}
	}
}

func (m *Model) applyReply(ex exchange) {
	if ex.err != nil {
		m.status = "Error: " + ex.err.Error()
		return
	}
	resp := ex.resp
	switch {
	case resp.SlideNumber > 0 && len(resp.Slides) == 1 && resp.SlideNumber <= len(m.deck):
		m.deck[resp.SlideNumber-1] = resp.Slides[0]
		m.currentSlide = resp.SlideNumber
	case len(resp.Slides) > 0:
		m.deck = append([]domain.Slide(nil), resp.Slides...)
		m.currentSlide = 1
	}
	docs, _ := m.port.Stats(m.conversationID)
	m.status = fmt.Sprintf("%s · %d documents remembered", resp.Action, docs)
	if len(resp.Warnings) > 0 {
		m.status += " · " + strings.Join(resp.Warnings, "; ")
	}
}

func (m *Model) command(text string) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/slide":
		if len(fields) < 2 {
			m.status = "Usage: /slide N"
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(m.deck) {
			m.status = fmt.Sprintf("No slide %s in a deck of %d.", fields[1], len(m.deck))
			return
		}
		m.currentSlide = n
		m.status = fmt.Sprintf("Slide %d selected.", n)
	case "/clear":
		m.deck = nil
		m.currentSlide = 0
		m.status = "Deck cleared."
	default:
		m.status = "Unknown command " + fields[0]
	}
}

// View renders the console layout and the selected turn.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Slider")
	deckLine := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.deckSummary())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	return header + "\n" + deckLine + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) deckSummary() string {
	if len(m.deck) == 0 {
		return "No slides yet."
	}
	titles := make([]string, len(m.deck))
	for i, s := range m.deck {
		marker := " "
		if i+1 == m.currentSlide {
			marker = "*"
		}
		titles[i] = fmt.Sprintf("%s%d %s", marker, i+1, s.Title)
	}
	return strings.Join(titles, "  ")
}

func (m Model) renderCurrentTurn() string {
	if len(m.turns) == 0 {
		return "No messages yet."
	}
	ex := m.turns[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d/%d\n\n", m.cursor+1, len(m.turns))
	b.WriteString(labelStyle.Render("You: "))
	b.WriteString(ex.message)
	b.WriteString("\n\n")
	if ex.err != nil {
		b.WriteString(errorStyle.Render(ex.err.Error()))
		return b.String()
	}
	r := ex.resp
	rec := r.Intent
	fmt.Fprintf(&b, "action=%s mode=%s", r.Action, rec.Mode)
	if rec.SlideCount > 0 {
		fmt.Fprintf(&b, " slides=%d", rec.SlideCount)
	}
	if rec.Tone != "" {
		fmt.Fprintf(&b, " tone=%s", rec.Tone)
	}
	if rec.Topic != "" {
		fmt.Fprintf(&b, " topic=%q", rec.Topic)
	}
	fmt.Fprintf(&b, " context=%d\n\n", len(r.Context))
	b.WriteString(labelStyle.Render("Slider: "))
	b.WriteString(r.Reply)
	for i, s := range r.Slides {
		n := i + 1
		if r.SlideNumber > 0 {
			n = r.SlideNumber
		}
		b.WriteString("\n\n")
		b.WriteString(s.Text(n))
	}
	if len(r.Context) > 0 {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Remembered:"))
		for _, c := range r.Context {
			b.WriteString("\n- ")
			b.WriteString(highlightBestSentence(c, ex.message))
		}
	}
	return b.String()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	labelStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	unicodeWordRe      = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe         = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasises the sentence of text sharing the most
// words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
