// Package render draws assistant output for a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/career-assistant/internal/history"
	"github.com/spigell/career-assistant/internal/ranker"
	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

// Terminal writes each response with its buttons to out.
type Terminal struct {
	mu       sync.Mutex
	out      io.Writer
	registry *tools.Registry
	styles   styles
}

func NewTerminal(out io.Writer, registry *tools.Registry) *Terminal {
	return &Terminal{out: out, registry: registry, styles: newStyles()}
}

func (t *Terminal) Present(text string, buttons [ranker.Size]tools.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, renderResponse(text, buttons, t.registry, t.styles))
}

// Response renders text followed by the numbered buttons.
func Response(text string, buttons [ranker.Size]tools.ID, registry *tools.Registry) string {
	return renderResponse(text, buttons, registry, newStyles())
}

func renderResponse(text string, buttons [ranker.Size]tools.ID, registry *tools.Registry, s styles) string {
	lines := []string{
		s.assistant.Render("assistant"),
		s.body.Render(strings.TrimSpace(text)),
	}

	var actions []string
	for i, id := range buttons {
		actions = append(actions, renderButton(i+1, id, registry, s))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, actions...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderButton(n int, id tools.ID, registry *tools.Registry, s styles) string {
	label, icon, tooltip := id.String(), "", ""
	if registry != nil {
		if d, ok := registry.Lookup(id); ok {
			label, icon, tooltip = d.Label, d.Icon, d.Tooltip
		}
	}
	line := s.button.Render(fmt.Sprintf("[%d] %s %s", n, icon, label))
	if tooltip != "" {
		line += " " + s.tooltip.Render(tooltip)
	}
	return line
}

// Conversation renders a persisted thread.
func Conversation(threadID string, turns []session.Turn) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Conversation " + threadID),
		s.header.Render(fmt.Sprintf("turns: %d", len(turns))),
	}
	if len(turns) == 0 {
		lines = append(lines, s.empty.Render("No turns recorded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, turn := range turns {
		who := s.assistant.Render(string(turn.Role))
		if turn.Role == session.RoleUser {
			who = s.user.Render(string(turn.Role))
		}
		stamp := ""
		if !turn.At.IsZero() {
			stamp = " " + s.header.Render(turn.At.Local().Format("2006-01-02 15:04:05"))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			who+stamp,
			s.body.Render(turn.Text),
		)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Threads renders the list of persisted conversations.
func Threads(threads []history.Thread) string {
	s := newStyles()
	lines := []string{s.title.Render("Conversations")}
	if len(threads) == 0 {
		lines = append(lines, s.empty.Render("No conversations recorded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	for _, th := range threads {
		lines = append(lines, fmt.Sprintf("%s %s",
			s.body.Render(th.ID),
			s.header.Render(fmt.Sprintf("%d turns, last %s", th.Turns, th.UpdatedAt.Local().Format("2006-01-02 15:04"))),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Tools renders the registry.
func Tools(registry *tools.Registry) string {
	s := newStyles()
	lines := []string{s.title.Render("Tools")}
	for _, d := range registry.Descriptors() {
		meta := "read-only"
		if !d.Idempotent {
			meta = "changes data"
		}
		if len(d.RequiredArgs) > 0 {
			meta += ", requires " + strings.Join(d.RequiredArgs, ", ")
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			s.button.Render(fmt.Sprintf("%s %s", d.Icon, d.ID)),
			s.body.Render(d.Tooltip),
			s.header.Render(meta),
		)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
