package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/career-assistant/internal/history"
	"github.com/spigell/career-assistant/internal/ranker"
	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

func TestTerminalPresentsTextAndButtons(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, tools.DefaultRegistry())

	term.Present("Here are your matches.", ranker.RemediationSet())

	output := buf.String()
	assert.Contains(t, output, "Here are your matches.")
	assert.Contains(t, output, "[1]")
	assert.Contains(t, output, "Analyze my profile")
	assert.Contains(t, output, "[2]")
	assert.Contains(t, output, "Suggest skills")
	assert.Contains(t, output, "[3]")
	assert.Contains(t, output, "Update my profile")
}

func TestConversation(t *testing.T) {
	output := Conversation("thread-1", []session.Turn{
		{Role: session.RoleUser, Text: "Show me job matches", At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Role: session.RoleAssistant, Text: "I can help you find matching job opportunities."},
	})

	assert.Contains(t, output, "Conversation thread-1")
	assert.Contains(t, output, "turns: 2")
	assert.Contains(t, output, "Show me job matches")
	assert.Contains(t, output, "I can help you find matching job opportunities.")
}

func TestEmptyListings(t *testing.T) {
	assert.Contains(t, Conversation("x", nil), "No turns recorded.")
	assert.Contains(t, Threads(nil), "No conversations recorded.")
}

func TestThreadsAndTools(t *testing.T) {
	output := Threads([]history.Thread{{ID: "abc", Turns: 4, UpdatedAt: time.Now()}})
	assert.Contains(t, output, "abc")
	assert.Contains(t, output, "4 turns")

	listing := Tools(tools.DefaultRegistry())
	for _, id := range tools.BaseOrder() {
		assert.Contains(t, listing, id.String())
	}
	assert.Contains(t, listing, "requires job_id, question")
}
