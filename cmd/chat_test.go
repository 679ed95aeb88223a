package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/ai/keyword"
	"github.com/spigell/career-assistant/internal/assistant"
	"github.com/spigell/career-assistant/internal/ranker"
	"github.com/spigell/career-assistant/internal/tools"
)

func TestMenu(t *testing.T) {
	t.Parallel()

	registry := tools.DefaultRegistry()
	buttons := [ranker.Size]tools.ID{tools.GetMatches, tools.AskJDQA, tools.DraftEmail}

	tests := []struct {
		name     string
		resp     assistant.Response
		starters bool
		expect   []choiceKind
	}{
		{
			name:     "first turn offers starters",
			resp:     assistant.Response{Buttons: buttons},
			starters: true,
			expect: []choiceKind{
				choiceTool, choiceTool, choiceTool,
				choiceStarter, choiceStarter, choiceStarter, choiceStarter,
				choiceType, choiceExit,
			},
		},
		{
			name:   "feedback after a job search",
			resp:   assistant.Response{Buttons: buttons, Executed: tools.GetMatches},
			expect: []choiceKind{choiceTool, choiceTool, choiceTool, choiceType, choiceHelpful, choiceNotHelpful, choiceExit},
		},
		{
			name:   "no feedback after other tools",
			resp:   assistant.Response{Buttons: buttons, Executed: tools.InferSkills},
			expect: []choiceKind{choiceTool, choiceTool, choiceTool, choiceType, choiceExit},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := menu(tt.resp, registry, tt.starters)
			if len(got) != len(tt.expect) {
				t.Fatalf("expected %d choices, got %d", len(tt.expect), len(got))
			}
			for i, kind := range tt.expect {
				if got[i].kind != kind {
					t.Fatalf("choice %d: expected kind %d, got %d (%q)", i, kind, got[i].kind, got[i].label)
				}
			}
			for i, id := range buttons {
				if got[i].tool != id {
					t.Fatalf("button %d: expected %s, got %s", i, id, got[i].tool)
				}
			}
		})
	}
}

func TestMenuLabelsUseRegistry(t *testing.T) {
	t.Parallel()

	registry := tools.DefaultRegistry()
	got := menu(assistant.Response{Buttons: [ranker.Size]tools.ID{tools.ProfileAnalyzer, tools.InferSkills, tools.UpdateProfile}}, registry, false)

	d := registry.Get(tools.ProfileAnalyzer)
	want := "[1] " + d.Icon + " " + d.Label
	if got[0].label != want {
		t.Fatalf("expected label %q, got %q", want, got[0].label)
	}
}

func TestNewCompleter(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	completer, err := newCompleter(context.Background(), LLMConfig{Provider: " Keyword "}, zap.NewNop())
	if err != nil {
		t.Fatalf("keyword provider: %v", err)
	}
	if _, ok := completer.(*keyword.Completer); !ok {
		t.Fatalf("expected keyword completer, got %T", completer)
	}

	if _, err := newCompleter(context.Background(), LLMConfig{Provider: "llama"}, zap.NewNop()); err == nil {
		t.Fatalf("expected unsupported provider error")
	}

	if _, err := newCompleter(context.Background(), LLMConfig{Provider: providerOpenAI}, zap.NewNop()); err == nil {
		t.Fatalf("expected missing api key error")
	}

	completer, err = newCompleter(context.Background(), LLMConfig{
		Provider: providerOpenAI,
		OpenAI:   OpenAIConfig{APIKey: "sk-test"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("openai provider: %v", err)
	}
	if completer == nil {
		t.Fatalf("expected completer")
	}
}

func TestLoadProfileFallsBack(t *testing.T) {
	t.Parallel()

	if p := loadProfile("", zap.NewNop()); p.DisplayName() == "" {
		t.Fatalf("expected the sample profile to have a name")
	}

	p := loadProfile(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	if p == nil {
		t.Fatalf("expected an empty profile")
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	builtin, err := loadCatalog(JobsConfig{})
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := builtin.ToFile(path); err != nil {
		t.Fatalf("export: %v", err)
	}

	loaded, err := loadCatalog(JobsConfig{Catalog: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != builtin.Len() {
		t.Fatalf("expected %d jobs, got %d", builtin.Len(), loaded.Len())
	}

	if _, err := loadCatalog(JobsConfig{Catalog: filepath.Join(t.TempDir(), "nope.json")}); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}
