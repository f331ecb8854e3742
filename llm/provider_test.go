package llm

import (
	"strings"
	"testing"
)

func TestNewProviderSelection(t *testing.T) {
	cases := []struct {
		provider  string
		wantName  string
		wantModel string
	}{
		{"openai", "openai", "gpt-4o"},
		{"OpenAI", "openai", "gpt-4o"},
		{"gpt", "openai", "gpt-4o"},
		{"anthropic", "anthropic", "claude-sonnet-4-20250514"},
		{"claude", "anthropic", "claude-sonnet-4-20250514"},
		{"google", "gemini", "gemini-2.0-flash"},
		{"deepseek", "deepseek", "deepseek-chat"},
	}
	for _, tc := range cases {
		p, err := New(Config{Provider: tc.provider, APIKey: "test-key"})
		if err != nil {
			t.Errorf("%s: New failed: %v", tc.provider, err)
			continue
		}
		if p.Name() != tc.wantName {
			t.Errorf("%s: expected provider %s, got %s", tc.provider, tc.wantName, p.Name())
		}
		if p.Model() != tc.wantModel {
			t.Errorf("%s: expected default model %s, got %s", tc.provider, tc.wantModel, p.Model())
		}
	}
}

func TestNewProviderModelOverride(t *testing.T) {
	p, err := New(Config{Provider: "openai", APIKey: "test-key", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Model() != "gpt-4o-mini" {
		t.Errorf("expected model override, got %s", p.Model())
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := New(Config{Provider: "llama", APIKey: "test-key"})
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(Config{Provider: "openai"})
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected missing key error naming the variable, got %v", err)
	}
}

func TestMessageConstructors(t *testing.T) {
	if m := SystemMessage("s"); m.Role != RoleSystem || m.Content != "s" {
		t.Errorf("unexpected system message: %+v", m)
	}
	if m := UserMessage("u"); m.Role != RoleUser {
		t.Errorf("unexpected user message: %+v", m)
	}
	if m := AssistantMessage("a"); m.Role != RoleAssistant {
		t.Errorf("unexpected assistant message: %+v", m)
	}
	m := ToolMessage("call_1", `{"found": true}`)
	if m.Role != RoleTool || m.ToolCallID != "call_1" || m.Content != `{"found": true}` {
		t.Errorf("unexpected tool message: %+v", m)
	}
}
