package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dparolin/dommyhoops/llm"
	"github.com/dparolin/dommyhoops/tools"
)

// scriptedProvider replays a fixed sequence of responses and records every
// conversation it was handed.
type scriptedProvider struct {
	responses []llm.Response
	errs      []error
	calls     int
	seen      [][]llm.Message
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) Complete(ctx context.Context, messages []llm.Message, toolSpecs []llm.Tool) (llm.Response, error) {
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	p.seen = append(p.seen, snapshot)

	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return llm.Response{}, p.errs[i]
	}
	if i >= len(p.responses) {
		return llm.Response{}, fmt.Errorf("scripted provider exhausted after %d calls", len(p.responses))
	}
	return p.responses[i], nil
}

func echoRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry()
	err := registry.Register(tools.Spec{
		Name:        "echo",
		Description: "echoes its label argument",
		Parameters: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"label": map[string]any{"type": "string"}},
			"required":             []string{"label"},
			"additionalProperties": false,
		},
	}, func(ctx context.Context, args tools.Args) (any, error) {
		label := args.String("label")
		if label == "slow" {
			time.Sleep(20 * time.Millisecond)
		}
		return map[string]any{"label": label}, nil
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return registry
}

func toolCall(id, label string) llm.ToolCall {
	return llm.ToolCall{
		ID:        id,
		Name:      "echo",
		Arguments: json.RawMessage(fmt.Sprintf(`{"label": %q}`, label)),
	}
}

func TestAnswerNoToolsNeeded(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Response{
		{Content: "The 2025 season runs November through April."},
	}}
	a := New(provider, echoRegistry(t))

	outcome, err := a.Answer(context.Background(), []Turn{{Role: llm.RoleUser, Content: "when is the season?"}})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if outcome.Rounds != 1 {
		t.Errorf("expected 1 round, got %d", outcome.Rounds)
	}
	if outcome.Message.Content != "The 2025 season runs November through April." {
		t.Errorf("unexpected final message: %q", outcome.Message.Content)
	}
	if outcome.Transcript[0].Role != llm.RoleSystem {
		t.Error("transcript should start with the system message")
	}
}

func TestAnswerToolRoundOrdering(t *testing.T) {
	// The slow call is emitted first; its result must still come back first.
	provider := &scriptedProvider{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "slow"), toolCall("call_2", "fast")}},
		{Content: "done"},
	}}
	a := New(provider, echoRegistry(t))

	outcome, err := a.Answer(context.Background(), []Turn{{Role: llm.RoleUser, Content: "compare"}})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if outcome.Rounds != 2 {
		t.Errorf("expected 2 rounds, got %d", outcome.Rounds)
	}

	// Second completion sees: system, user, assistant(tool calls), tool, tool.
	second := provider.seen[1]
	if len(second) != 5 {
		t.Fatalf("expected 5 messages in round two, got %d", len(second))
	}
	if second[2].Role != llm.RoleAssistant || len(second[2].ToolCalls) != 2 {
		t.Errorf("assistant message should record both tool calls: %+v", second[2])
	}
	first, next := second[3], second[4]
	if first.Role != llm.RoleTool || first.ToolCallID != "call_1" {
		t.Errorf("first tool message should answer call_1, got %+v", first)
	}
	if !strings.Contains(first.Content, "slow") {
		t.Errorf("call_1 result should carry the slow label: %s", first.Content)
	}
	if next.ToolCallID != "call_2" || !strings.Contains(next.Content, "fast") {
		t.Errorf("second tool message should answer call_2, got %+v", next)
	}
}

func TestAnswerFailedDispatchKeepsLooping(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "no_such_tool", Arguments: json.RawMessage(`{}`)}}},
		{Content: "that tool does not exist"},
	}}
	a := New(provider, echoRegistry(t))

	outcome, err := a.Answer(context.Background(), []Turn{{Role: llm.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("a failed dispatch must not abort the request: %v", err)
	}
	second := provider.seen[1]
	toolMsg := second[len(second)-1]
	if toolMsg.Role != llm.RoleTool || !strings.Contains(toolMsg.Content, "error") {
		t.Errorf("dispatch failure should feed back as a structured error: %+v", toolMsg)
	}
	if outcome.Message.Content != "that tool does not exist" {
		t.Errorf("unexpected final message: %q", outcome.Message.Content)
	}
}

func TestAnswerNoConvergence(t *testing.T) {
	endless := llm.Response{ToolCalls: []llm.ToolCall{toolCall("call_x", "again")}}
	provider := &scriptedProvider{responses: []llm.Response{endless, endless, endless}}
	a := New(provider, echoRegistry(t), WithMaxRounds(3))

	_, err := a.Answer(context.Background(), []Turn{{Role: llm.RoleUser, Content: "loop"}})
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("expected ErrNoConvergence, got %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("expected exactly 3 completion calls, got %d", provider.calls)
	}
}

func TestAnswerProviderError(t *testing.T) {
	wantErr := errors.New("upstream unavailable")
	provider := &scriptedProvider{errs: []error{wantErr}}
	a := New(provider, echoRegistry(t))

	_, err := a.Answer(context.Background(), []Turn{{Role: llm.RoleUser, Content: "hi"}})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestValidateTurns(t *testing.T) {
	cases := []struct {
		name    string
		turns   []Turn
		wantErr bool
	}{
		{"empty", nil, true},
		{"single user", []Turn{{Role: llm.RoleUser, Content: "q"}}, false},
		{"alternating", []Turn{
			{Role: llm.RoleUser, Content: "q1"},
			{Role: llm.RoleAssistant, Content: "a1"},
			{Role: llm.RoleUser, Content: "q2"},
		}, false},
		{"ends on assistant", []Turn{
			{Role: llm.RoleUser, Content: "q"},
			{Role: llm.RoleAssistant, Content: "a"},
		}, true},
		{"tool role", []Turn{{Role: llm.RoleTool, Content: "x"}}, true},
		{"empty content", []Turn{{Role: llm.RoleUser, Content: ""}}, true},
	}
	for _, tc := range cases {
		err := ValidateTurns(tc.turns)
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
	}
}
