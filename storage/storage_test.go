package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"

	"github.com/dparolin/dommyhoops/llm"
)

func exchange() []llm.Message {
	return []llm.Message{
		llm.UserMessage("how good is Boise State?"),
		{
			Role:    llm.RoleAssistant,
			Content: "looking that up",
			ToolCalls: []llm.ToolCall{{
				ID:        "call_1",
				Name:      "team_overview",
				Arguments: json.RawMessage(`{"team": "Boise State"}`),
			}},
		},
		llm.ToolMessage("call_1", `{"found": true}`),
		llm.AssistantMessage("Boise State looks strong this season."),
	}
}

func testStores(t *testing.T) map[string]SessionStore {
	t.Helper()
	sqlite, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("NewSqliteInMemory failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]SessionStore{
		"sqlite": sqlite,
		"memory": NewInMemoryStore(),
	}
}

func TestAppendLoadRoundtrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := exchange()
			if err := store.Append(ctx, "s1", want); err != nil {
				t.Fatalf("Append failed: %v", err)
			}

			got, err := store.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("expected %d messages, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i].Role != want[i].Role || got[i].Content != want[i].Content {
					t.Errorf("message %d mismatch: got %+v want %+v", i, got[i], want[i])
				}
				if got[i].ToolCallID != want[i].ToolCallID {
					t.Errorf("message %d tool call ID: got %q want %q", i, got[i].ToolCallID, want[i].ToolCallID)
				}
			}

			calls := got[1].ToolCalls
			if len(calls) != 1 || calls[0].ID != "call_1" || calls[0].Name != "team_overview" {
				t.Errorf("tool calls did not survive the roundtrip: %+v", calls)
			}
		})
	}
}

func TestLoadMissingSessionIsEmpty(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Load(context.Background(), "never-seen")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("expected empty history, got %d messages", len(got))
			}
		})
	}
}

func TestAppendPreservesOrderAcrossCalls(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, content := range []string{"one", "two", "three"} {
				if err := store.Append(ctx, "s1", []llm.Message{llm.UserMessage(content)}); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}
			got, err := store.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got) != 3 || got[0].Content != "one" || got[2].Content != "three" {
				t.Errorf("append order not preserved: %+v", got)
			}
		})
	}
}

func TestSessionsListsDistinctIDs(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"a", "b", "a"} {
				if err := store.Append(ctx, id, []llm.Message{llm.UserMessage("hi")}); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}
			ids, err := store.Sessions(ctx)
			if err != nil {
				t.Fatalf("Sessions failed: %v", err)
			}
			sort.Strings(ids)
			if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
				t.Errorf("unexpected session IDs: %v", ids)
			}
		})
	}
}

func TestSqliteRejectsEmptySessionID(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("NewSqliteInMemory failed: %v", err)
	}
	defer store.Close()

	if err := store.Append(context.Background(), "", exchange()); err == nil {
		t.Error("expected empty session ID to be rejected")
	}
}

func TestOpenSqliteCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sessions.db")
	store, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	defer store.Close()

	if err := store.Append(context.Background(), "s1", exchange()); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	got, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 messages, got %d", len(got))
	}
}
