// Package assistant drives the bounded tool-orchestration loop between the
// completion service and the tool registry.
//
// Information Hiding:
// - Round bookkeeping and termination hidden behind Answer
// - Concurrent dispatch within a round hidden; results always reassemble in
//   the order the model emitted the calls
// - System prompt construction internalized
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dparolin/dommyhoops/llm"
	"github.com/dparolin/dommyhoops/tools"
)

// ErrNoConvergence is returned when the model keeps requesting tools for
// every round in the budget. Fatal for the request; never retried.
var ErrNoConvergence = errors.New("assistant did not produce a final answer within the round budget")

// DefaultMaxRounds bounds completion rounds per request.
const DefaultMaxRounds = 4

const systemPrompt = `You are a college basketball statistics assistant for the dommyhoops dataset.
Answer questions using the provided tools; do not invent numbers. Data covers Division I
men's basketball, refreshed periodically, with per-season team and player statistics,
rosters, schedules and leaderboards. When a tool reports found=false or an error, say so
plainly instead of guessing. Keep answers concise and cite the season you used.`

// Turn is one caller-supplied conversation entry.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Outcome is a successful orchestration run.
type Outcome struct {
	// Message is the model's final answer.
	Message llm.Message
	// Transcript is the full appended conversation, system message included.
	Transcript []llm.Message
	// Rounds counts completion exchanges, including the final one.
	Rounds int
}

// Assistant answers questions by looping the completion service against the
// tool catalog. Stateless across requests; safe for concurrent use.
type Assistant struct {
	provider  llm.Provider
	registry  *tools.Registry
	maxRounds int
	logger    *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithMaxRounds overrides the round budget.
func WithMaxRounds(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an assistant over a provider and a tool registry.
func New(provider llm.Provider, registry *tools.Registry, opts ...Option) *Assistant {
	a := &Assistant{
		provider:  provider,
		registry:  registry,
		maxRounds: DefaultMaxRounds,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer runs the orchestration loop over the caller's turns.
//
// Each round submits the whole conversation plus the tool catalog. A
// response carrying tool calls appends one assistant message recording
// exactly those calls, then one tool message per call in emission order;
// a response without tool calls is the final answer. The conversation is
// append-only throughout.
func (a *Assistant) Answer(ctx context.Context, turns []Turn) (Outcome, error) {
	conversation, err := a.seedConversation(turns)
	if err != nil {
		return Outcome{}, err
	}

	catalog := a.toolCatalog()

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.provider.Complete(ctx, conversation, catalog)
		if err != nil {
			return Outcome{}, fmt.Errorf("completion failed in round %d: %w", round+1, err)
		}

		if len(resp.ToolCalls) == 0 {
			final := llm.AssistantMessage(resp.Content)
			conversation = append(conversation, final)
			return Outcome{
				Message:    final,
				Transcript: conversation,
				Rounds:     round + 1,
			}, nil
		}

		a.logger.Debug("tool round",
			zap.Int("round", round+1),
			zap.Int("calls", len(resp.ToolCalls)))

		conversation = append(conversation, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		conversation = append(conversation, a.dispatchRound(ctx, resp.ToolCalls)...)
	}

	return Outcome{}, ErrNoConvergence
}

// dispatchRound executes one round's tool calls. Calls within a round are
// independent, so they run concurrently; the returned tool messages are in
// the order the model emitted the calls.
func (a *Assistant) dispatchRound(ctx context.Context, calls []llm.ToolCall) []llm.Message {
	results := make([]string, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			result := a.registry.Dispatch(ctx, call.Name, string(call.Arguments))
			if result.IsError() {
				a.logger.Warn("tool dispatch failed",
					zap.String("tool", call.Name),
					zap.String("error", result.ErrorMessage()))
			}
			results[i] = result.JSON()
		}(i, call)
	}
	wg.Wait()

	messages := make([]llm.Message, len(calls))
	for i, call := range calls {
		messages[i] = llm.ToolMessage(call.ID, results[i])
	}
	return messages
}

// ValidateTurns checks caller-supplied turns: only user and assistant
// roles, no empty content, ending on a user turn. Tool plumbing is owned by
// the loop and never appears in caller turns.
func ValidateTurns(turns []Turn) error {
	if len(turns) == 0 {
		return fmt.Errorf("conversation must contain at least one turn")
	}
	for i, turn := range turns {
		switch turn.Role {
		case llm.RoleUser, llm.RoleAssistant:
		default:
			return fmt.Errorf("turn %d: unsupported role %q", i, turn.Role)
		}
		if turn.Content == "" {
			return fmt.Errorf("turn %d: empty content", i)
		}
	}
	if turns[len(turns)-1].Role != llm.RoleUser {
		return fmt.Errorf("conversation must end with a user turn")
	}
	return nil
}

// seedConversation validates the caller's turns and prepends the system
// message.
func (a *Assistant) seedConversation(turns []Turn) ([]llm.Message, error) {
	if err := ValidateTurns(turns); err != nil {
		return nil, err
	}

	conversation := make([]llm.Message, 0, len(turns)+1)
	conversation = append(conversation, llm.SystemMessage(systemPrompt))
	for _, turn := range turns {
		conversation = append(conversation, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return conversation, nil
}

func (a *Assistant) toolCatalog() []llm.Tool {
	specs := a.registry.Specs()
	catalog := make([]llm.Tool, len(specs))
	for i, spec := range specs {
		catalog[i] = llm.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		}
	}
	return catalog
}
