package automod

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bluesky-social/fedimod/automod/cachestore"
	"github.com/bluesky-social/fedimod/automod/countstore"
	"github.com/bluesky-social/fedimod/mastodon"
)

// A call recorded by MockModerationClient
type ModerationCall struct {
	// "report", or the account action type ("suspend", "silence")
	Action    string
	AccountID string
	StatusIDs []string
	Comment   string
}

// In-process ModerationClient which records every call. Calls for an action
// listed in Fail return an error instead (the call is still recorded).
type MockModerationClient struct {
	mu    sync.Mutex
	Calls []ModerationCall
	Fail  map[string]bool
}

var _ ModerationClient = (*MockModerationClient)(nil)

// records the call, and returns its 1-based sequence number
func (c *MockModerationClient) record(call ModerationCall) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, call)
	if c.Fail[call.Action] {
		return 0, fmt.Errorf("mock %s failure", call.Action)
	}
	return len(c.Calls), nil
}

func (c *MockModerationClient) CreateReport(ctx context.Context, input *mastodon.CreateReportInput) (*mastodon.Report, error) {
	seq, err := c.record(ModerationCall{
		Action:    "report",
		AccountID: input.AccountID,
		StatusIDs: input.StatusIDs,
		Comment:   input.Comment,
	})
	if err != nil {
		return nil, err
	}
	return &mastodon.Report{ID: fmt.Sprintf("report-%d", seq), Category: input.Category, Comment: input.Comment, Forwarded: input.Forward}, nil
}

func (c *MockModerationClient) AdminAccountAction(ctx context.Context, accountID string, input *mastodon.AccountActionInput) error {
	_, err := c.record(ModerationCall{Action: input.Type, AccountID: accountID})
	return err
}

// Action names of all recorded calls, in order
func (c *MockModerationClient) Actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.Calls))
	for i, call := range c.Calls {
		out[i] = call.Action
	}
	return out
}

// Replays a fixed list of events, then returns io.EOF.
type SliceEventSource struct {
	Events []*mastodon.StreamEvent
	pos    int
}

func (s *SliceEventSource) Next(ctx context.Context) (*mastodon.StreamEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.Events) {
		return nil, io.EOF
	}
	evt := s.Events[s.pos]
	s.pos++
	return evt, nil
}

// Always matches, requesting the given actions.
func MatchAll(reason string, actions Actions) CheckFunc {
	return func(post *mastodon.Status) Verdict {
		return Verdict{IsSpam: true, Reason: reason, Actions: actions}
	}
}

// Builds an "update" stream event around a minimal status.
func UpdateEvent(postID, accountID, content string) *mastodon.StreamEvent {
	payload, err := json.Marshal(map[string]any{
		"id":      postID,
		"content": content,
		"account": map[string]any{
			"id":   accountID,
			"acct": "user" + accountID + "@remote.example",
		},
		"mentions": []any{},
	})
	if err != nil {
		panic(err)
	}
	return &mastodon.StreamEvent{
		Stream:  []string{mastodon.StreamPublic},
		Event:   mastodon.EventUpdate,
		Payload: string(payload),
	}
}

// Engine wired with in-memory stores and a recording mock client. Logs are discarded.
func EngineTestFixture(sigs []Signature, policy ActionPolicy) (*Engine, *MockModerationClient) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := &MockModerationClient{Fail: map[string]bool{}}
	exec := NewExecutor(logger, client, policy, ActionLimits{}, countstore.NewMemCountStore(), cachestore.NewMemCacheStore(100, time.Hour))
	eng := &Engine{
		Logger:     logger,
		Signatures: sigs,
		Executor:   exec,
	}
	return eng, client
}
