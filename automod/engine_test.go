package automod

import (
	"context"
	"io"
	"testing"

	"github.com/bluesky-social/fedimod/mastodon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	matches []*Match
}

func (n *countingNotifier) SendMatch(ctx context.Context, m *Match) error {
	n.matches = append(n.matches, m)
	return nil
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	assert := assert.New(t)

	calls := 0
	counting := func(post *mastodon.Status) Verdict {
		calls++
		return Verdict{IsSpam: true, Reason: "later"}
	}
	sigs := []Signature{
		{Name: "off", Predicate: StubPredicate{}},
		{Name: "one", Predicate: NewActivePredicate(MatchAll("first", Actions{SendReport: true}))},
		{Name: "two", Predicate: NewActivePredicate(counting)},
	}
	eng, _ := EngineTestFixture(sigs, ActionPolicy{})

	m, ok := eng.Evaluate(&mastodon.Status{ID: "1"})
	assert.True(ok)
	assert.Equal("one", m.Signature)
	assert.Equal("first", m.Verdict.Reason)
	assert.Equal(0, calls)
}

func TestProcessPostFirstMatchActions(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	sigs := []Signature{
		{Name: "first", Predicate: NewActivePredicate(MatchAll("report only", Actions{SendReport: true}))},
		{Name: "second", Predicate: NewActivePredicate(MatchAll("suspend", Actions{SuspendAccount: true}))},
	}
	eng, client := EngineTestFixture(sigs, ActionPolicy{})
	notifier := &countingNotifier{}
	eng.Notifier = notifier

	post := &mastodon.Status{ID: "1", Account: mastodon.Account{ID: "100"}, Content: "<p>hi</p>"}
	require.NoError(eng.ProcessPost(context.Background(), post))

	assert.Equal([]string{"report"}, client.Actions())
	assert.Equal("spam detected by report only", client.Calls[0].Comment)
	require.Len(notifier.matches, 1)
	assert.Equal("first", notifier.matches[0].Signature)
}

func TestEvaluateNoMatch(t *testing.T) {
	sigs := []Signature{
		{Name: "off", Predicate: StubPredicate{}},
	}
	eng, _ := EngineTestFixture(sigs, ActionPolicy{})
	m, ok := eng.Evaluate(&mastodon.Status{ID: "1"})
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestEvaluatePanicIsolated(t *testing.T) {
	assert := assert.New(t)

	sigs := []Signature{
		{Name: "boom", Predicate: NewActivePredicate(func(post *mastodon.Status) Verdict {
			panic("bad signature")
		})},
		{Name: "after", Predicate: NewActivePredicate(MatchAll("ok", Actions{}))},
	}
	eng, _ := EngineTestFixture(sigs, ActionPolicy{})

	m, ok := eng.Evaluate(&mastodon.Status{ID: "1"})
	assert.True(ok)
	assert.Equal("after", m.Signature)
}

func TestProcessEventIgnoresNonUpdate(t *testing.T) {
	assert := assert.New(t)

	sigs := []Signature{
		{Name: "all", Predicate: NewActivePredicate(MatchAll("x", Actions{SendReport: true, SuspendAccount: true}))},
	}
	eng, client := EngineTestFixture(sigs, ActionPolicy{})

	for _, name := range []string{mastodon.EventDelete, mastodon.EventNotification, mastodon.EventStatusUpdate} {
		assert.NoError(eng.ProcessEvent(context.Background(), &mastodon.StreamEvent{Event: name, Payload: `{"id":"1"}`}))
	}
	assert.Empty(client.Calls)
}

func TestProcessEventBadPayload(t *testing.T) {
	sigs := []Signature{
		{Name: "all", Predicate: NewActivePredicate(MatchAll("x", Actions{SendReport: true}))},
	}
	eng, client := EngineTestFixture(sigs, ActionPolicy{})

	assert.NoError(t, eng.ProcessEvent(context.Background(), &mastodon.StreamEvent{Event: mastodon.EventUpdate, Payload: "not json"}))
	assert.Empty(t, client.Calls)
}

func TestRunUntilSourceEnds(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	sigs := []Signature{
		{Name: "all", Predicate: NewActivePredicate(MatchAll("x", Actions{SendReport: true}))},
	}
	eng, client := EngineTestFixture(sigs, ActionPolicy{})
	notifier := &countingNotifier{}
	eng.Notifier = notifier
	// a failing report must not stop the loop
	client.Fail["report"] = true

	src := &SliceEventSource{Events: []*mastodon.StreamEvent{
		UpdateEvent("1", "100", "hello"),
		{Event: mastodon.EventDelete, Payload: "1"},
		UpdateEvent("2", "200", "hello again"),
	}}
	err := eng.Run(context.Background(), src)
	require.ErrorIs(err, io.EOF)

	assert.Equal([]string{"report", "report"}, client.Actions())
	require.Len(notifier.matches, 2)
	assert.Equal("2", notifier.matches[1].Post.ID)
}

func TestRunContextCancelled(t *testing.T) {
	eng, _ := EngineTestFixture(nil, ActionPolicy{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := eng.Run(ctx, &SliceEventSource{Events: []*mastodon.StreamEvent{UpdateEvent("1", "100", "hi")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatAlert(t *testing.T) {
	evt := UpdateEvent("1001", "42", "spam spam")
	post, err := evt.Status()
	require.NoError(t, err)

	line := FormatAlert(&Match{
		Post:      post,
		Signature: "20240221",
		Verdict: Verdict{
			IsSpam:  true,
			Reason:  "[Sig:20240221] isSpam = true",
			Actions: Actions{SendReport: true, SuspendAccount: true},
		},
	})
	assert.Equal(t, "[1001] Spam detected🚨: 20240221 [Sig:20240221] isSpam = true (Actions: sendReport, suspendAccount) -- "+evt.Payload, line)
}
