package automod

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bluesky-social/fedimod/mastodon"

	"github.com/stretchr/testify/assert"
)

func TestSlackNotifier(t *testing.T) {
	assert := assert.New(t)

	var got SlackWebhookBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("application/json", r.Header.Get("Content-Type"))
		assert.NoError(json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := &SlackNotifier{SlackWebhookURL: srv.URL, Client: srv.Client()}
	m := &Match{
		Post: &mastodon.Status{
			ID:      "1001",
			URL:     "https://remote.example/@spammer/1001",
			Account: mastodon.Account{ID: "42", Acct: "spammer@remote.example", URL: "https://remote.example/@spammer"},
		},
		Signature: "gtube",
		Verdict:   Verdict{IsSpam: true, Reason: "test", Actions: Actions{SendReport: true}},
	}
	assert.NoError(n.SendMatch(context.Background(), m))
	assert.Contains(got.Text, "`spammer@remote.example`")
	assert.Contains(got.Text, "Signature: `gtube`")
	assert.Contains(got.Text, "Actions: `sendReport`")
	assert.Contains(got.Text, "https://remote.example/@spammer/1001")
}

func TestSlackNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no_service"))
	}))
	defer srv.Close()

	n := &SlackNotifier{SlackWebhookURL: srv.URL, Client: srv.Client()}
	err := n.SendMatch(context.Background(), &Match{Post: &mastodon.Status{ID: "1"}})
	assert.Error(t, err)
}
