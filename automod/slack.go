package automod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Interface for a type that can handle sending notifications about matches
type Notifier interface {
	SendMatch(ctx context.Context, m *Match) error
}

type SlackNotifier struct {
	SlackWebhookURL string
	Client          *http.Client
}

func (n *SlackNotifier) SendMatch(ctx context.Context, m *Match) error {
	return n.sendSlackMsg(ctx, slackBody(m))
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

func slackBody(m *Match) string {
	msg := "⚠️ Spam Signature Match ⚠️\n"
	acct := m.Post.Account
	if acct.URL != "" {
		msg += fmt.Sprintf("`%s` / <%s|profile>\n", acct.Acct, acct.URL)
	} else {
		msg += fmt.Sprintf("`%s` (`%s`)\n", acct.Acct, acct.ID)
	}
	msg += fmt.Sprintf("Signature: `%s`\n", m.Signature)
	if m.Verdict.Reason != "" {
		msg += fmt.Sprintf("Reason: %s\n", m.Verdict.Reason)
	}
	if m.Verdict.Actions.Any() {
		msg += fmt.Sprintf("Actions: `%s`\n", m.Verdict.Actions.String())
	}
	if m.Post.URL != "" {
		msg += fmt.Sprintf("<%s|post %s>\n", m.Post.URL, m.Post.ID)
	} else {
		msg += fmt.Sprintf("post `%s`\n", m.Post.ID)
	}
	return msg
}
