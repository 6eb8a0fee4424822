package mastodon

import (
	"encoding/json"
	"fmt"
	"time"
)

// Streaming event categories. Only a subset is consumed.
const (
	EventUpdate       = "update"
	EventDelete       = "delete"
	EventNotification = "notification"
	EventStatusUpdate = "status.update"
)

type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
	URL      string `json:"url"`
	Bot      bool   `json:"bot"`
}

type Mention struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
	URL      string `json:"url"`
}

type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Status is a single post, as delivered by the streaming API. Fields not
// modeled here are still available, untouched, in Raw.
type Status struct {
	ID         string    `json:"id"`
	URI        string    `json:"uri"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	Account    Account   `json:"account"`
	Content    string    `json:"content"`
	Visibility string    `json:"visibility"`
	Sensitive  bool      `json:"sensitive"`
	Language   *string   `json:"language"`
	Mentions   []Mention `json:"mentions"`
	Tags       []Tag     `json:"tags"`

	Raw json.RawMessage `json:"-"`
}

func (s *Status) UnmarshalJSON(b []byte) error {
	type plain Status
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Status(p)
	s.Raw = append(json.RawMessage(nil), b...)
	return nil
}

type Report struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Comment   string    `json:"comment"`
	Forwarded bool      `json:"forwarded"`
	CreatedAt time.Time `json:"created_at"`
}

// StreamEvent is one message from the streaming API. For "update" events
// the payload is itself a JSON-encoded Status.
type StreamEvent struct {
	Stream  []string `json:"stream"`
	Event   string   `json:"event"`
	Payload string   `json:"payload"`
}

// Parses the payload of an "update" event.
func (e *StreamEvent) Status() (*Status, error) {
	if e.Event != EventUpdate {
		return nil, fmt.Errorf("not an update event: %s", e.Event)
	}
	var s Status
	if err := json.Unmarshal([]byte(e.Payload), &s); err != nil {
		return nil, fmt.Errorf("parsing status payload: %w", err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("status payload missing id")
	}
	return &s, nil
}
