package automod

import (
	"fmt"

	"github.com/bluesky-social/fedimod/mastodon"
)

// The outcome of a dispatch pass: the post, and the first signature which flagged it.
type Match struct {
	Post      *mastodon.Status
	Signature string
	Verdict   Verdict
}

// Renders the single-line alert for a match. The raw post payload is included
// as received, so the line can be replayed against signatures later.
func FormatAlert(m *Match) string {
	return fmt.Sprintf("[%s] Spam detected🚨: %s %s (Actions: %s) -- %s",
		m.Post.ID,
		m.Signature,
		m.Verdict.Reason,
		m.Verdict.Actions.String(),
		string(m.Post.Raw),
	)
}
