package signatures

import (
	"fmt"
	"strings"

	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/mastodon"
)

var sig20240221Domains = []string{
	"https://荒らし.com/",
	"https://ctkpaarr.org/",
}

// Mention-bombing wave of February 2024: more than two mentions, and a link to
// one of a couple of known domains. Matching accounts are suspended outright.
func Sig20240221(post *mastodon.Status) automod.Verdict {
	mentions := len(post.Mentions)

	isSpam := false
	if mentions > 2 {
		for _, d := range sig20240221Domains {
			if strings.Contains(post.Content, d) {
				isSpam = true
				break
			}
		}
	}

	return automod.Verdict{
		IsSpam: isSpam,
		Reason: fmt.Sprintf("[Sig:20240221] isSpam = %t : mentions: %d > 2, content includes https://荒らし.com/ or https://ctkpaarr.org/", isSpam, mentions),
		Actions: automod.Actions{
			SendReport:     false,
			SuspendAccount: true,
		},
	}
}
