package signatures

import (
	"fmt"

	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/automod/helpers"
	"github.com/bluesky-social/fedimod/automod/setstore"
	"github.com/bluesky-social/fedimod/mastodon"
)

// Name of the set of link domains which get a post reported, and the account limited
const BadDomainsSet = "bad-domains"

// Matches posts linking to any domain (or sub-domain of a domain) in the
// "bad-domains" set. Both the link targets and bare URLs in the text are checked.
func BadDomainsSignature(sets setstore.SetStore) automod.CheckFunc {
	return func(post *mastodon.Status) automod.Verdict {
		links := helpers.ExtractLinks(post.Content)
		links = append(links, helpers.ExtractTextURLs(helpers.PlainText(post.Content))...)
		for _, link := range helpers.DedupeStrings(links) {
			for _, d := range helpers.ParentDomains(helpers.URLDomain(link)) {
				if sets.InSet(BadDomainsSet, d) {
					return automod.Verdict{
						IsSpam:  true,
						Reason:  fmt.Sprintf("[Sig:bad-domains] isSpam = true : links to %s (in set %s)", d, BadDomainsSet),
						Actions: automod.Actions{SendReport: true, LimitAccount: true},
					}
				}
			}
		}
		return automod.Verdict{}
	}
}
