package signatures

import (
	"fmt"
	"strings"

	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/automod/helpers"
	"github.com/bluesky-social/fedimod/automod/setstore"
	"github.com/bluesky-social/fedimod/mastodon"
)

// Name of the set of (normalized) words which get a post reported
const BadWordsSet = "bad-words"

// Matches posts whose text contains a token from the "bad-words" set, after
// lower-casing and unicode folding. Words broken up with punctuation
// ("v.i.a.g.r.a") are also checked with the punctuation squashed out. Only
// files a report; a human decides the rest.
func BadWordsSignature(sets setstore.SetStore) automod.CheckFunc {
	return func(post *mastodon.Status) automod.Verdict {
		text := helpers.PlainText(post.Content)
		for _, tok := range helpers.TokenizeText(text) {
			if sets.InSet(BadWordsSet, tok) {
				return badWordsVerdict(tok)
			}
		}
		for _, word := range strings.Fields(text) {
			slug := helpers.Slugify(word)
			if slug == "" {
				continue
			}
			for _, tok := range helpers.TokenizeText(slug) {
				if sets.InSet(BadWordsSet, tok) {
					return badWordsVerdict(tok)
				}
			}
		}
		return automod.Verdict{}
	}
}

func badWordsVerdict(tok string) automod.Verdict {
	return automod.Verdict{
		IsSpam:  true,
		Reason:  fmt.Sprintf("[Sig:bad-words] isSpam = true : content includes %q (in set %s)", tok, BadWordsSet),
		Actions: automod.Actions{SendReport: true},
	}
}
