package signatures

import (
	"strings"

	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/mastodon"
)

// https://en.wikipedia.org/wiki/GTUBE
var gtubeString = "XJS*C4JDBQADN1.NSBN3*2IDNEN*GTUBE-STANDARD-ANTI-UBE-TEST-EMAIL*C.34X"

// Test signature; matches posts containing the GTUBE string, and only files a report.
func GtubeSignature(post *mastodon.Status) automod.Verdict {
	if !strings.Contains(post.Content, gtubeString) {
		return automod.Verdict{}
	}
	return automod.Verdict{
		IsSpam:  true,
		Reason:  "[Sig:gtube] isSpam = true : content includes GTUBE test string",
		Actions: automod.Actions{SendReport: true},
	}
}
