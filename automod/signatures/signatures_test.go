package signatures

import (
	"testing"

	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/automod/setstore"
	"github.com/bluesky-social/fedimod/mastodon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mentions(n int) []mastodon.Mention {
	out := make([]mastodon.Mention, n)
	for i := range out {
		out[i] = mastodon.Mention{ID: "m"}
	}
	return out
}

func TestSig20240221(t *testing.T) {
	assert := assert.New(t)

	content := `<p>look <a href="https://荒らし.com/">https://荒らし.com/</a></p>`

	v := Sig20240221(&mastodon.Status{ID: "1", Content: content, Mentions: mentions(3)})
	assert.True(v.IsSpam)
	assert.Equal("[Sig:20240221] isSpam = true : mentions: 3 > 2, content includes https://荒らし.com/ or https://ctkpaarr.org/", v.Reason)
	assert.Equal(automod.Actions{SuspendAccount: true}, v.Actions)

	v = Sig20240221(&mastodon.Status{ID: "2", Content: content, Mentions: mentions(2)})
	assert.False(v.IsSpam)

	v = Sig20240221(&mastodon.Status{ID: "3", Content: "<p>https://ctkpaarr.org/</p>", Mentions: mentions(5)})
	assert.True(v.IsSpam)

	v = Sig20240221(&mastodon.Status{ID: "4", Content: "<p>nothing here</p>", Mentions: mentions(5)})
	assert.False(v.IsSpam)

	// threshold is strictly greater than two mentions, for either domain
	v = Sig20240221(&mastodon.Status{ID: "5", Content: "https://ctkpaarr.org/", Mentions: mentions(3)})
	assert.True(v.IsSpam)
	assert.Equal(automod.Actions{SuspendAccount: true}, v.Actions)
	assert.False(v.Actions.SendReport)
	assert.False(v.Actions.LimitAccount)

	v = Sig20240221(&mastodon.Status{ID: "6", Content: "https://ctkpaarr.org/", Mentions: mentions(2)})
	assert.False(v.IsSpam)
}

func TestGtubeSignature(t *testing.T) {
	assert := assert.New(t)

	v := GtubeSignature(&mastodon.Status{Content: "<p>" + gtubeString + "</p>"})
	assert.True(v.IsSpam)
	assert.Equal(automod.Actions{SendReport: true}, v.Actions)

	assert.False(GtubeSignature(&mastodon.Status{Content: "<p>hello</p>"}).IsSpam)
}

func TestBadDomainsSignature(t *testing.T) {
	assert := assert.New(t)

	sets := setstore.NewMemSetStore()
	sets.Add(BadDomainsSet, "spam.example")
	check := BadDomainsSignature(sets)

	v := check(&mastodon.Status{Content: `<p><a href="https://cdn.SPAM.example/x">click</a></p>`})
	assert.True(v.IsSpam)
	assert.Contains(v.Reason, "spam.example")
	assert.Equal(automod.Actions{SendReport: true, LimitAccount: true}, v.Actions)

	// bare URL in the text, not linked
	assert.True(check(&mastodon.Status{Content: `<p>visit spam.example/now</p>`}).IsSpam)

	assert.False(check(&mastodon.Status{Content: `<p><a href="https://notspam.example/">ok</a></p>`}).IsSpam)

	// no set configured: never matches
	assert.False(BadDomainsSignature(setstore.NewMemSetStore())(&mastodon.Status{Content: `<a href="https://spam.example/">x</a>`}).IsSpam)
}

func TestBadWordsSignature(t *testing.T) {
	assert := assert.New(t)

	sets := setstore.NewMemSetStore()
	sets.Add(BadWordsSet, "viagra")
	check := BadWordsSignature(sets)

	assert.True(check(&mastodon.Status{Content: "<p>cheap VIÀGRA here</p>"}).IsSpam)
	assert.False(check(&mastodon.Status{Content: "<p>cheap flights here</p>"}).IsSpam)

	// punctuation inside a word does not hide it
	v := check(&mastodon.Status{Content: "<p>cheap v.i.a.g.r.a here</p>"})
	assert.True(v.IsSpam)
	assert.Contains(v.Reason, `"viagra"`)
	assert.True(check(&mastodon.Status{Content: "<p>cheap V-I-À-G-R-A!</p>"}).IsSpam)
	assert.False(check(&mastodon.Status{Content: "<p>v.i.a flights</p>"}).IsSpam)
}

func TestDefaultSignaturesDiscover(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	sigs, err := automod.Discover(DefaultSignatures(setstore.NewMemSetStore()), automod.RegistryOptions{
		Strict:   true,
		Disabled: []string{"gtube"},
	})
	require.NoError(err)

	names := []string{}
	for _, s := range sigs {
		names = append(names, s.Name)
	}
	assert.Equal([]string{"20240221", "bad-domains", "bad-words", "gtube"}, names)
	assert.True(sigs[3].Disabled())
	assert.False(sigs[3].Check(&mastodon.Status{Content: gtubeString}).IsSpam)
}
