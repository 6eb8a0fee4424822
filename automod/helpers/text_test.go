package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeText(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		s   string
		out []string
	}{
		{
			s:   "1 'Two' three!",
			out: []string{"1", "two", "three"},
		},
		{
			s:   "  foo1;bar2,baz3...",
			out: []string{"foo1", "bar2", "baz3"},
		},
		{
			s:   "https://example.com/index.html",
			out: []string{"https", "example", "com", "index", "html"},
		},
		{
			s:   "Café NAÏVE",
			out: []string{"cafe", "naive"},
		},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, TokenizeText(fix.s))
	}
}

func TestExtractURL(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		s   string
		out []string
	}{
		{
			s:   "this is a description with example.com mentioned in the middle",
			out: []string{"example.com"},
		},
		{
			s:   "this is another example with https://en.wikipedia.org/index.html: and archive.org, and https://eff.org/... and joinmastodon.org.",
			out: []string{"https://en.wikipedia.org/index.html", "archive.org", "https://eff.org/", "joinmastodon.org"},
		},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, ExtractTextURLs(fix.s))
	}
}

func TestPlainText(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", PlainText(""))
	assert.Equal("hello world", PlainText("<p>hello world</p>"))
	assert.Equal("one\ntwo", PlainText("<p>one<br>two</p>"))
	assert.Contains(PlainText(`<p>see <a href="https://spam.example/x">this</a></p>`), "https://spam.example/x")
	assert.Equal("a & b", PlainText("<p>a &amp; b</p>"))
}

func TestExtractLinks(t *testing.T) {
	assert := assert.New(t)

	content := `<p><span class="h-card"><a href="https://social.example/@alice" class="u-url mention">@alice</a></span> look <a href="https://荒らし.com/" rel="nofollow">here</a></p>`
	assert.Equal([]string{"https://social.example/@alice", "https://荒らし.com/"}, ExtractLinks(content))
	assert.Nil(ExtractLinks("<p>no links</p>"))
}

func TestURLDomain(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("spam.example", URLDomain("https://WWW.Spam.Example/path?q=1"))
	assert.Equal("spam.example", URLDomain("spam.example/path"))
	assert.Equal("荒らし.com", URLDomain("https://荒らし.com/"))
	assert.Equal("", URLDomain("https://"))
}

func TestParentDomains(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"a.b.example.com", "b.example.com", "example.com"}, ParentDomains("a.b.example.com"))
	assert.Equal([]string{"example.com"}, ParentDomains("example.com"))
	assert.Equal([]string{"localhost"}, ParentDomains("localhost"))
	assert.Equal([]string{}, ParentDomains(""))
}

func TestHashOfString(t *testing.T) {
	assert := assert.New(t)

	// hashing function should be consistent over time
	assert.Equal("4e6f69c0e3d10992", HashOfString("dummy-value"))
}

func TestDedupeStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, DedupeStrings([]string{"a", "b", "a"}))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "helloworld42", Slugify("Hello, World! 42"))
}
