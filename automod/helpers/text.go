package helpers

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/spaolacci/murmur3"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func DedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// returns a fast, compact hash of a string
//
// current implementation uses murmur3, default seed, and hex encoding
func HashOfString(s string) string {
	val := murmur3.Sum64([]byte(s))
	return fmt.Sprintf("%016x", val)
}

// Converts post content (an HTML fragment) to plain text. Block-level breaks
// become newlines, and link targets are kept alongside the link text.
func PlainText(content string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or a malformed fragment; either way, return what we have
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "br", "p":
				sb.WriteString("\n")
			case "a":
				for _, attr := range tok.Attr {
					if attr.Key == "href" {
						sb.WriteString(" " + attr.Val + " ")
					}
				}
			}
		}
	}
}

// Returns the href of every link in an HTML fragment, in document order.
func ExtractLinks(content string) []string {
	var out []string
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken {
			continue
		}
		tok := z.Token()
		if tok.Data != "a" {
			continue
		}
		for _, attr := range tok.Attr {
			if attr.Key == "href" && attr.Val != "" {
				out = append(out, attr.Val)
			}
		}
	}
}

// based on: https://stackoverflow.com/a/48769624, with no trailing period allowed
var urlRegex = regexp.MustCompile(`(?:(?:https?|ftp):\/\/)?[\w/\-?=%.]+\.[\w/\-&?=%.]*[\w/\-&?=%]+`)

// Finds URL-like strings in plain text. Only ASCII hostnames are matched.
func ExtractTextURLs(raw string) []string {
	return urlRegex.FindAllString(raw, -1)
}

// Lower-cased hostname of a URL, without any "www." prefix. Returns an empty
// string if the URL does not parse or has no host.
func URLDomain(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// The domain itself, then each parent domain, down to (and including) the
// two-label registered name. "a.b.example.com" gives ["a.b.example.com",
// "b.example.com", "example.com"].
func ParentDomains(domain string) []string {
	out := []string{}
	if domain == "" {
		return out
	}
	parts := strings.Split(domain, ".")
	for i := 0; i < len(parts)-1; i++ {
		out = append(out, strings.Join(parts[i:], "."))
	}
	if len(out) == 0 {
		out = append(out, domain)
	}
	return out
}

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// Splits free-form text in to tokens, including lower-case, unicode normalization, and some unicode folding.
func TokenizeText(text string) []string {
	// this function needs to be re-defined in every function call to prevent a race condition
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	split := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	normed, _, err := transform.String(normFunc, split)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		normed = split
	}
	return strings.Fields(normed)
}

var nonSlugChars = regexp.MustCompile(`[^\pL\pN]+`)

// Takes an arbitrary string (eg, an account name or free-form text) and returns a version with all non-letter, non-digit characters removed, and all lower-case
func Slugify(orig string) string {
	return strings.ToLower(nonSlugChars.ReplaceAllString(orig, ""))
}
