package signatures

import (
	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/automod/setstore"
)

// The build-time signature table, in evaluation order. IDs carry the source
// file name; the registry strips the suffix to form the signature name.
//
// sets backs the list-driven signatures; it may be empty, in which case those
// signatures never match.
func DefaultSignatures(sets setstore.SetStore) []automod.Definition {
	return []automod.Definition{
		{ID: "20240221.go", Check: Sig20240221},
		{ID: "bad-domains.go", Check: BadDomainsSignature(sets)},
		{ID: "bad-words.go", Check: BadWordsSignature(sets)},
		{ID: "gtube.go", Check: GtubeSignature},
	}
}
