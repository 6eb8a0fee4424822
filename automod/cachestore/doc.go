// Short-lived key/value cache of moderation state.
//
// The executor records accounts it has already suspended or silenced here, so
// that a burst of posts from one account (still arriving on the stream before
// the action propagates) results in a single API call.
package cachestore
