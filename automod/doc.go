// Package automod is a rules engine for moderating a Mastodon-compatible public timeline.
//
// Posts arrive one at a time from the streaming API. Each post is run through an
// ordered list of signatures (named spam-detection predicates, see the
// signatures sub-package); the first signature which returns a positive Verdict
// wins, and its requested actions (report, suspend, limit) are carried out
// against the moderation API by the Executor, subject to the global kill-switches
// in ActionPolicy and to daily quotas.
package automod
