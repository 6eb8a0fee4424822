package automod

import (
	"fmt"
	"strings"

	"github.com/bluesky-social/fedimod/mastodon"
)

// Action names, as they appear in alert log lines
const (
	ActionSendReport     = "sendReport"
	ActionSuspendAccount = "suspendAccount"
	ActionLimitAccount   = "limitAccount"
)

// Moderation actions requested by a signature. Field order is the declaration
// order used wherever actions are listed.
type Actions struct {
	SendReport     bool
	SuspendAccount bool
	LimitAccount   bool
}

// Names of the requested actions, in declaration order.
func (a Actions) Names() []string {
	names := []string{}
	if a.SendReport {
		names = append(names, ActionSendReport)
	}
	if a.SuspendAccount {
		names = append(names, ActionSuspendAccount)
	}
	if a.LimitAccount {
		names = append(names, ActionLimitAccount)
	}
	return names
}

func (a Actions) Any() bool {
	return a.SendReport || a.SuspendAccount || a.LimitAccount
}

func (a Actions) String() string {
	return strings.Join(a.Names(), ", ")
}

// Inverse of Actions.String.
func ParseActions(s string) (Actions, error) {
	var a Actions
	if s == "" {
		return a, nil
	}
	for _, name := range strings.Split(s, ", ") {
		switch name {
		case ActionSendReport:
			a.SendReport = true
		case ActionSuspendAccount:
			a.SuspendAccount = true
		case ActionLimitAccount:
			a.LimitAccount = true
		default:
			return Actions{}, fmt.Errorf("unknown action name: %q", name)
		}
	}
	return a, nil
}

// Output of a single signature for a single post. Reason is only set when IsSpam is true.
type Verdict struct {
	IsSpam  bool
	Reason  string
	Actions Actions
}

// The check implemented by a signature. It must not have side effects, and
// should return a negative verdict for any post it can not interpret.
type CheckFunc func(post *mastodon.Status) Verdict

// Predicate is either an ActivePredicate (a bound check function) or a
// StubPredicate (a disabled signature).
type Predicate interface {
	Check(post *mastodon.Status) Verdict
}

type ActivePredicate struct {
	fn CheckFunc
}

func NewActivePredicate(fn CheckFunc) ActivePredicate {
	return ActivePredicate{fn: fn}
}

func (p ActivePredicate) Check(post *mastodon.Status) Verdict {
	v := p.fn(post)
	if !v.IsSpam {
		v.Reason = ""
	}
	return v
}

// Always returns a negative verdict.
type StubPredicate struct{}

func (StubPredicate) Check(post *mastodon.Status) Verdict {
	return Verdict{IsSpam: false}
}

// A named signature, as produced by Discover. Enabled and disabled signatures
// have the same shape; only the Predicate differs.
type Signature struct {
	Name      string
	Predicate Predicate
}

func (s Signature) Check(post *mastodon.Status) Verdict {
	return s.Predicate.Check(post)
}

func (s Signature) Disabled() bool {
	_, ok := s.Predicate.(StubPredicate)
	return ok
}
