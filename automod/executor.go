package automod

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bluesky-social/fedimod/automod/cachestore"
	"github.com/bluesky-social/fedimod/automod/countstore"
	"github.com/bluesky-social/fedimod/mastodon"

	"github.com/samber/oops"
	"github.com/sony/gobreaker"
)

const (
	quotaCounter         = "fedimod-quota"
	accountReportCounter = "fedimod-account-report"
	accountActionCache   = "acct-action"
)

// Process-wide kill-switches, fixed at startup.
type ActionPolicy struct {
	DisableReports     bool
	DisableSuspensions bool
	DisableLimits      bool

	// When set, silencing is gated on DisableLimits being *true*. This is the
	// condition the daemon has always shipped with; it is kept until the owner
	// of the instance policy confirms which behavior is intended. When unset,
	// the gate mirrors suspension (silence unless DisableLimits).
	InvertedLimitGate bool
}

func (p ActionPolicy) ReportsAllowed() bool {
	return !p.DisableReports
}

func (p ActionPolicy) SuspensionsAllowed() bool {
	return !p.DisableSuspensions
}

func (p ActionPolicy) LimitsAllowed() bool {
	if p.InvertedLimitGate {
		return p.DisableLimits
	}
	return !p.DisableLimits
}

func (p ActionPolicy) AllDisabled() bool {
	return p.DisableReports && p.DisableSuspensions && p.DisableLimits
}

// Optional guards on top of the action policy. The zero value disables all of
// them: every allowed action is sent.
type ActionLimits struct {
	// number of reports which can be filed per day, for all accounts combined (circuit breaker); 0 is unlimited
	ReportDay int
	// number of suspensions per day (circuit breaker); 0 is unlimited
	SuspendDay int
	// number of silences per day (circuit breaker); 0 is unlimited
	SilenceDay int
	// only report an account once per day, however many of its posts match
	ReportDedupe bool
}

// The subset of the Mastodon API the executor needs. Implemented by *mastodon.Client.
type ModerationClient interface {
	CreateReport(ctx context.Context, input *mastodon.CreateReportInput) (*mastodon.Report, error)
	AdminAccountAction(ctx context.Context, accountID string, input *mastodon.AccountActionInput) error
}

var _ ModerationClient = (*mastodon.Client)(nil)

// Carries out the actions of a matched signature.
//
// Counters, Cache and Breaker must all be set; NewExecutor does that.
type Executor struct {
	Logger   *slog.Logger
	Client   ModerationClient
	Policy   ActionPolicy
	Limits   ActionLimits
	Counters countstore.CountStore
	Cache    cachestore.CacheStore
	Breaker  *gobreaker.CircuitBreaker
}

func NewExecutor(logger *slog.Logger, client ModerationClient, policy ActionPolicy, limits ActionLimits, counters countstore.CountStore, cache cachestore.CacheStore) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		Logger:   logger,
		Client:   client,
		Policy:   policy,
		Limits:   limits,
		Counters: counters,
		Cache:    cache,
		Breaker:  NewModerationBreaker(logger),
	}
}

// Trips after five consecutive failed API calls, and stays open for five
// minutes before letting a single probe request through.
func NewModerationBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "moderation-api",
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			breakerState.Set(float64(to))
		},
	})
}

// Execute applies the actions of a match, in fixed order:
//
//  1. report the post, if requested and reports are allowed
//  2. suspend the account, if requested and suspensions are allowed
//  3. otherwise, silence the account, if requested and limits are allowed
//
// A failed step does not prevent later steps. All failures are returned, joined.
func (ex *Executor) Execute(ctx context.Context, m *Match) error {
	if !m.Verdict.Actions.Any() {
		return nil
	}
	logger := ex.Logger.With("post", m.Post.ID, "account", m.Post.Account.ID, "signature", m.Signature)
	if ex.Client == nil {
		logger.Warn("no moderation client configured, skipping actions", "actions", m.Verdict.Actions.String())
		return nil
	}

	acts := m.Verdict.Actions
	var errs []error
	if acts.SendReport && ex.Policy.ReportsAllowed() {
		if err := ex.reportPost(ctx, logger, m); err != nil {
			errs = append(errs, err)
		}
	}

	if acts.SuspendAccount && ex.Policy.SuspensionsAllowed() {
		if err := ex.accountAction(ctx, logger, m, mastodon.AccountActionSuspend, ex.Limits.SuspendDay); err != nil {
			errs = append(errs, err)
		}
	} else if acts.LimitAccount && ex.Policy.LimitsAllowed() {
		if err := ex.accountAction(ctx, logger, m, mastodon.AccountActionSilence, ex.Limits.SilenceDay); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ex *Executor) failure(code string, m *Match) oops.OopsErrorBuilder {
	return oops.Code(code).With("post", m.Post.ID, "account", m.Post.Account.ID, "signature", m.Signature)
}

// checks the daily quota for an action type; returns true if there is room left (or no quota)
func (ex *Executor) underQuota(ctx context.Context, logger *slog.Logger, kind string, quota int) (bool, error) {
	if quota <= 0 {
		return true, nil
	}
	c, err := ex.Counters.GetCount(ctx, quotaCounter, kind, countstore.PeriodDay)
	if err != nil {
		return false, err
	}
	if c >= quota {
		logger.Warn("CIRCUIT BREAKER: daily action quota reached", "action", kind, "quota", quota)
		actionSkipCount.WithLabelValues(kind, "quota").Inc()
		return false, nil
	}
	return true, nil
}

func (ex *Executor) reportPost(ctx context.Context, logger *slog.Logger, m *Match) error {
	acct := m.Post.Account.ID

	if ex.Limits.ReportDedupe {
		// don't report the same account multiple times on the same day
		existing, err := ex.Counters.GetCount(ctx, accountReportCounter, acct, countstore.PeriodDay)
		if err != nil {
			return ex.failure("report_failed", m).Wrapf(err, "reading report counter")
		}
		if existing > 0 {
			logger.Info("skipping report, account already reported today", "existing", existing)
			actionSkipCount.WithLabelValues("report", "dupe").Inc()
			return nil
		}
	}
	ok, err := ex.underQuota(ctx, logger, "report", ex.Limits.ReportDay)
	if err != nil {
		return ex.failure("report_failed", m).Wrapf(err, "reading report quota")
	}
	if !ok {
		return nil
	}

	input := &mastodon.CreateReportInput{
		AccountID: acct,
		StatusIDs: []string{m.Post.ID},
		Comment:   "spam detected by " + m.Verdict.Reason,
		Category:  mastodon.ReportCategorySpam,
		Forward:   true,
	}
	res, err := ex.Breaker.Execute(func() (interface{}, error) {
		return ex.Client.CreateReport(ctx, input)
	})
	if err != nil {
		actionCount.WithLabelValues("report", "error").Inc()
		return ex.failure("report_failed", m).Wrapf(err, "creating report")
	}
	report := res.(*mastodon.Report)
	actionCount.WithLabelValues("report", "ok").Inc()
	logger.Warn("created report", "report", report.ID)

	if err := ex.Counters.Increment(ctx, accountReportCounter, acct); err != nil {
		logger.Error("failed to increment report counter", "err", err)
	}
	if err := ex.Counters.Increment(ctx, quotaCounter, "report"); err != nil {
		logger.Error("failed to increment report quota", "err", err)
	}
	return nil
}

func (ex *Executor) accountAction(ctx context.Context, logger *slog.Logger, m *Match, action string, quota int) error {
	acct := m.Post.Account.ID
	code := action + "_failed"

	prior, err := ex.Cache.Get(ctx, accountActionCache, acct)
	if err != nil {
		return ex.failure(code, m).Wrapf(err, "reading account action cache")
	}
	// a suspension supersedes a silence, but not the other way around
	if prior == mastodon.AccountActionSuspend || prior == action {
		logger.Info("skipping account action, already applied", "action", action, "prior", prior)
		actionSkipCount.WithLabelValues(action, "dupe").Inc()
		return nil
	}
	ok, err := ex.underQuota(ctx, logger, action, quota)
	if err != nil {
		return ex.failure(code, m).Wrapf(err, "reading %s quota", action)
	}
	if !ok {
		return nil
	}

	// claim the account before the API call, and release the claim if the call fails
	if err := ex.Cache.Set(ctx, accountActionCache, acct, action); err != nil {
		logger.Error("failed to cache account action", "err", err)
	}
	_, err = ex.Breaker.Execute(func() (interface{}, error) {
		return nil, ex.Client.AdminAccountAction(ctx, acct, &mastodon.AccountActionInput{Type: action})
	})
	if err != nil {
		actionCount.WithLabelValues(action, "error").Inc()
		if perr := ex.releaseClaim(ctx, acct, prior); perr != nil {
			logger.Error("failed to release account action claim", "err", perr)
		}
		return ex.failure(code, m).Wrapf(err, "admin account action %s", action)
	}
	actionCount.WithLabelValues(action, "ok").Inc()
	switch action {
	case mastodon.AccountActionSuspend:
		logger.Warn("account suspended")
	case mastodon.AccountActionSilence:
		logger.Warn("account limited / silenced")
	}

	if err := ex.Counters.Increment(ctx, quotaCounter, action); err != nil {
		logger.Error("failed to increment action quota", "err", err, "action", action)
	}
	return nil
}

// puts back whatever was cached before the failed action (eg, an earlier silence)
func (ex *Executor) releaseClaim(ctx context.Context, acct, prior string) error {
	if prior == "" {
		return ex.Cache.Purge(ctx, accountActionCache, acct)
	}
	return ex.Cache.Set(ctx, accountActionCache, acct, prior)
}
