package automod

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluesky-social/fedimod/automod/helpers"
	"github.com/bluesky-social/fedimod/mastodon"
	"github.com/bluesky-social/fedimod/util/errutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("automod")

// A lazy sequence of streaming events. Implemented by *mastodon.Stream.
type EventSource interface {
	Next(ctx context.Context) (*mastodon.StreamEvent, error)
}

var _ EventSource = (*mastodon.Stream)(nil)

// runtime for evaluating signatures against posts, and carrying out the resulting moderation actions.
type Engine struct {
	Logger *slog.Logger
	// evaluated in order; the first positive verdict wins
	Signatures []Signature
	// optional; if nil, matches are only logged
	Executor *Executor
	// optional
	Notifier Notifier
}

// Run drains the source one event at a time, fully processing each event
// before pulling the next. It only returns when the source does, with the
// source's error (eg, stream closed, or context cancelled).
func (eng *Engine) Run(ctx context.Context, src EventSource) error {
	for {
		evt, err := src.Next(ctx)
		if err != nil {
			return err
		}
		if err := eng.ProcessEvent(ctx, evt); err != nil {
			errutil.LogError(eng.Logger, "failed to process event", err, "event", evt.Event)
		}
	}
}

// Only "update" events are evaluated; anything else is counted and dropped.
func (eng *Engine) ProcessEvent(ctx context.Context, evt *mastodon.StreamEvent) error {
	eventProcessCount.WithLabelValues(evt.Event).Inc()
	if evt.Event != mastodon.EventUpdate {
		eng.Logger.Debug("ignoring stream event", "event", evt.Event)
		return nil
	}

	post, err := evt.Status()
	if err != nil {
		// malformed posts are not fatal, and not retried
		eventErrorCount.WithLabelValues(evt.Event).Inc()
		eng.Logger.Warn("skipping unparseable status payload", "err", err)
		return nil
	}
	return eng.ProcessPost(ctx, post)
}

func (eng *Engine) ProcessPost(ctx context.Context, post *mastodon.Status) error {
	ctx, span := tracer.Start(ctx, "ProcessPost")
	defer span.End()
	span.SetAttributes(
		attribute.String("post", post.ID),
		attribute.String("account", post.Account.ID),
	)

	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues(mastodon.EventUpdate).Observe(time.Since(start).Seconds())
	}()

	logger := eng.Logger.With("post", post.ID, "account", post.Account.ID)
	logger.Debug("processing post")

	m, ok := eng.Evaluate(post)
	if !ok {
		return nil
	}
	span.SetAttributes(attribute.String("signature", m.Signature))
	signatureMatchCount.WithLabelValues(m.Signature).Inc()

	logger.Warn(FormatAlert(m),
		"alert", "spam",
		"signature", m.Signature,
		"reason", m.Verdict.Reason,
		"actions", m.Verdict.Actions.Names(),
		// copy-paste waves share a fingerprint across accounts
		"fingerprint", helpers.HashOfString(helpers.PlainText(post.Content)),
	)

	var execErr error
	if eng.Executor != nil {
		execErr = eng.Executor.Execute(ctx, m)
		if execErr != nil {
			eventErrorCount.WithLabelValues(mastodon.EventUpdate).Inc()
			span.SetStatus(codes.Error, execErr.Error())
		}
	}

	if eng.Notifier != nil {
		if err := eng.Notifier.SendMatch(ctx, m); err != nil {
			logger.Error("failed to send match notification", "err", err)
		}
	}
	return execErr
}

// Evaluate runs the signatures in order, and returns the first positive
// verdict. Signatures after the first match are not evaluated.
func (eng *Engine) Evaluate(post *mastodon.Status) (*Match, bool) {
	for _, sig := range eng.Signatures {
		v, err := eng.checkSignature(sig, post)
		if err != nil {
			eng.Logger.Error("signature check failed", "err", err, "signature", sig.Name, "post", post.ID)
			continue
		}
		if v.IsSpam {
			return &Match{Post: post, Signature: sig.Name, Verdict: v}, true
		}
	}
	return nil, false
}

// similar to an HTTP server, we want to recover any panics from signature execution
func (eng *Engine) checkSignature(sig Signature, post *mastodon.Status) (v Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			signaturePanicCount.WithLabelValues(sig.Name).Inc()
			v = Verdict{}
			err = fmt.Errorf("signature panic: %v", r)
		}
	}()
	return sig.Check(post), nil
}
