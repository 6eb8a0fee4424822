package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/mastodon"
)

// Subscribes to the public timeline and runs every post through the engine.
// The subscription is not restarted: when the stream ends, so does the daemon.
func (s *Server) RunConsumer(ctx context.Context) error {
	s.logger.Info("subscribing to public timeline", "upstream", s.host)
	stream, err := mastodon.DialStream(ctx, mastodon.StreamOptions{
		Host:        s.host,
		AccessToken: s.accessToken,
		Stream:      mastodon.StreamPublic,
		Logger:      s.logger,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	return s.consume(ctx, stream)
}

func (s *Server) consume(ctx context.Context, src automod.EventSource) error {
	err := s.engine.Run(ctx, src)
	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Info("shutting down")
		return nil
	case errors.Is(err, mastodon.ErrStreamClosed):
		s.logger.Warn("stream closed by server", "err", err)
		return nil
	default:
		return fmt.Errorf("reading stream: %w", err)
	}
}
