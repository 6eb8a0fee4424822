package mastodon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bluesky-social/fedimod/util"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/websocket"
)

// Name of the federated public timeline stream
const StreamPublic = "public"

type StreamOptions struct {
	// Base URL of the server; http(s) URLs are converted to ws(s)
	Host        string
	AccessToken string
	// Stream name, defaults to StreamPublic
	Stream string
	Logger *slog.Logger
	// Interval between websocket pings; defaults to 30 seconds
	PingInterval time.Duration
}

// Stream is a single subscription to the streaming API. It is a lazy,
// non-restartable sequence: once Next returns an error (connection closed,
// context cancelled), every later call returns the same error.
type Stream struct {
	con    *websocket.Conn
	logger *slog.Logger
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

func StreamURL(host, stream string) (string, error) {
	u, err := url.Parse(util.WebsocketUrlForHost(host))
	if err != nil {
		return "", fmt.Errorf("invalid streaming host URI: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/streaming"
	u.RawQuery = url.Values{"stream": []string{stream}}.Encode()
	return u.String(), nil
}

func DialStream(ctx context.Context, opts StreamOptions) (*Stream, error) {
	if opts.Stream == "" {
		opts.Stream = StreamPublic
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = 30 * time.Second
	}
	u, err := StreamURL(opts.Host, opts.Stream)
	if err != nil {
		return nil, err
	}

	hdr := http.Header{
		"User-Agent": []string{fmt.Sprintf("fedimod/%s", versioninfo.Short())},
	}
	if opts.AccessToken != "" {
		hdr.Set("Authorization", "Bearer "+opts.AccessToken)
	}
	con, resp, err := websocket.DefaultDialer.DialContext(ctx, u, hdr)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("subscribing to stream failed (dialing, status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("subscribing to stream failed (dialing): %w", err)
	}

	pctx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		con:    con,
		logger: opts.Logger.With("stream", opts.Stream),
		cancel: cancel,
	}

	go func() {
		t := time.NewTicker(opts.PingInterval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				if err := con.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second*10)); err != nil {
					s.logger.Warn("failed to ping", "err", err)
				}
			case <-pctx.Done():
				con.Close()
				return
			}
		}
	}()

	return s, nil
}

// Next blocks until the next event arrives. Messages which can not be
// decoded are logged and skipped.
func (s *Stream) Next(ctx context.Context) (*StreamEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	// unblock the read if the caller gives up
	stop := context.AfterFunc(ctx, func() { s.con.Close() })
	defer stop()

	for {
		mt, raw, err := s.con.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			s.fail(err)
			return nil, s.err
		}
		if mt != websocket.TextMessage {
			s.logger.Debug("ignoring non-text stream message", "type", mt)
			continue
		}
		var evt StreamEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			s.logger.Warn("failed to decode stream message", "err", err)
			continue
		}
		if evt.Event == "" {
			continue
		}
		return &evt, nil
	}
}

func (s *Stream) fail(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = fmt.Errorf("%w: %w", ErrStreamClosed, err)
	}
	s.err = err
	s.cancel()
}

var ErrStreamClosed = errors.New("stream closed by server")

// Close tears down the connection; any blocked or later Next returns an error.
func (s *Stream) Close() error {
	s.cancel()
	return nil
}
