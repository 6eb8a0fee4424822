package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/automod/cachestore"
	"github.com/bluesky-social/fedimod/automod/countstore"
	"github.com/bluesky-social/fedimod/automod/setstore"
	"github.com/bluesky-social/fedimod/automod/signatures"
	"github.com/bluesky-social/fedimod/mastodon"
	"github.com/bluesky-social/fedimod/util"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

var ErrMissingCredentials = errors.New("API URL and Access Token are required.")

type Server struct {
	host        string
	accessToken string
	logger      *slog.Logger
	engine      *automod.Engine
	rdb         *redis.Client
}

type Config struct {
	BaseURL            string
	AccessToken        string
	Policy             automod.ActionPolicy
	Limits             automod.ActionLimits
	DisabledSignatures []string
	StrictSignatures   bool
	SetsFileJSON       string
	RedisURL           string
	SlackWebhookURL    string
	APIRateLimit       float64
	APIRetries         int
	Logger             *slog.Logger
}

func (c *Config) Validate() error {
	if c.BaseURL == "" || c.AccessToken == "" {
		return ErrMissingCredentials
	}
	return nil
}

func loadSignatures(logger *slog.Logger, sets setstore.SetStore, disabled []string, strict bool) ([]automod.Signature, error) {
	if sets == nil {
		sets = setstore.NewMemSetStore()
	}
	sigs, err := automod.Discover(signatures.DefaultSignatures(sets), automod.RegistryOptions{
		Disabled: disabled,
		Strict:   strict,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("loading signatures: %w", err)
	}
	return sigs, nil
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Policy.AllDisabled() {
		logger.Warn("All actions are disabled. No actions will be taken.")
	}
	if config.Policy.InvertedLimitGate {
		logger.Warn("inverted limit gate is active: accounts are only limited when DISABLE_LIMIT_ACCOUNTS is set", "disable_limit_accounts", config.Policy.DisableLimits)
	}

	sets := setstore.NewMemSetStore()
	if config.SetsFileJSON != "" {
		if err := sets.LoadFromFileJSON(config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("initializing in-process setstore: %v", err)
		} else {
			logger.Info("loaded set config from JSON", "path", config.SetsFileJSON)
		}
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}
		counters = countstore.NewRedisCountStore(rdb)
		cache = cachestore.NewRedisCacheStore(rdb, 24*time.Hour)
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 24*time.Hour)
	}

	sigs, err := loadSignatures(logger, sets, config.DisabledSignatures, config.StrictSignatures)
	if err != nil {
		return nil, err
	}

	client := &mastodon.Client{
		Client: util.RobustHTTPClient(util.HTTPClientOptions{
			RetryMax: config.APIRetries,
			Logger:   logger,
		}),
		Host:        util.HTTPUrlForHost(config.BaseURL),
		AccessToken: config.AccessToken,
	}
	if config.APIRateLimit > 0 {
		client.Limiter = rate.NewLimiter(rate.Limit(config.APIRateLimit), 1)
	}

	engine := automod.Engine{
		Logger:     logger,
		Signatures: sigs,
		Executor:   automod.NewExecutor(logger, client, config.Policy, config.Limits, counters, cache),
	}
	if config.SlackWebhookURL != "" {
		engine.Notifier = &automod.SlackNotifier{
			SlackWebhookURL: config.SlackWebhookURL,
			Client:          util.RobustHTTPClient(util.HTTPClientOptions{RetryMax: 2, Logger: logger}),
		}
	}

	s := &Server{
		host:        config.BaseURL,
		accessToken: config.AccessToken,
		logger:      logger,
		engine:      &engine,
		rdb:         rdb,
	}
	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (s *Server) Close() error {
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}
