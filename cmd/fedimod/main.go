package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bluesky-social/fedimod/automod"
	"github.com/bluesky-social/fedimod/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			slog.Error(err.Error())
			os.Exit(exitErr.ExitCode())
		}
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "fedimod",
		Usage:   "spam filter daemon for Mastodon-compatible servers",
		Version: versioninfo.Short(),
		// exit codes are handled in main()
		ExitErrHandler: func(cctx *cli.Context, err error) {},
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "base URL of the Mastodon server to moderate, eg https://mastodon.example",
			EnvVars: []string{"BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "access-token",
			Usage:   "access token of a moderator account (scopes: read, write:reports, admin:write:accounts)",
			EnvVars: []string{"ACCESS_TOKEN"},
		},
		&cli.BoolFlag{
			Name:    "log-debug",
			EnvVars: []string{"LOG_DEBUG"},
		},
		&cli.BoolFlag{
			Name:    "log-info",
			EnvVars: []string{"LOG_INFO"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: 'text' or 'json'",
			Value:   "text",
			EnvVars: []string{"LOG_FORMAT"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		signaturesCmd,
	}
	app.DefaultCommand = "run"

	return app.Run(args)
}

func configLogger(cctx *cli.Context) (*slog.Logger, error) {
	return cliutil.SetupSlog(cliutil.LogOptions{
		Debug:     cctx.Bool("log-debug"),
		Info:      cctx.Bool("log-info"),
		LogFormat: cctx.String("log-format"),
	})
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "subscribe to the public timeline and moderate it",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "disable-send-reports",
			EnvVars: []string{"DISABLE_SEND_REPORTS"},
		},
		&cli.BoolFlag{
			Name:    "disable-suspend-accounts",
			EnvVars: []string{"DISABLE_SUSPEND_ACCOUNTS"},
		},
		&cli.BoolFlag{
			Name:    "disable-limit-accounts",
			EnvVars: []string{"DISABLE_LIMIT_ACCOUNTS"},
		},
		&cli.BoolFlag{
			Name:    "inverted-limit-gate",
			Usage:   "only limit (silence) accounts when DISABLE_LIMIT_ACCOUNTS is set; the historical behavior",
			Value:   true,
			EnvVars: []string{"FEDIMOD_INVERTED_LIMIT_GATE"},
		},
		&cli.StringFlag{
			Name:    "disable-signatures",
			Usage:   "comma-separated names of signatures to disable",
			EnvVars: []string{"DISABLE_SIGNATURES"},
		},
		&cli.BoolFlag{
			Name:    "strict-signatures",
			Usage:   "fail at startup if any signature can not be loaded",
			EnvVars: []string{"FEDIMOD_STRICT_SIGNATURES"},
		},
		&cli.StringFlag{
			Name:    "sets-json-path",
			Usage:   "file path of JSON file containing static sets (eg, bad-domains)",
			EnvVars: []string{"FEDIMOD_SETS_JSON"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for counters and caches (in-process stores if not set)",
			EnvVars: []string{"FEDIMOD_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook",
			EnvVars: []string{"FEDIMOD_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs (disabled if empty)",
			Value:   ":3998",
			EnvVars: []string{"FEDIMOD_METRICS_LISTEN"},
		},
		&cli.Float64Flag{
			Name:    "api-rate-limit",
			Usage:   "max moderation API requests per second",
			Value:   5,
			EnvVars: []string{"FEDIMOD_API_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "api-retries",
			Usage:   "max retries of a failed moderation API request (transient failures only)",
			Value:   1,
			EnvVars: []string{"FEDIMOD_API_RETRIES"},
		},
		&cli.IntFlag{
			Name:    "quota-report-day",
			Usage:   "max reports filed per day, all accounts combined (0 for unlimited)",
			EnvVars: []string{"FEDIMOD_QUOTA_REPORT_DAY"},
		},
		&cli.IntFlag{
			Name:    "quota-suspend-day",
			Usage:   "max account suspensions per day (0 for unlimited)",
			EnvVars: []string{"FEDIMOD_QUOTA_SUSPEND_DAY"},
		},
		&cli.IntFlag{
			Name:    "quota-silence-day",
			Usage:   "max account silences per day (0 for unlimited)",
			EnvVars: []string{"FEDIMOD_QUOTA_SILENCE_DAY"},
		},
		&cli.BoolFlag{
			Name:    "report-dedupe",
			Usage:   "report each account at most once per day, however many of its posts match",
			EnvVars: []string{"FEDIMOD_REPORT_DEDUPE"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger, err := configLogger(cctx)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}

		config := Config{
			BaseURL:     cctx.String("base-url"),
			AccessToken: cctx.String("access-token"),
			Policy: automod.ActionPolicy{
				DisableReports:     cctx.Bool("disable-send-reports"),
				DisableSuspensions: cctx.Bool("disable-suspend-accounts"),
				DisableLimits:      cctx.Bool("disable-limit-accounts"),
				InvertedLimitGate:  cctx.Bool("inverted-limit-gate"),
			},
			Limits: automod.ActionLimits{
				ReportDay:    cctx.Int("quota-report-day"),
				SuspendDay:   cctx.Int("quota-suspend-day"),
				SilenceDay:   cctx.Int("quota-silence-day"),
				ReportDedupe: cctx.Bool("report-dedupe"),
			},
			DisabledSignatures: automod.ParseDisableList(cctx.String("disable-signatures")),
			StrictSignatures:   cctx.Bool("strict-signatures"),
			SetsFileJSON:       cctx.String("sets-json-path"),
			RedisURL:           cctx.String("redis-url"),
			SlackWebhookURL:    cctx.String("slack-webhook-url"),
			APIRateLimit:       cctx.Float64("api-rate-limit"),
			APIRetries:         cctx.Int("api-retries"),
			Logger:             logger,
		}
		if err := config.Validate(); err != nil {
			return cli.Exit(err.Error(), 2)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownOTEL := configOTEL("fedimod")
		defer shutdownOTEL()

		srv, err := NewServer(config)
		if err != nil {
			return err
		}
		defer srv.Close()

		if listen := cctx.String("metrics-listen"); listen != "" {
			go func() {
				if err := srv.RunMetrics(listen); err != nil {
					slog.Error("failed to start metrics endpoint", "error", err)
					panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
				}
			}()
		}

		logger.Info("fedimod started", "version", versioninfo.Short(), "host", config.BaseURL)
		if err := srv.RunConsumer(ctx); err != nil {
			return fmt.Errorf("failed to run moderation consumer: %w", err)
		}
		return nil
	},
}

var signaturesCmd = &cli.Command{
	Name:  "signatures",
	Usage: "list the signatures this build ships, in evaluation order",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "disable-signatures",
			EnvVars: []string{"DISABLE_SIGNATURES"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger, err := configLogger(cctx)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		sigs, err := loadSignatures(logger, nil, automod.ParseDisableList(cctx.String("disable-signatures")), false)
		if err != nil {
			return err
		}
		for _, s := range sigs {
			state := "enabled"
			if s.Disabled() {
				state = "disabled"
			}
			fmt.Fprintf(cctx.App.Writer, "%s\t%s\n", s.Name, state)
		}
		return nil
	},
}
