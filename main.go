package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"skidoodle/now-playing/internal/config"
	"skidoodle/now-playing/internal/nowplaying"
	"skidoodle/now-playing/internal/server"
	"skidoodle/now-playing/internal/spotify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:    "now-playing",
		Usage:   "Serve the currently playing Spotify track as JSON",
		Version: "1.0.0",
		Flags:   []cli.Flag{configFlag()},
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
			{
				Name:   "now",
				Usage:  "Fetch the currently playing track once and print it as JSON",
				Flags:  []cli.Flag{configFlag()},
				Action: now,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("application error")
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to an optional TOML configuration file",
		Sources: cli.EnvVars("CONFIG_FILE"),
	}
}

// setup loads the configuration and builds the now-playing service.
func setup(cmd *cli.Command) (*config.Config, *logrus.Logger, *nowplaying.Service, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger := cfg.NewLogger()

	creds := cfg.Credentials()
	if err := creds.Validate(); err != nil {
		logger.WithError(err).Warn("spotify credentials are not set, every request will fail")
	}

	timeout, err := cfg.UpstreamTimeout()
	if err != nil {
		return nil, nil, nil, err
	}

	client := spotify.NewClient(
		spotify.WithHTTPClient(&http.Client{Timeout: timeout}),
		spotify.WithTokenURL(cfg.Spotify.TokenURL),
		spotify.WithCurrentlyPlayingURL(cfg.Spotify.CurrentlyPlayingURL),
	)

	return cfg, logger, nowplaying.NewService(client, creds), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, svc, err := setup(cmd)
	if err != nil {
		return err
	}

	interval, err := cfg.StreamInterval()
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Addr:           net.JoinHostPort("", cfg.Server.Port),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Stream:         cfg.Stream.Enabled,
		StreamInterval: interval,
	}, svc, logger)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("application shut down gracefully")
	return nil
}

func now(ctx context.Context, cmd *cli.Command) error {
	_, logger, svc, err := setup(cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	view, err := svc.NowPlaying(ctx)
	if err != nil {
		kind, upstreamStatus := nowplaying.Classify(err)
		logger.WithFields(logrus.Fields{
			"kind":           kind,
			"upstreamStatus": upstreamStatus,
		}).Debug("now playing failed")

		if encErr := enc.Encode(nowplaying.ErrorResponse{
			Error:   nowplaying.ErrorSummary,
			Details: nowplaying.Details(err),
		}); encErr != nil {
			return errors.Join(err, encErr)
		}
		return err
	}

	return enc.Encode(view)
}
