package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/telegram-mcp/internal/config"
	"github.com/p-blackswan/telegram-mcp/internal/health"
	"github.com/p-blackswan/telegram-mcp/internal/mcp"
	"github.com/p-blackswan/telegram-mcp/internal/metrics"
	"github.com/p-blackswan/telegram-mcp/internal/telegram"
	"github.com/p-blackswan/telegram-mcp/internal/tool"
	"github.com/p-blackswan/telegram-mcp/internal/transport"
)

func main() {
	// stdout carries the protocol in stdio mode, so logs go to stderr.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config (is TELEGRAM_BOT_TOKEN set?)")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("transport", cfg.Transport).
		Str("server", cfg.ServerName).
		Str("version", cfg.ServerVersion).
		Msg("starting telegram mcp server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	bot := telegram.NewClient(cfg.TelegramBotToken,
		telegram.WithAPIBaseURL(cfg.TelegramAPIBaseURL),
		telegram.WithTimeout(cfg.TelegramHTTPTimeout),
		telegram.WithLogger(logger),
		telegram.WithMetrics(m),
	)

	dispatcher := tool.NewDispatcher(bot, m, logger)

	server, err := mcp.NewServer(mcp.ServerInfo{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, dispatcher, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create mcp server")
	}

	checker := health.NewChecker(logger)
	checker.Register("telegram", health.BotCheck(bot))

	httpCfg := transport.HTTPConfig{
		ListenAddr: cfg.HTTPListenAddr,
		Auth: transport.AuthConfig{
			Mode:      cfg.HTTPAuthMode,
			APIKey:    cfg.HTTPAPIKey,
			JWTSecret: cfg.HTTPJWTSecret,
		},
		CORSOrigins: cfg.HTTPCORSOrigins,
	}

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 2)
	)
	run := func(fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- err
			}
			// Whichever server stops first takes the rest down with it.
			stop()
		}()
	}

	if cfg.HTTPEnabled() {
		srv := transport.NewHTTPServer(httpCfg, server, checker, m, logger)
		run(srv.Serve)
	} else {
		if cfg.MgmtEnabled() {
			httpCfg.ListenAddr = cfg.MgmtListenAddr
			mgmt := transport.NewHTTPServer(httpCfg, nil, checker, m, logger)
			run(mgmt.Serve)
		}

		stdio := transport.NewStdio(os.Stdin, os.Stdout, m, logger)
		run(func(ctx context.Context) error { return stdio.Serve(ctx, server) })
	}

	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}

	logger.Info().Msg("shutdown complete")
}
