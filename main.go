package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"xmppctl/host"
	"xmppctl/internal/audit"
	"xmppctl/internal/cli"
	"xmppctl/internal/config"
	"xmppctl/launcher"
	"xmppctl/queue"
	"xmppctl/roster"
)

func main() {
	cfg := config.Load()
	logger := newLogger(os.Stderr, cfg.Debug)
	audit.SetOutput(os.Stderr)
	audit.Set(cfg.Debug)

	// This process holds no XMPP connection, so every msg is delegated to
	// the gateway binary.
	q := queue.NewManager(queuePolicy(cfg), logger)
	h := host.NewLocal(q, roster.NewStore(), nil)
	gw := launcher.New(cfg.GatewayBin, cfg.GatewayStartArgs, cfg.GatewaySendArgs, logger)

	root := cli.NewRootCommand(&cli.Deps{
		Host:    h,
		Gateway: gw,
		Config:  cfg,
		Log:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, root)
	stop()
	os.Exit(code)
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func queuePolicy(cfg *config.Config) queue.Policy {
	return queue.Policy{
		MaxAge:       cfg.QueueMaxAge,
		ProcessedTTL: cfg.QueueProcessedTTL,
		MaxEntries:   cfg.QueueMaxEntries,
	}
}
