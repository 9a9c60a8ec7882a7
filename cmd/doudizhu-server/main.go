// Command doudizhu-server runs the room server: an HTTP listener exposing
// a websocket upgrade route, a lobby listing, and a health check, backed by
// the room manager in package room.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/doudizhu/room"
	"github.com/lox/doudizhu/server"
)

// CLI mirrors the config file's fields so flags can override it.
var CLI struct {
	Config   string `short:"c" long:"config" default:"doudizhu-server.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Listen address (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Seed     int64  `short:"s" long:"seed" help:"Seed for the room-id generator (overrides config)"`
	Debug    bool   `help:"Enable debug logging"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("doudizhu-server"),
		kong.Description("Three-player Dou Dizhu room server"),
		kong.UsageOnError(),
	)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		ctx.FatalIfErrorf(err)
	}
	if CLI.Addr != "" {
		cfg.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}
	if CLI.Seed != 0 {
		cfg.Seed = CLI.Seed
	}
	if err := cfg.Validate(); err != nil {
		ctx.FatalIfErrorf(err)
	}

	level := zerolog.InfoLevel
	if CLI.Debug {
		level = zerolog.DebugLevel
	} else if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	manager := room.NewManager(logger, seed)
	srv := server.NewServer(logger, manager, quartz.NewReal())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Address).Int64("seed", seed).Msg("starting")
		serverErr <- srv.Start(cfg.Address)
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server exited with error")
			ctx.Exit(1)
		}
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
