package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lojhan/hashtable/internal/command"
	"github.com/lojhan/hashtable/internal/logutil"
	"github.com/lojhan/hashtable/internal/server"
	"github.com/lojhan/hashtable/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	logCfg := logutil.DefaultConfig()

	port := flag.String("port", server.DefaultPort, "Port to listen on")
	multicore := flag.Bool("multicore", false, "Run one event loop per CPU")
	reusePort := flag.Bool("reuseport", false, "Set SO_REUSEPORT on the listener")
	shutdownTimeout := flag.Duration("shutdown-timeout", 5*time.Second, "Time allowed for a graceful stop")
	flag.StringVar(&logCfg.Level, "log-level", logCfg.Level, "Log level: debug, info, warn, error")
	flag.StringVar(&logCfg.Format, "log-format", logCfg.Format, "Log format: console, json")
	flag.StringVar(&logCfg.Filename, "log-file", logCfg.Filename, "Log file (empty logs to stderr)")
	flag.IntVar(&logCfg.MaxSize, "log-max-size", logCfg.MaxSize, "Rotate the log file after this many megabytes")
	flag.IntVar(&logCfg.MaxDays, "log-max-days", logCfg.MaxDays, "Days to keep rotated log files (0 keeps them all)")
	flag.IntVar(&logCfg.MaxBackups, "log-max-backups", logCfg.MaxBackups, "Rotated log files to keep (0 keeps them all)")
	flag.Parse()

	logger, err := logutil.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() {
		// stderr cannot be synced on some platforms
		if syncErr := logger.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.EINVAL) {
			err = multierr.Append(err, syncErr)
		}
	}()

	dataStore := store.NewStore(logger.Named("store"))
	srv := server.NewServer(server.Config{
		Port:      *port,
		Multicore: *multicore,
		ReusePort: *reusePort,
	}, logger.Named("server"))

	srv.RegisterCommand("PING", command.PingCommand)
	srv.RegisterCommand("ECHO", command.EchoCommand)
	srv.RegisterCommand("COMMAND", command.CommandCommand(srv.Commands))
	srv.RegisterCommand("INFO", command.InfoCommand(dataStore, srv))

	srv.RegisterCommand("SET", command.SetCommand(dataStore))
	srv.RegisterCommand("SETNX", command.SetNXCommand(dataStore))
	srv.RegisterCommand("GET", command.GetCommand(dataStore))
	srv.RegisterCommand("DEL", command.DelCommand(dataStore))
	srv.RegisterCommand("EXISTS", command.ExistsCommand(dataStore))
	srv.RegisterCommand("DBSIZE", command.DBSizeCommand(dataStore))
	srv.RegisterCommand("KEYS", command.KeysCommand(dataStore))
	srv.RegisterCommand("FLUSHDB", command.FlushDBCommand(dataStore))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting hashtable server", zap.String("port", *port))
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		// A second signal kills the process.
		stop()
		logger.Info("shutting down server")

		stopCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := srv.Stop(stopCtx); err != nil && !errors.Is(err, server.ErrNotRunning) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	return nil
}
