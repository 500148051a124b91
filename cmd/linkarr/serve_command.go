package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"linkarr/internal/autoscan"
	"linkarr/internal/logging"
	"linkarr/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the linkarr daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return errors.New("another linkarr instance is already running")
			}
			defer func() { _ = lock.Unlock() }()

			outputs := []string{"stdout"}
			if strings.TrimSpace(cfg.Paths.LogDir) != "" {
				outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, "linkarr.log"))
			}
			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: outputs,
			})
			if err != nil {
				return err
			}

			rt, err := ctx.openRuntime(logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			driver := autoscan.New(rt.scanner, rt.settings, logger)
			driver.Start()
			defer driver.Stop()

			srv := server.New(cfg.Paths.APIBind, rt.store, rt.settings, rt.scanner, driver, rt.bus, rt.catalog, logger)
			if err := srv.Start(signalCtx); err != nil {
				return err
			}
			defer srv.Stop()

			logger.Info("linkarr daemon started",
				logging.String("database", cfg.DatabasePath()),
				logging.String("lock", cfg.LockPath()))

			<-signalCtx.Done()
			logger.Info("linkarr daemon stopping")
			return nil
		},
	}
}
