package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giygas/cabinet/config"
	"github.com/giygas/cabinet/controller"
	"github.com/giygas/cabinet/health"
	"github.com/giygas/cabinet/logging"
	"github.com/giygas/cabinet/scheduler"
	"github.com/giygas/cabinet/server"
	"github.com/giygas/cabinet/store"
	"github.com/giygas/cabinet/views"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cabinet",
		Short: "Patient records, prescriptions and ultrasound reports for a single clinic",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFile()
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(backupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cabinet on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at info level on the console in test mode")
	return cmd
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the data slots to the backup directory once and prune old copies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.InitLoggerWithOptions(logging.OptionsFromConfig(cfg))
			defer logging.Close()

			fs, err := store.NewFileStore(cfg.DataDir)
			if err != nil {
				return err
			}

			sched := scheduler.NewScheduler(nil, fs, schedulerConfig(cfg))
			dir, err := sched.RunBackup()
			if err != nil {
				logging.Error("Backup failed", "error", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func schedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{
		SyncInterval: cfg.SyncInterval,
		BackupAt:     cfg.BackupAt,
		BackupDir:    cfg.BackupDir,
		BackupKeep:   cfg.BackupKeep,
	}
}

func runServe(verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return err
	}

	opts := logging.OptionsFromConfig(cfg)
	opts.Verbose = verbose
	logging.InitLoggerWithOptions(opts)
	defer logging.Close()

	logging.Info("Configuration loaded", "env", cfg.Env.String(), "port", cfg.Port, "data_dir", cfg.DataDir)

	fs, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		logging.Error("Failed to open data directory", "dir", cfg.DataDir, "error", err)
		return err
	}

	app := controller.New(fs)
	app.Load()

	renderer, err := views.New()
	if err != nil {
		logging.Error("Failed to parse templates", "error", err)
		return err
	}

	sched := scheduler.NewScheduler(app, fs, schedulerConfig(cfg))
	if err := sched.Start(); err != nil {
		return err
	}

	srv := server.NewServer(cfg, app, renderer, health.NewHealthChecker(app))

	// Profiling endpoint (accessible at /debug/pprof/) - only for local dev
	if cfg.Env == config.EnvDevelopment {
		go func() {
			logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				logging.Warn("Profiling server stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	case runErr = <-errCh:
		if runErr != nil {
			logging.Error("Server error", "error", runErr)
		}
	}

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown incomplete", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
