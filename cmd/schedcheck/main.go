// Command schedcheck explores the reachable scheduling states of a
// real-time workload and reports whether every job meets its deadline.
//
// Grounded on cmd/ollama-distributed/main.go's cobra root-command
// structure, trimmed to schedcheck's three verbs: the default single-file
// analysis, serve, and batch.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/schedcheck/schedcheck/internal/cluster"
	"github.com/schedcheck/schedcheck/internal/config"
	"github.com/schedcheck/schedcheck/internal/engine"
	"github.com/schedcheck/schedcheck/internal/httpapi"
	"github.com/schedcheck/schedcheck/internal/output"
	"github.com/schedcheck/schedcheck/internal/policy"
	"github.com/schedcheck/schedcheck/internal/store"
	"github.com/schedcheck/schedcheck/internal/workload"
)

var version = "0.1.0-dev"

func main() {
	var (
		timeLimitSeconds int
		naive            bool
		raw              bool
		outputPath       string
		verbose          int
	)

	root := &cobra.Command{
		Use:     "schedcheck WORKLOAD [WORKLOAD...]",
		Short:   "Schedulability analysis for real-time workloads",
		Version: version,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)
			return runAnalyze(logger, args, timeLimitSeconds, naive, raw, outputPath)
		},
	}
	root.PersistentFlags().IntVar(&timeLimitSeconds, "time-limit", 14400, "wall-clock exploration budget in seconds (0 disables)")
	root.PersistentFlags().BoolVar(&naive, "naive", false, "disable state merging and peek-ahead divergence detection")
	root.PersistentFlags().BoolVar(&raw, "raw", false, "emit the summary as comma-separated values instead of a table")
	root.PersistentFlags().StringVar(&outputPath, "output", "", "write per-job response times as CSV to this path (defaults to stdout table only)")
	root.PersistentFlags().IntVar(&verbose, "verbose", 3, "log verbosity, 0 (silent) to 5 (debug with source)")

	root.AddCommand(serveCmd(&verbose))
	root.AddCommand(batchCmd(&verbose))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger maps --verbose 0..5 onto slog.Level, preserving the original's
// six-level granularity within slog's four native levels.
func newLogger(verbose int) *slog.Logger {
	if verbose <= 0 {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	opts := &slog.HandlerOptions{}
	switch {
	case verbose == 1:
		opts.Level = slog.LevelError
	case verbose == 2:
		opts.Level = slog.LevelWarn
	case verbose == 3:
		opts.Level = slog.LevelInfo
	default:
		opts.Level = slog.LevelDebug
		if verbose >= 5 {
			opts.AddSource = true
		}
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// runAnalyze implements the default (no subcommand) action: analyze every
// workload file given on the command line and report a summary table plus,
// for --output, a CSV of per-job response times (only meaningful for a
// single workload file).
func runAnalyze(logger *slog.Logger, paths []string, timeLimitSeconds int, naive, raw bool, outputPath string) error {
	var timeLimit time.Duration
	if timeLimitSeconds > 0 {
		timeLimit = time.Duration(timeLimitSeconds) * time.Second
	}

	var rows []output.SummaryRow
	exitErr := false

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %q: %w", path, err)
		}
		w, err := workload.Load(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("load %q: %w", path, err)
		}
		jobs, groups, spec, hyperperiod, err := workload.Expand(w)
		if err != nil {
			return fmt.Errorf("expand %q: %w", path, err)
		}
		bucketWidth := hyperperiod / 64
		if bucketWidth == 0 {
			bucketWidth = 1
		}
		e := engine.New(jobs, groups, policy.EDF{}, engine.Config{
			Naive:       naive,
			TimeLimit:   timeLimit,
			BucketWidth: bucketWidth,
		}, spec, hyperperiod, logger)

		ctx, cancel := context.WithCancel(context.Background())
		if err := e.Run(ctx); err != nil {
			cancel()
			return fmt.Errorf("analyze %q: %w", path, err)
		}
		cancel()

		summary := e.Summary()
		rows = append(rows, output.SummaryRow{OutputFile: path, Summary: summary})
		if !summary.Schedulable {
			exitErr = true
		}

		if outputPath != "" {
			csvFile, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("create %q: %w", outputPath, err)
			}
			err = output.WriteCSV(csvFile, e.Jobs(), e.ResponseTimes())
			csvFile.Close()
			if err != nil {
				return fmt.Errorf("write %q: %w", outputPath, err)
			}
		}
	}

	var writeErr error
	if raw {
		writeErr = output.WriteSummaryRaw(os.Stdout, rows)
	} else {
		writeErr = output.WriteSummaryTable(os.Stdout, rows)
	}
	if writeErr != nil {
		return writeErr
	}
	if exitErr {
		return fmt.Errorf("one or more workloads are not schedulable")
	}
	return nil
}

// serveCmd implements `schedcheck serve`, the W4 HTTP control plane.
func serveCmd(verbose *int) *cobra.Command {
	var (
		addr       string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.API.Listen = addr
			}

			var st *store.Store
			if cfg.DB.Host != "" {
				st, err = store.New(store.Config{
					Host: cfg.DB.Host, Port: cfg.DB.Port, Name: cfg.DB.Name,
					User: cfg.DB.User, Password: cfg.DB.Password, SSLMode: cfg.DB.SSLMode,
					MaxOpenConns: cfg.DB.MaxOpenConns, MaxIdleConns: cfg.DB.MaxIdleConns,
					ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
				}, logger)
				if err != nil {
					logger.Warn("run store unavailable, persistence disabled", "error", err)
					st = nil
				} else {
					defer st.Close()
				}
			}

			var cache store.RunCache
			if cfg.Redis.Host != "" {
				rc, err := store.NewRedisCache(store.RedisConfig{
					Host: cfg.Redis.Host, Port: cfg.Redis.Port, Password: cfg.Redis.Password,
					DB: cfg.Redis.DB, PoolSize: cfg.Redis.PoolSize, DialTimeout: cfg.Redis.DialTimeout,
					ReadTimeout: cfg.Redis.ReadTimeout, WriteTimeout: cfg.Redis.WriteTimeout,
				})
				if err != nil {
					logger.Warn("run cache unavailable, dedup/progress streaming disabled", "error", err)
				} else {
					cache = rc
					defer rc.Close()
				}
			}

			srv, err := httpapi.NewServer(cfg, st, cache, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override, e.g. :8080")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
	return cmd
}

// batchCmd implements `schedcheck batch`, the W6 cluster runner.
func batchCmd(verbose *int) *cobra.Command {
	var (
		workloadsDir string
		peers        string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze a directory of workloads across a peer mesh or locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)
			if workloadsDir == "" {
				return fmt.Errorf("--workloads is required")
			}
			entries, err := os.ReadDir(workloadsDir)
			if err != nil {
				return fmt.Errorf("read %q: %w", workloadsDir, err)
			}
			var paths []string
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				paths = append(paths, workloadsDir+string(os.PathSeparator)+e.Name())
			}

			var peerAddrs []string
			if peers != "" {
				peerAddrs = strings.Split(peers, ",")
			}

			ctx := context.Background()
			results, err := cluster.Run(ctx, paths, peerAddrs, logger)
			if err != nil {
				return err
			}

			rows := make([]output.SummaryRow, 0, len(results))
			failed := false
			for _, r := range results {
				if r.Err != "" {
					logger.Error("workload failed", "path", r.WorkloadPath, "error", r.Err)
					failed = true
					continue
				}
				rows = append(rows, output.SummaryRow{OutputFile: r.WorkloadPath, Summary: r.Summary})
				if !r.Summary.Schedulable {
					failed = true
				}
			}
			if err := output.WriteSummaryTable(os.Stdout, rows); err != nil {
				return err
			}
			if failed {
				return fmt.Errorf("one or more workloads failed or are not schedulable")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&workloadsDir, "workloads", "", "directory of workload YAML files")
	cmd.Flags().StringVar(&peers, "peers", "", "comma-separated libp2p peer multiaddrs (local fallback if empty)")
	return cmd
}
