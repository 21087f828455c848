package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/httpapi"
	"github.com/usestring/storeadvisor/internal/ingest"
	"github.com/usestring/storeadvisor/internal/watch"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (and watch INBOX_DIR when set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer logCleanup()
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			ctx := cmd.Context()
			svc, cleanup, err := ingest.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return httpapi.New(svc).ListenAndServe(ctx, cfg.HTTPAddr)
			})
			if cfg.InboxDir != "" {
				g.Go(func() error {
					return runWatcher(ctx, cfg, svc, cfg.InboxDir)
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default HTTP_ADDR)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var existing bool

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Process JSON files as they land in DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer logCleanup()

			ctx := cmd.Context()
			svc, cleanup, err := ingest.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			w := watch.New(args[0], cfg.InboxDebounce, svc)
			w.ProcessExisting = existing
			return runWatcherWith(ctx, w)
		},
	}

	cmd.Flags().BoolVar(&existing, "existing", false, "Also process .json files already in DIR")
	return cmd
}

func runWatcher(ctx context.Context, cfg *config.Config, svc *ingest.Service, dir string) error {
	return runWatcherWith(ctx, watch.New(dir, cfg.InboxDebounce, svc))
}

func runWatcherWith(ctx context.Context, w *watch.Watcher) error {
	w.OnResult = func(path string, rep *ingest.Report, err error) {
		if err != nil {
			slog.Warn("inbox file failed", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		slog.Info("inbox file processed",
			slog.String("path", path),
			slog.String("database", string(rep.Result.Database)),
			slog.String("status", rep.Status),
		)
	}
	return w.Run(ctx)
}
