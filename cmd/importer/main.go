package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-news-importer/internal/app"
	"github.com/samvad-hq/samvad-news-importer/internal/config"
	"github.com/samvad-hq/samvad-news-importer/internal/importer"
	"github.com/samvad-hq/samvad-news-importer/internal/logger"
	"github.com/samvad-hq/samvad-news-importer/internal/metrics"
)

// errBatchHasFailures makes the process exit non-zero after a report was printed.
var errBatchHasFailures = errors.New("one or more items failed")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errBatchHasFailures) {
			fmt.Fprintf(os.Stderr, "importer failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newRootCmd(os.Stdout).ExecuteContext(ctx)
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Normalize, validate and import news batches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCmd(out), newValidateCmd(out))
	return root
}

func newImportCmd(out io.Writer) *cobra.Command {
	var (
		rewrite bool
		source  string
	)
	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import JSON batch files, or pull from configured providers when no file is given",
		Example: `  importer import noticias.json
  importer import --rewrite-ai a.json b.json
  importer import                # pull from providers_file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logger.Init(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Close()

			ctx := cmd.Context()
			logger.InfoObj("importer starting", "config", map[string]any{
				"app_env":           cfg.Env,
				"store_type":        cfg.StoreType,
				"object_store_type": cfg.ObjectStoreType,
				"files":             len(args),
			})

			if cfg.MetricsAddr != "" {
				go func() {
					if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
						logger.ErrorObj("metrics server failed", "error", err)
					}
				}()
			}

			imp, err := app.NewImporter(ctx, cfg, log)
			if err != nil {
				logger.ErrorObj("failed to initialize importer", "error", err)
				return err
			}
			defer imp.Close()

			opts := importer.Options{RewriteWithAI: rewrite, Source: source}

			if len(args) == 0 {
				reports, runErr := imp.ImportProviders(ctx, opts)
				if err := writeJSON(out, reports); err != nil {
					return err
				}
				if runErr != nil {
					return fmt.Errorf("provider import: %w", runErr)
				}
				for _, r := range reports {
					if r.Report != nil && r.Report.Failed > 0 {
						return errBatchHasFailures
					}
				}
				return nil
			}

			report, err := imp.ImportFiles(ctx, args, opts)
			if err != nil {
				return fmt.Errorf("import files: %w", err)
			}
			if err := writeJSON(out, report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return errBatchHasFailures
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rewrite, "rewrite-ai", false, "send each item through the configured rewriter first")
	cmd.Flags().StringVar(&source, "source", "", "source label attached to import events")
	return cmd
}

func newValidateCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate file...",
		Short: "Normalize and validate JSON batch files without importing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			report, err := app.ValidateFiles(args)
			if err != nil {
				return fmt.Errorf("validate files: %w", err)
			}
			if err := writeJSON(out, report); err != nil {
				return err
			}
			if !report.Valid {
				return errBatchHasFailures
			}
			return nil
		},
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
