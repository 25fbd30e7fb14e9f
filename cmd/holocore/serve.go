package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/holocore/internal/app"
	"github.com/ayusman/holocore/pkg/logger"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		record string
		addr   string
		noTray bool
		start  bool
		webDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recognizer with the HTTP API and tray menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if start {
				cfg.AutoStart = true
			}

			if webDir == "" {
				webDir = findWebDir(cfg.DataDir)
			}
			opts := []app.Option{app.WithStaticDir(webDir)}
			if noTray {
				opts = append(opts, app.WithoutTray())
			}
			if record != "" {
				f, err := os.Create(record)
				if err != nil {
					return fmt.Errorf("create recording: %w", err)
				}
				defer f.Close()
				opts = append(opts, app.WithRecorder(f))
			}

			a, err := app.New(cfg, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.Named("holocore")
			log.Info("starting", logger.String("addr", cfg.Addr), logger.String("data_dir", cfg.DataDir), logger.String("web", webDir))
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "write every landmark frame to this JSONL file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, empty disables the API")
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "do not show the tray menu")
	cmd.Flags().BoolVar(&start, "start", false, "start recognition immediately")
	cmd.Flags().StringVar(&webDir, "web", "", "directory with the control panel")
	return cmd
}
