package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ayusman/holocore/internal/app"
	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/source"
	"github.com/ayusman/holocore/pkg/logger"
)

func newReplayCmd(root *rootOptions) *cobra.Command {
	var (
		speed   float64
		actions bool
	)
	cmd := &cobra.Command{
		Use:   "replay file.jsonl",
		Short: "Run a landmark recording through the recognizer",
		Long: "Replay feeds a recorded JSONL landmark stream to the recognizer and prints\n" +
			"every accepted gesture event as one JSON line.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			cfg.Addr = ""

			var replayOpts []source.ReplayOption
			if cmd.Flags().Changed("realtime") {
				replayOpts = append(replayOpts, source.Realtime(speed))
			}
			path := args[0]
			factory := func() (source.Provider, error) {
				return source.OpenReplay(path, replayOpts...)
			}

			opts := []app.Option{app.WithProvider(factory), app.WithoutTray()}
			if !actions {
				opts = append(opts, app.WithoutActions())
			}
			a, err := app.New(cfg, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Recognizer().On(gesture.TopicRecognized, printEvents(cmd.OutOrStdout()))
			return replay(cmd.Context(), a)
		},
	}
	cmd.Flags().Float64Var(&speed, "realtime", 1, "pace frames by their timestamps at this speed")
	cmd.Flags().BoolVar(&actions, "actions", false, "execute the plugin actions bound to recognized gestures")
	return cmd
}

// replay runs the recording to completion, or until interrupted, while the
// app executes plugin actions in the background.
func replay(parent context.Context, a *app.App) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- a.Run(runCtx) }()

	if err := a.Start(); err != nil {
		cancel()
		<-done
		return err
	}
	go func() {
		<-ctx.Done()
		a.Stop()
	}()
	a.Wait()
	cancel()
	return <-done
}

func printEvents(w io.Writer) func(gesture.Event) error {
	enc := json.NewEncoder(w)
	return func(ev gesture.Event) error {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("print event: %w", err)
		}
		return nil
	}
}
