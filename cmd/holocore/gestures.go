package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/holocore/internal/app"
	"github.com/ayusman/holocore/internal/gesture"
)

func newGesturesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gestures",
		Short: "List the gesture catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			cfg.Addr = ""

			a, err := app.New(cfg, app.WithoutTray(), app.WithoutActions())
			if err != nil {
				return err
			}
			defer a.Close()
			return printGestures(cmd.OutOrStdout(), a.Recognizer().ListGestures())
		},
	}
}

func printGestures(w io.Writer, gestures []gesture.Info) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tSOURCE\tTRIGGERS")
	for _, g := range gestures {
		origin := "custom"
		if g.Builtin {
			origin = "builtin"
		}
		if g.Quarantined {
			origin += " (quarantined)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g.ID, g.DisplayName, g.Kind, origin, strings.Join(g.Triggers, ","))
	}
	return tw.Flush()
}
