package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/govform/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [session-id]",
	Short: "Export the application flow visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the steps and the submission
gate. With a session id, the progress of that saved application is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var overlay *graph.Overlay
		if len(args) > 0 {
			svc, err := openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			if d := svc.Sessions().Drafts(args[0]); d != nil {
				if ok, err := d.Exists(cmd.Context()); err != nil {
					return err
				} else if !ok {
					return fmt.Errorf("no saved application '%s'", args[0])
				}
			}
			form, err := svc.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			overlay = graph.OverlayFor(form.Snapshot())
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
