package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/govform"
	"github.com/aretw0/govform/internal/cli"
	"github.com/aretw0/govform/internal/presentation/tui"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/ports"
)

const defaultSession = "local"

// fillCmd represents the fill command
var fillCmd = &cobra.Command{
	Use:   "fill [session-id]",
	Short: "Fill in an application interactively",
	Long: `Walks through the application step by step in the terminal.
Progress can be saved and resumed later with the same session id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tui.IsInteractive() {
			return errors.New("fill needs an interactive terminal; use 'govform serve' or 'govform mcp' instead")
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID := defaultSession
		if len(args) > 0 {
			sessionID = args[0]
		}
		exportDir, _ := cmd.Flags().GetString("export-dir")

		out := cmd.OutOrStdout()
		tui.PrintBanner(out, govform.Version)

		notices := ports.NotifierFunc(func(_ context.Context, n domain.Notification) {
			fmt.Fprintln(out, tui.Notice(n.Severity == domain.SeverityDestructive, n.Title, n.Description))
		})
		svc, err := cli.BuildService(cfg, cli.NewLogger(cfg, cmd.ErrOrStderr()), nil,
			govform.WithNotifier(notices),
		)
		if err != nil {
			return err
		}
		defer svc.Close()

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		form, err := svc.Open(sc, sessionID)
		if err != nil {
			return err
		}

		s, err := cli.Fill(sc, form, tui.NewSurveyPrompter(out), cli.FillOptions{
			Render: tui.NewRenderer(),
		})
		switch {
		case errors.Is(err, cli.ErrSavedForLater):
			cli.PrintSystemMessage(out, "Progress saved. Resume with: govform fill %s", sessionID)
			return nil
		case err != nil:
			if cli.IsInterrupted(err) {
				cli.PrintSystemMessage(out, "Interrupted. Unsaved answers were discarded.")
			}
			return cli.HandleExecutionError(err)
		}

		e, err := form.Export(sc)
		if err != nil {
			return err
		}
		body, err := e.JSON()
		if err != nil {
			return err
		}
		path := filepath.Join(exportDir, e.FileName())
		if err := os.WriteFile(path, body, 0o600); err != nil {
			return fmt.Errorf("failed to write application record: %w", err)
		}
		cli.PrintSystemMessage(out, "Confirmation number %s. Record saved to %s", s.Receipt.ConfirmationNumber, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fillCmd)
	fillCmd.Flags().String("export-dir", ".", "Directory the submitted application record is written to")

	// Running govform without a subcommand fills the default application.
	rootCmd.RunE = fillCmd.RunE
	rootCmd.Args = fillCmd.Args
	rootCmd.Flags().AddFlagSet(fillCmd.Flags())
}
