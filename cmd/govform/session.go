package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aretw0/govform"
	"github.com/aretw0/govform/internal/cli"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved applications",
	Long:  `List, inspect and remove the drafts kept by the configured store.`,
}

// openService builds a metrics-free service for the one-shot commands.
func openService(cmd *cobra.Command) (*govform.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.BuildService(cfg, cli.NewLogger(cfg, cmd.ErrOrStderr()), nil)
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saved applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		sessions, err := svc.Sessions().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No saved applications found.")
			return nil
		}

		fmt.Fprintln(out, "Saved applications:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show the saved draft of an application with personal data masked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		slots, err := svc.Inspect(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}

		keys := make([]string, 0, len(slots))
		for k := range slots {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := cmd.OutOrStdout()
		for _, k := range keys {
			fmt.Fprintf(out, "[%s]\n", k)
			var pretty any
			if err := json.Unmarshal([]byte(slots[k]), &pretty); err != nil {
				fmt.Fprintln(out, slots[k])
				continue
			}
			data, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Fprintln(out, string(data))
		}
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more saved applications",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = svc.Sessions().List(cmd.Context()); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, sessionID := range args {
			if err := svc.Sessions().Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sessions could not be removed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every saved application")
}
