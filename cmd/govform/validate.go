package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <application.yaml>",
	Short: "Check a prepared application file",
	Long: `Reads an application from YAML (the same keys as the JSON form data)
and reports every field that would block submission, step by step.
Documents cannot be attached from a file, so that rule is skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		data := domain.NewFormData()
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		v := validation.New()
		out := cmd.OutOrStdout()
		failed := 0
		for _, step := range domain.Steps() {
			errs := v.Validate(data, step)
			delete(errs, domain.FieldDocuments)
			if errs.Empty() {
				fmt.Fprintf(out, "✔ %s\n", step.Title())
				continue
			}
			fmt.Fprintf(out, "✘ %s\n", step.Title())
			for _, f := range errs.Fields() {
				fmt.Fprintf(out, "    %s: %s\n", f, errs[f])
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("validation failed: %d field(s) need attention", failed)
		}
		fmt.Fprintln(out, "Application is valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
