package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RunCmd runs one campaign for a channel and prints the result summary.
func RunCmd() *cobra.Command {
	var (
		templateID int
		limit      int
		varFlags   []string
	)

	cmd := &cobra.Command{
		Use:   "run <channel>",
		Short: "Run an outreach campaign for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.db.Close()

			result, err := d.orchestrator.RunOutreach(context.Background(), args[0], templateID, limit, parseVars(varFlags))
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Printf("Campaign run %s (%s)\n", result.RunID, result.Channel)
			fmt.Printf("  total:    %d\n", result.Total)
			color.Green("  sent:     %d", result.Sent)
			if result.Failed > 0 {
				color.Red("  failed:   %d", result.Failed)
			} else {
				fmt.Printf("  failed:   %d\n", result.Failed)
			}
			if result.Deferred > 0 {
				color.Yellow("  deferred: %d (daily cap, will retry next run)", result.Deferred)
			}
			for _, e := range result.Errors {
				color.Red("  ✗ contact %d (%s): %s", e.ContactID, e.Handle, e.Error)
			}
			if result.LogErrors > 0 {
				color.Yellow("  %d audit log writes failed", result.LogErrors)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&templateID, "template", "t", 0, "template id (required)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "max contacts this run (channel default when 0)")
	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "extra template variable, key=value (repeatable)")
	cmd.MarkFlagRequired("template")

	return cmd
}
