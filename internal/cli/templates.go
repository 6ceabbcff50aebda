package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// TemplatesCmd lists templates, optionally filtered by channel.
func TemplatesCmd() *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.db.Close()

			templates, err := d.templateRepo.ListByChannel(channel)
			if err != nil {
				return err
			}

			for _, t := range templates {
				state := color.GreenString("active")
				if !t.Active {
					state = color.RedString("inactive")
				}
				fmt.Printf("%4d  %-10s %-8s %s  %s\n", t.ID, t.Channel, t.Kind, state, t.Body)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "filter by channel")

	return cmd
}
