package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ContactsCmd lists contacts, optionally filtered by channel and status.
func ContactsCmd() *cobra.Command {
	var (
		channel string
		status  string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.db.Close()

			contacts, total, err := d.contactRepo.ListContacts(0, limit, channel, status)
			if err != nil {
				return err
			}

			for _, c := range contacts {
				line := fmt.Sprintf("%4d  %-10s %-30s %-20s %s", c.ID, c.Channel, c.Handle, c.Name, c.Status)
				switch c.Status {
				case "sent":
					color.Green(line)
				case "pending":
					fmt.Println(line)
				default:
					color.Yellow(line)
				}
			}
			fmt.Printf("%d of %d contacts\n", len(contacts), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "filter by channel")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")

	return cmd
}
