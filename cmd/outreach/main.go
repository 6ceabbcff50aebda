package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unclebandit/outreach-backend/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "outreach",
		Short: "outreach - campaign runner for the outreach backend",
		Long: `outreach runs templated campaigns against pending contacts and
inspects contacts, templates and campaign results from the command line.`,
	}

	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.ContactsCmd())
	rootCmd.AddCommand(cli.TemplatesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
