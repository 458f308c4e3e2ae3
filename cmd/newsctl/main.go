package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/newsboard/newsboard/cmd/newsctl/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "newsctl",
		Short:         "Administration tools for newsboard",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.UserCmd())
	rootCmd.AddCommand(cmd.RepairTextCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
