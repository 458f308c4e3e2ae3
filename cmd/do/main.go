package main

import (
	"os"

	"github.com/newsboard/newsboard/cmd/do/cmd"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "do",
		Short: "Development tools for newsboard",
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.GenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
