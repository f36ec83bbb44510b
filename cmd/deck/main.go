package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/deck/internal/cli"
	"github.com/example/deck/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "deck",
		Short:   "deck - task providers for the agent dashboard",
		Version: version.String(),
		Long: `deck reads and writes tasks through pluggable providers (a REST task
service, taskmaster documents, Google Tasks) and journals every change.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.TaskCmd())
	rootCmd.AddCommand(cli.ProviderCmd())
	rootCmd.AddCommand(cli.EventsCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
