package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/deck/internal/config"
	"github.com/example/deck/internal/wire"
)

// ProviderCmd returns the provider command
func ProviderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Inspect task providers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered provider types",
		RunE: func(cmd *cobra.Command, args []string) error {
			current := ""
			if cwd, err := os.Getwd(); err == nil {
				if cfg, err := config.LoadConfig(cwd); err == nil {
					current = cfg.Provider.Type
				}
			}

			for _, t := range wire.ProviderFactory().RegisteredTypes() {
				marker := ""
				if t == current {
					marker = color.New(color.FgHiMagenta).Sprint(" ← configured")
				}
				fmt.Printf("  %s%s\n", t, marker)
			}
			return nil
		},
	})

	return cmd
}
