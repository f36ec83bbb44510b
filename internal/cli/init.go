package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/deck/internal/config"
	"github.com/example/deck/internal/provider"
	"github.com/example/deck/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var (
		providerType string
		options      map[string]string
		actor        string
		journalPath  string
		noJournal    bool
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the task provider for this project",
		Long: `Write .deck/config.yaml in the current directory.

Examples:
  deck init --provider taskmaster
  deck init --provider manual --option base_url=http://localhost:3000
  deck init --provider gtasks --option list=Inbox --actor alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			if !force {
				if _, err := config.LoadConfig(cwd); !errors.Is(err, config.ErrNotFound) {
					return fmt.Errorf("%s already exists (use --force to overwrite)", config.Path(cwd))
				}
			}

			cfg := &config.Config{
				Actor:    actor,
				Provider: config.ProviderConfig{Type: providerType},
				Journal:  config.JournalConfig{Path: journalPath, Disabled: noJournal},
			}
			if len(options) > 0 {
				cfg.Provider.Options = make(map[string]any, len(options))
				for k, v := range options {
					cfg.Provider.Options[k] = v
				}
			}

			// Constructing performs no I/O, so this only validates the options.
			if _, err := wire.ProviderFactory().Create(cfg.ProviderSelection(cwd)); err != nil {
				var unknown *provider.UnknownProviderTypeError
				if errors.As(err, &unknown) {
					return fmt.Errorf("%w (registered: %v)", err, wire.ProviderFactory().RegisteredTypes())
				}
				return fmt.Errorf("invalid provider options: %w", err)
			}

			if err := config.SaveConfig(cwd, cfg); err != nil {
				return err
			}

			fmt.Printf("✓ Wrote %s (provider: %s)\n", config.Path(cwd), providerType)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  deck doctor")
			fmt.Println("  deck task list")

			return nil
		},
	}

	cmd.Flags().StringVar(&providerType, "provider", "", "Provider type (see 'deck provider list')")
	cmd.Flags().StringToStringVarP(&options, "option", "o", nil, "Provider option as key=value (repeatable)")
	cmd.Flags().StringVar(&actor, "actor", "", "Actor recorded on journaled events")
	cmd.Flags().StringVar(&journalPath, "journal", "", "Event journal path (default ~/.deck/deck.db)")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Disable the event journal")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}
