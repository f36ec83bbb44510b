package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/deck/internal/config"
	"github.com/example/deck/internal/db"
	"github.com/example/deck/internal/ports/primary"
	"github.com/example/deck/internal/provider"
	"github.com/example/deck/internal/wire"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var (
		quiet   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the project configuration and provider connectivity",
		Long: `Health check for the current project.

Validates:
- .deck/config.yaml is present and names a registered provider
- The provider initializes and returns a task snapshot
- The event journal can be opened

Examples:
  deck doctor              # Run full health check
  deck doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			results := runChecks(ctx)

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				printResults(results)
			}

			if hasErrors {
				return fmt.Errorf("health check failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress output, exit code only")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Overall time limit for the checks")

	return cmd
}

func runChecks(ctx context.Context) []CheckResult {
	cwd, err := os.Getwd()
	if err != nil {
		return []CheckResult{{Name: "Config", Status: "✗", Details: err.Error()}}
	}

	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		return []CheckResult{{Name: "Config", Status: "✗", Details: err.Error()}}
	}
	results := []CheckResult{{Name: "Config", Status: "✓"}}

	results = append(results, checkJournal(cfg))
	results = append(results, checkProvider(ctx))
	return results
}

func checkJournal(cfg *config.Config) CheckResult {
	if cfg.Journal.Disabled {
		return CheckResult{Name: "Journal", Status: "⚠", Details: "event journal disabled in config"}
	}
	conn, err := db.Open(cfg.Journal.Path)
	if err != nil {
		return CheckResult{Name: "Journal", Status: "✗", Details: err.Error()}
	}
	conn.Close()
	return CheckResult{Name: "Journal", Status: "✓"}
}

func checkProvider(ctx context.Context) CheckResult {
	service, err := wire.TaskService()
	if err != nil {
		return CheckResult{Name: "Provider", Status: "✗", Details: err.Error()}
	}
	defer wire.Close()

	tasks, err := service.ListTasks(ctx, primary.TaskFilters{})
	if err != nil {
		var resErr *provider.ResolutionError
		if errors.As(err, &resErr) {
			return CheckResult{Name: "Provider", Status: "⚠", Details: fmt.Sprintf("%s reachable but: %v", service.ProviderType(), err)}
		}
		return CheckResult{Name: "Provider", Status: "✗", Details: err.Error()}
	}
	return CheckResult{Name: "Provider", Status: "✓", Details: fmt.Sprintf("%s: %d task(s)", service.ProviderType(), len(tasks))}
}

func printResults(results []CheckResult) {
	fmt.Println()
	fmt.Println("Check              Status")
	fmt.Println("─────────────────────────")
	for _, r := range results {
		fmt.Printf("%-18s %s\n", r.Name, statusIcon(r.Status))
	}
	fmt.Println()

	for _, r := range results {
		if r.Details != "" {
			fmt.Printf("%s: %s\n", r.Name, r.Details)
		}
	}
}

func statusIcon(status string) string {
	switch status {
	case "✓":
		return color.New(color.FgGreen).Sprint(status)
	case "⚠":
		return color.New(color.FgYellow).Sprint(status)
	default:
		return color.New(color.FgRed).Sprint(status)
	}
}
