package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/database"
	"github.com/taskhub/taskhub/internal/tools/common"
	"github.com/taskhub/taskhub/internal/tools/ui"
)

type options struct {
	envFile             string
	bootstrapAdminEmail string
	withSampleData      bool
	ci                  bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database migrate and seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.bootstrapAdminEmail, "bootstrap-admin-email", "", "override bootstrap admin email")
	cmd.PersistentFlags().BoolVar(&opts.withSampleData, "with-sample-data", false, "also create sample tasks when the tasks table is empty")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Run migrations and apply seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				email, password := bootstrapAdmin(cfg, opts)
				report, err := database.SeedReporting(db, email, password, opts.withSampleData)
				if err != nil {
					return nil, err
				}
				details := []string{"migrations applied"}
				if report.CreatedAdmin {
					details = append(details, "bootstrap admin created: "+email)
				}
				if report.CreatedTasks > 0 {
					details = append(details, fmt.Sprintf("sample tasks created: %d", report.CreatedTasks))
				}
				if report.CreatedTodos > 0 {
					details = append(details, fmt.Sprintf("sample todos created: %d", report.CreatedTodos))
				}
				if report.Noop {
					details = append(details, "seed data already present")
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed apply", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				cfg, _, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email, _ := bootstrapAdmin(cfg, opts)
				details := []string{
					"would migrate: users, profiles, tasks, todos",
				}
				if email != "" {
					details = append(details, "would create bootstrap admin if absent: "+email)
				}
				if opts.withSampleData {
					details = append(details, "would create sample tasks if the tasks table is empty")
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed dry-run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func bootstrapAdmin(cfg *config.Config, opts *options) (string, string) {
	email := cfg.BootstrapAdminEmail
	if opts.bootstrapAdminEmail != "" {
		email = opts.bootstrapAdminEmail
	}
	return email, cfg.BootstrapAdminPassword
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
