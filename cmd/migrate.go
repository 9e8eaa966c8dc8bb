package main

import (
	"errors"
	"strconv"

	"catalog/pkg/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withMigrator(func(m *database.Migrator) error {
					return m.Up()
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations, one step by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return errors.New("steps must be a number")
					}
					steps = n
				}
				return a.withMigrator(func(m *database.Migrator) error {
					return m.Down(steps)
				})
			},
		},
	)
	return cmd
}

func (a *app) withMigrator(fn func(m *database.Migrator) error) error {
	if a.cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	m, err := database.NewMigrator(a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil {
		return err
	}
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	a.log.Info().Uint("version", v).Bool("dirty", dirty).Msg("migrations applied")
	return nil
}
