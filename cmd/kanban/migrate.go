package main

import (
	authdb "github.com/chepyr/go-kanban/auth-service/db"
	tasksdb "github.com/chepyr/go-kanban/tasks-service/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users, boards, lists and cards tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			if err := a.openDB(); err != nil {
				return err
			}
			driver := a.cfg.Database.Driver
			if err := authdb.Migrate(cmd.Context(), a.conn, driver); err != nil {
				return err
			}
			if err := tasksdb.Migrate(cmd.Context(), a.conn, driver); err != nil {
				return err
			}
			success(a.out, "Schema is up to date (%s)", driver)
			return nil
		},
	}
}
