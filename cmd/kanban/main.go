// Command kanban is the terminal client for the kanban boards.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/chepyr/go-kanban/internal/config"
	"github.com/chepyr/go-kanban/internal/identity"
	"github.com/chepyr/go-kanban/internal/logger"
	"github.com/chepyr/go-kanban/internal/state"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type buildFunc func(configPath string, verbose bool, out io.Writer) (*app, error)

// env is shared by every command. app is set once the root command's
// pre-run hook has loaded the configuration.
type env struct {
	configPath string
	verbose    bool
	build      buildFunc
	app        *app
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(buildApp)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+errorMessage(err)))
		stop()
		os.Exit(1)
	}
}

func newRootCmd(build buildFunc) *cobra.Command {
	e := &env{build: build}

	root := &cobra.Command{
		Use:           "kanban",
		Short:         "Manage kanban boards from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.build(e.configPath, e.verbose, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			e.app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.app == nil {
				return
			}
			e.app.close()
			_ = e.app.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default $KANBAN_CONFIG or ./config.yaml)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(e),
		newRegisterCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newBoardsCmd(e),
		newUseCmd(e),
		newBoardCmd(e),
		newListCmd(e),
		newCardCmd(e),
		newMigrateCmd(e),
	)
	return root
}

func buildApp(configPath string, verbose bool, out io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The CLI stays quiet unless asked.
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.Log.JSON)
	if err != nil {
		return nil, err
	}

	storage := state.NewFileStorage(cfg.Client.SessionPath)
	a := newApp(cfg, log, out, identity.NewClient(cfg.Auth.ServiceURL, nil), storage)
	if err := a.auth.Restore(); err != nil {
		log.Warn("restore session", zap.String("path", storage.Path()), zap.Error(err))
	}
	md, err := newMarkdownRenderer()
	if err != nil {
		return nil, err
	}
	a.markdown = md
	log.Debug("session restored",
		zap.Bool("authenticated", a.auth.IsAuthenticated()),
		zap.String("path", storage.Path()))
	return a, nil
}

// errorMessage turns domain errors into something a terminal user can act on.
func errorMessage(err error) string {
	if verr, ok := models.AsValidationError(err); ok {
		fields := make([]string, 0, len(verr.Fields))
		for f := range verr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		msg := "validation failed"
		for _, f := range fields {
			msg += fmt.Sprintf("\n  %s: %s", f, verr.Fields[f])
		}
		return msg
	}
	switch {
	case errors.Is(err, state.ErrNotAuthenticated):
		return "not logged in, run `kanban login` first"
	case err == models.ErrUnauthorized:
		return "you do not have access to that board"
	}
	return err.Error()
}
