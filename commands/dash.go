package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/pkg/todos"
	"github.com/taskwell/core/state"
	"github.com/taskwell/core/tui/dashboard"
)

// NewDashCommand creates the interactive dashboard command.
func NewDashCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "dash",
		Aliases:       []string{"ui"},
		Short:         "Open the interactive task dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			// The dashboard runs its own event loop; reconciles go back to
			// being asynchronous there.
			app.Todos = todos.NewStore(todos.Options{
				Client:   app.Client,
				Notifier: app.Notifier,
			})

			app.Session.Refresh(cmd.Context())
			if app.Session.User() == nil {
				return errors.NotLoggedIn()
			}

			// Notice a logout issued from another terminal while the
			// dashboard is open.
			watcher, err := state.NewWatcher(state.Watched{
				Store:          app.State,
				OnTokenCleared: app.authEvents.Publish,
			})
			if err == nil {
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				defer watcher.Close()
				go watcher.Run(ctx)
			}

			return dashboard.Run(app.Session, app.Todos, app.Notifier)
		},
	}
}
