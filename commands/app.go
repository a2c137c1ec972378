// Package commands implements the tw subcommands. Each command wires the
// shared application context (config, state, API client, stores) and
// delegates all behavior to the store packages.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskwell/core/cli"
	"github.com/taskwell/core/config"
	"github.com/taskwell/core/pkg/api"
	"github.com/taskwell/core/pkg/events"
	"github.com/taskwell/core/pkg/notify"
	"github.com/taskwell/core/pkg/session"
	"github.com/taskwell/core/pkg/todos"
	"github.com/taskwell/core/state"
	"github.com/taskwell/core/tui/theme"
)

// App bundles the per-invocation application context shared by every
// subcommand.
type App struct {
	Config   *config.Config
	State    *state.Store
	Client   *api.Client
	Notifier *notify.Queue
	Session  *session.Store
	Todos    *todos.Store

	authEvents *events.Bus
}

// newApp builds the application context from the resolved configuration.
// CLI commands run store operations synchronously, so the background
// reconcile runner is inline: a command's output reflects the final state.
func newApp(cmd *cobra.Command) (*App, error) {
	opts := cli.GetOptions(cmd)
	log := cli.GetLogger(cmd)

	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	log.WithField("api_url", cfg.APIURL).Debug("configuration resolved")

	st, err := state.DefaultStore()
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()

	client, err := api.NewClient(api.Options{
		BaseURL:    cfg.APIURL,
		AuthScheme: cfg.AuthScheme,
		Timeout:    cfg.Timeout(),
		Tokens:     st,
		AuthEvents: bus,
	})
	if err != nil {
		return nil, err
	}

	notifier := notify.NewQueue()

	sess := session.NewStore(session.Options{
		Client:     client,
		Notifier:   notifier,
		Tokens:     st,
		AuthEvents: bus,
	})

	td := todos.NewStore(todos.Options{
		Client:     client,
		Notifier:   notifier,
		Background: func(fn func()) { fn() },
	})

	return &App{
		Config:     cfg,
		State:      st,
		Client:     client,
		Notifier:   notifier,
		Session:    sess,
		Todos:      td,
		authEvents: bus,
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

// Close releases the app's subscriptions.
func (a *App) Close() {
	a.Session.Close()
}

// Flush prints any queued notifications to the terminal with their severity
// colors. The CLI has no persistent footer, so the queue is drained once at
// the end of each command.
func (a *App) Flush() {
	for _, n := range a.Notifier.Notifications() {
		out := os.Stdout
		if n.Severity == notify.SeverityError {
			out = os.Stderr
		}
		fmt.Fprintln(out, theme.RenderStatus(string(n.Severity), n.Message))
		a.Notifier.Dismiss(n.ID)
	}
}
