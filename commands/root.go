package commands

import (
	"github.com/spf13/cobra"

	"github.com/taskwell/core/cli"
	"github.com/taskwell/core/version"
)

// NewRootCommand assembles the tw command tree.
func NewRootCommand() *cobra.Command {
	root := cli.NewStandardCommand(
		"tw",
		"Taskwell: manage your tasks from the terminal",
	)

	cli.SetVersionTemplate(root, version.GetInfo())

	root.AddCommand(
		NewLoginCommand(),
		NewRegisterCommand(),
		NewLogoutCommand(),
		NewWhoamiCommand(),
		NewProfileCommand(),
		NewPasswdCommand(),
		NewAccountCommand(),
		NewTodoCommand(),
		NewDashCommand(),
		cli.NewVersionCommand("tw"),
	)

	return root
}
