package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskwell/core/cli"
	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/pkg/models"
	"github.com/taskwell/core/pkg/validate"
	"github.com/taskwell/core/tui/theme"
)

// NewTodoCommand creates the todo command group.
func NewTodoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"t"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(
		newTodoListCommand(),
		newTodoShowCommand(),
		newTodoAddCommand(),
		newTodoEditCommand(),
		newTodoDoneCommand(),
		newTodoRemoveCommand(),
	)
	return cmd
}

func newTodoListCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Aliases:       []string{"ls"},
		Short:         "List all tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Todos.FetchAll(cmd.Context()); err != nil {
				return err
			}
			items := app.Todos.Items()

			if cli.GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			if len(items) == 0 {
				fmt.Println("No tasks.")
				return nil
			}
			for _, t := range items {
				printTodoLine(t)
			}
			return nil
		},
	}
}

func newTodoShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show a single task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			todo, err := app.Client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(todo)
			}

			printTodoLine(*todo)
			fmt.Printf("    %s\n", todo.Description)
			return nil
		},
	}
}

func newTodoAddCommand() *cobra.Command {
	var description string
	var priority int

	cmd := &cobra.Command{
		Use:           "add <title>",
		Short:         "Create a task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			draft := models.CreateTodoRequest{
				Title:       args[0],
				Description: description,
				Priority:    priority,
			}
			if draft.Description == "" {
				draft.Description = draft.Title
			}

			if fields := validate.Todo(draft); len(fields) > 0 {
				fmt.Fprintln(os.Stderr, validate.Format(fields))
				return validate.Error(fields)
			}

			if !app.Todos.Create(cmd.Context(), draft) {
				return fmt.Errorf("create failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description (defaults to the title)")
	cmd.Flags().IntVarP(&priority, "priority", "P", 3, "Priority 1-5")
	return cmd
}

func newTodoEditCommand() *cobra.Command {
	var title, description string
	var priority int

	cmd := &cobra.Command{
		Use:           "edit <id>",
		Short:         "Edit a task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			// The update endpoint replaces the full task body, so unchanged
			// fields are carried over from the current server state.
			current, err := app.Client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}

			patch := models.UpdateRequestFromTodo(*current)
			if cmd.Flags().Changed("title") {
				patch.Title = title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = description
			}
			if cmd.Flags().Changed("priority") {
				patch.Priority = priority
			}

			draft := models.CreateTodoRequest{
				Title:       patch.Title,
				Description: patch.Description,
				Priority:    patch.Priority,
			}
			if fields := validate.Todo(draft); len(fields) > 0 {
				fmt.Fprintln(os.Stderr, validate.Format(fields))
				return validate.Error(fields)
			}

			if !app.Todos.Update(cmd.Context(), id, patch) {
				return fmt.Errorf("update failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().IntVarP(&priority, "priority", "P", 0, "New priority 1-5")
	return cmd
}

func newTodoDoneCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "done <id>",
		Short:         "Toggle a task's completion",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			current, err := app.Client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}

			if !app.Todos.ToggleComplete(cmd.Context(), *current) {
				return fmt.Errorf("toggle failed")
			}

			if current.Complete {
				fmt.Printf("Task %d reopened.\n", id)
			} else {
				fmt.Printf("Task %d completed.\n", id)
			}
			return nil
		},
	}
}

func newTodoRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "rm <id>",
		Aliases:       []string{"remove", "delete"},
		Short:         "Delete a task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			if !app.Todos.Delete(cmd.Context(), id) {
				return fmt.Errorf("delete failed")
			}
			return nil
		},
	}
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid task id %q", arg))
	}
	return id, nil
}

func printTodoLine(t models.Todo) {
	box := "[ ]"
	title := t.Title
	if t.Complete {
		box = "[x]"
		title = theme.DefaultTheme.Done.Render(title)
	}
	fmt.Printf("%4d %s P%d %s\n", t.ID, box, t.Priority, title)
}
