package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/pkg/models"
	"github.com/taskwell/core/pkg/validate"
)

// NewProfileCommand creates the profile command group.
func NewProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the account profile",
	}
	cmd.AddCommand(newProfileUpdateCommand())
	return cmd
}

func newProfileUpdateCommand() *cobra.Command {
	var username, email, firstName, lastName, phone string

	cmd := &cobra.Command{
		Use:           "update",
		Short:         "Update profile fields",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			req := models.UpdateUserRequest{}
			if cmd.Flags().Changed("username") {
				req.Username = &username
			}
			if cmd.Flags().Changed("email") {
				req.Email = &email
			}
			if cmd.Flags().Changed("first-name") {
				req.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				req.LastName = &lastName
			}
			if cmd.Flags().Changed("phone") {
				req.PhoneNumber = &phone
			}

			if req == (models.UpdateUserRequest{}) {
				return fmt.Errorf("nothing to update; pass at least one field flag")
			}

			user, err := app.Client.UpdateProfile(cmd.Context(), req)
			if err != nil {
				app.Notifier.Error(errors.Message(err))
				return err
			}

			app.Notifier.Success("Profile updated")
			fmt.Printf("%s <%s>\n", user.Username, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "New username")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().StringVar(&firstName, "first-name", "", "New first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "New last name")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone number")
	return cmd
}

// NewPasswdCommand creates the password change command.
func NewPasswdCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "passwd",
		Short:         "Change the account password",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			oldPassword, err := promptPassword("Current password: ")
			if err != nil {
				return err
			}
			newPassword, err := promptPassword("New password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm new password: ")
			if err != nil {
				return err
			}

			if fields := validate.ChangePassword(oldPassword, newPassword, confirm); len(fields) > 0 {
				fmt.Fprintln(os.Stderr, validate.Format(fields))
				return validate.Error(fields)
			}

			if err := app.Client.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
				app.Notifier.Error(errors.Message(err))
				return err
			}

			app.Notifier.Success("Password changed")
			return nil
		},
	}
}

// NewAccountCommand creates the account command group.
func NewAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the account itself",
	}
	cmd.AddCommand(newAccountDeleteCommand())
	return cmd
}

func newAccountDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:           "delete",
		Short:         "Permanently delete the account",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			if !yes {
				answer, err := promptLine("This permanently deletes your account and all tasks. Type 'delete' to confirm: ")
				if err != nil {
					return err
				}
				if strings.ToLower(answer) != "delete" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := app.Client.DeleteAccount(cmd.Context()); err != nil {
				app.Notifier.Error(errors.Message(err))
				return err
			}

			// The account is gone; drop the local session too.
			if err := app.State.ClearToken(); err != nil {
				return err
			}
			app.Notifier.Success("Account deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}
