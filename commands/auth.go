package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskwell/core/pkg/models"
	"github.com/taskwell/core/pkg/validate"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Log in to the Taskwell server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			if username == "" {
				username, err = promptLine("Username: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				password, err = promptPassword("Password: ")
				if err != nil {
					return err
				}
			}

			if fields := validate.Login(username, password); len(fields) > 0 {
				fmt.Fprintln(os.Stderr, validate.Format(fields))
				return validate.Error(fields)
			}

			return app.Session.Login(cmd.Context(), username, password)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand() *cobra.Command {
	var req models.CreateUserRequest

	cmd := &cobra.Command{
		Use:           "register",
		Short:         "Create a new account",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			if req.Username == "" {
				req.Username, err = promptLine("Username: ")
				if err != nil {
					return err
				}
			}
			if req.Email == "" {
				req.Email, err = promptLine("Email: ")
				if err != nil {
					return err
				}
			}
			if req.FirstName == "" {
				req.FirstName, err = promptLine("First name: ")
				if err != nil {
					return err
				}
			}
			if req.LastName == "" {
				req.LastName, err = promptLine("Last name: ")
				if err != nil {
					return err
				}
			}
			if req.Password == "" {
				req.Password, err = promptPassword("Password: ")
				if err != nil {
					return err
				}
				confirm, err := promptPassword("Confirm password: ")
				if err != nil {
					return err
				}
				if confirm != req.Password {
					return fmt.Errorf("passwords do not match")
				}
			}

			if fields := validate.Register(req); len(fields) > 0 {
				fmt.Fprintln(os.Stderr, validate.Format(fields))
				return validate.Error(fields)
			}

			return app.Session.Register(cmd.Context(), req)
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "Phone number")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Log out and clear the local session",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.Flush()

			app.Session.Logout(cmd.Context())
			return nil
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the currently logged-in user",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Session.Refresh(cmd.Context())
			user := app.Session.User()
			if user == nil {
				fmt.Println("Not logged in.")
				return nil
			}

			fmt.Printf("%s (%s %s)\n", user.Username, user.FirstName, user.LastName)
			fmt.Printf("  Email: %s\n", user.Email)
			fmt.Printf("  Role:  %s\n", user.Role)
			if user.PhoneNumber != nil && *user.PhoneNumber != "" {
				fmt.Printf("  Phone: %s\n", *user.PhoneNumber)
			}
			return nil
		},
	}
}

// promptLine reads a single trimmed line from stdin.
func promptLine(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read for piped input.
func promptPassword(label string) (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return promptLine(label)
	}

	fmt.Fprint(os.Stderr, label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
