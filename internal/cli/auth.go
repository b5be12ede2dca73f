package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hitoshi/eventman/internal/client"
)

func (a *app) registerCommand() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = a.valueOrPrompt(email, "Email"); err != nil {
				return err
			}
			if name, err = a.valueOrPrompt(name, "Name"); err != nil {
				return err
			}
			password, err := a.prompt("Password", false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			user, err := a.client.Register(ctx, client.RegisterInput{Email: email, Password: password, Name: name})
			if err != nil {
				return err
			}
			if _, err := a.client.Login(ctx, email, password); err != nil {
				return err
			}
			fmt.Fprintf(a.streams.Out, "Registered and signed in as %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func (a *app) loginCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = a.valueOrPrompt(email, "Email"); err != nil {
				return err
			}
			password, err := a.prompt("Password", false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := a.client.Login(ctx, email, password); err != nil {
				return err
			}
			user, err := a.client.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.streams.Out, "Signed in as %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.client.Session().IsAuthenticated() {
				fmt.Fprintln(a.streams.Out, "Not signed in")
				return nil
			}
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.streams.Out, "Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the currently signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.streams.Out, "ID:    %d\n", user.ID)
			fmt.Fprintf(a.streams.Out, "Email: %s\n", user.Email)
			fmt.Fprintf(a.streams.Out, "Name:  %s\n", user.Name)
			return nil
		},
	}
}
