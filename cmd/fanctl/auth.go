package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fanhub-app/fanhub/internal/domain"
)

func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long: `Sign in to the backend and store the resulting session.

The backend's login endpoint is discovered by probing a list of
candidate paths; the first one that answers wins.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, username, password, "Signed in as %s\n", func(s *services) authFunc {
				return s.session.Login
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")

	return cmd
}

func signupCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, username, password, "Account created, signed in as %s\n", func(s *services) authFunc {
				return s.session.Signup
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Long: `Forget the stored session.

Logout is purely local: the token is discarded without contacting
the backend, and running it while signed out is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svcs.Close()

			svcs.session.Logout(cmd.Context())
			fmt.Println("Signed out.")

			return nil
		},
	}
}

type authFunc func(ctx context.Context, creds domain.Credentials) error

func runAuth(
	cmd *cobra.Command,
	username, password, successFormat string,
	pick func(*services) authFunc,
) error {
	username, err := promptIfEmpty(username, "Username")
	if err != nil {
		return err
	}

	password, err = promptIfEmpty(password, "Password")
	if err != nil {
		return err
	}

	svcs, err := newServices(cmd.Context())
	if err != nil {
		return err
	}
	defer svcs.Close()

	creds := domain.Credentials{Username: username, Password: password}

	if err := pick(svcs)(cmd.Context(), creds); err != nil {
		return err
	}

	fmt.Printf(successFormat, svcs.session.Current().User.Username())

	return nil
}
