package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func whoamiCmd() *cobra.Command {
	var showClaims bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svcs.Close()

			session := svcs.session.Current()
			if !session.Authenticated() {
				fmt.Println("Not signed in.")

				return nil
			}

			fmt.Printf("Signed in as %s\n", session.User.Username())

			if expiry, ok := svcs.session.TokenExpiry(); ok {
				fmt.Printf("Token expires %s\n", expiry.UTC().Format("2006-01-02 15:04 MST"))
			}

			if !showClaims {
				return nil
			}

			claims, ok := svcs.session.Claims()
			if !ok {
				fmt.Println("Token is not a JWT.")

				return nil
			}

			fmt.Println("Claims:")

			for key, value := range claims {
				fmt.Printf("  %s: %v\n", key, value)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showClaims, "claims", false, "Decode and print the token's JWT claims (unverified)")

	return cmd
}
