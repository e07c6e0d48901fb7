package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/med1001/privora/internal/identity"
)

func newRegisterCmd(e *env) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with the identity provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter()

			var err error
			if email, err = p.value(email, "Email: "); err != nil {
				return err
			}
			if name, err = p.value(name, "Display name: "); err != nil {
				return err
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			confirm, err := p.password("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			ids := identity.NewClient(e.cfg.Client.APIURL, nil)
			if err := ids.SignUp(cmd.Context(), email, password, name); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Verify your email if required, then run `privora chat`.\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}
