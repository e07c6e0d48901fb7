package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/med1001/privora/internal/identity"
	"github.com/med1001/privora/internal/search"
)

func newSearchCmd(e *env) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "search <prefix>",
		Short: "Find users by email or display name prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter()

			var err error
			if email, err = p.value(email, "Email: "); err != nil {
				return err
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}

			id, err := identity.NewClient(e.cfg.Client.APIURL, nil).SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			results, err := search.NewClient(e.cfg.Client.APIURL, nil, nil).Search(cmd.Context(), id.Token, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no users found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER ID\tDISPLAY NAME")
			for _, c := range results {
				fmt.Fprintf(w, "%s\t%s\n", c.UserID, c.Label())
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}
