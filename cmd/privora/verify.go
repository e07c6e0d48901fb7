package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/med1001/privora/internal/app"
	"github.com/med1001/privora/internal/store/sqlite"
)

// newVerifyCmd marks an account verified directly in the backend database,
// for deployments without auto_verify_email.
func newVerifyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <email>",
		Short: "Mark an account's email as verified on the reference backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sqlite.New(e.cfg.Server.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := app.NewAuthService(st, e.cfg.Server).VerifyEmail(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("verify %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now verified\n", args[0])
			return nil
		},
	}
}
