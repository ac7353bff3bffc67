package main

import (
	"fmt"

	"gaussapprox/adapters/ledger"
	"gaussapprox/internal/errors"

	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the results ledger schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.cfg.Paths.LedgerDSN == "" {
				return errors.ConfigInvalid("migrate needs a ledger (--ledger or GA_LEDGER_DSN)")
			}
			l, err := ledger.Open(ctx, c.cfg.Paths.LedgerDSN)
			if err != nil {
				return err
			}
			defer l.Close()
			if err := l.Migrate(ctx); err != nil {
				return err
			}
			fmt.Printf("ledger schema %s ready\n", ledger.NewRunner().Version())
			return nil
		},
	}
}
