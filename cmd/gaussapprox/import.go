package main

import (
	"fmt"

	"gaussapprox/adapters/ledger"
	"gaussapprox/app"
	"gaussapprox/internal/artifacts"
	"gaussapprox/internal/errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newImportCmd(c *cli) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Record an existing artifact tree in the results ledger",
		Long: `Walk the artifact tree below the output root, rebuild one result per
T{T}/tau{lag}/percent{p} directory and upsert it into the ledger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.cfg.Paths.LedgerDSN == "" {
				return errors.ConfigInvalid("import needs a ledger (--ledger or GA_LEDGER_DSN)")
			}
			if runID == "" {
				runID = "import-" + uuid.NewString()
			}

			store, err := artifacts.NewLocalStore(c.cfg.Paths.OutputRoot)
			if err != nil {
				return err
			}
			l, err := ledger.Open(ctx, c.cfg.Paths.LedgerDSN)
			if err != nil {
				return err
			}
			defer l.Close()
			if err := l.Migrate(ctx); err != nil {
				return err
			}

			results, err := app.ImportArtifacts(ctx, store, l, runID, c.log)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d composites from %s as run %s\n", len(results), store.Root(), runID)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "run id for the imported rows (random when empty)")
	return cmd
}
