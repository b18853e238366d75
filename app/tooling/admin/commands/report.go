package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/ardanlabs/ledger/business/ledger/archive/clickhouse"
)

// Report prints per-kind activity totals from the ClickHouse archive.
// The DSN comes from the third argument or LEDGER_CLICKHOUSE_DSN.
func Report(ctx context.Context, args []string) error {
	dsn := os.Getenv("LEDGER_CLICKHOUSE_DSN")
	if len(args) == 3 {
		dsn = args[2]
	}
	if dsn == "" {
		return fmt.Errorf("no clickhouse dsn provided")
	}

	store, err := clickhouse.NewStore(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	totals, err := store.TotalsByKind(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%-24s %12s %16s  %s\n", "KIND", "EVENTS", "AMOUNT", "LATEST")
	for _, kt := range totals {
		fmt.Printf("%-24s %12d %16d  %s\n", kt.Kind, kt.Events, kt.Amount, kt.Latest.Format("2006-01-02 15:04:05"))
	}

	return nil
}
