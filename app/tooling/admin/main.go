// This program performs administrative tasks for the ledger service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ardanlabs/ledger/app/tooling/admin/commands"
	"github.com/ardanlabs/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	if len(os.Args) < 2 {
		fmt.Println("usage: admin <bals|report> [args]")
		return nil
	}

	return processCommands(context.Background(), os.Args)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(ctx context.Context, args []string) error {
	switch args[1] {
	case "bals":
		if err := commands.Balances(args); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "report":
		if err := commands.Report(ctx, args); err != nil {
			return fmt.Errorf("building report: %w", err)
		}
	default:
		fmt.Println("usage: admin <bals|report> [args]")
	}

	return nil
}
