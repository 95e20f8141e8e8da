package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/cardwatch/cardwatch/internal/database"
	"github.com/cardwatch/cardwatch/internal/services"
)

type importCmd struct {
	dbPath string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import card data from a JSON export" }
func (*importCmd) Usage() string {
	return `import [-db <path>] <json-file>

  Merges a JSON export of card payloads into the catalog. Re-importing the
  same file is a no-op: card metadata is upserted, price snapshots are
  replaced latest-wins, and already-known sales are skipped. Bad entries are
  reported as warnings without blocking the rest of the batch.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", defaultDBPath, "Path to the SQLite database file")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one JSON file is required.")
		return subcommands.ExitUsageError
	}
	jsonFile := f.Arg(0)

	db, err := database.Initialize(c.dbPath)
	if err != nil {
		return fail("Error initializing database: %v", err)
	}

	summary, err := services.NewImportService(db).ImportFile(jsonFile)
	if err != nil {
		return fail("Error importing %s: %v", jsonFile, err)
	}

	fmt.Printf("Imported %d cards from %s (batch %s)\n", summary.Processed, jsonFile, summary.BatchID)
	if summary.Skipped > 0 {
		fmt.Printf("Skipped %d entries:\n", summary.Skipped)
	}
	for _, warning := range summary.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	return subcommands.ExitSuccess
}
