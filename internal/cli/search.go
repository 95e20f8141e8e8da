package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/cardwatch/cardwatch/internal/database"
	"github.com/cardwatch/cardwatch/internal/services"
)

type searchCmd struct {
	dbPath       string
	serialNumber string
	name         string
	limit        int
	asJSON       bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search for cards in the catalog" }
func (*searchCmd) Usage() string {
	return `search [-db <path>] [-serial-number <fragment>] [-name <fragment>] [-limit <n>] [-json]

  Finds cards by case-insensitive substring match on serial number and/or
  name. At least one filter is required. Each hit is shown with its blended
  estimate and per-source prices.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.serialNumber, "serial-number", "", "Serial number filter (substring)")
	f.StringVar(&c.name, "name", "", "Card name filter (substring)")
	f.IntVar(&c.limit, "limit", services.DefaultSearchLimit, "Maximum number of results to show")
	f.BoolVar(&c.asJSON, "json", false, "Output results as JSON")
	f.StringVar(&c.dbPath, "db", defaultDBPath, "Path to the SQLite database file")
}

func (c *searchCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := database.Initialize(c.dbPath)
	if err != nil {
		return fail("Error initializing database: %v", err)
	}

	matches, err := services.NewSearchService(db).Search(c.serialNumber, c.name, c.limit)
	if err != nil {
		if err == services.ErrInvalidQuery {
			fmt.Fprintln(os.Stderr, "Error: provide -serial-number and/or -name.")
			return subcommands.ExitUsageError
		}
		return fail("Error searching catalog: %v", err)
	}

	if c.asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(matches); err != nil {
			return fail("Error encoding results: %v", err)
		}
		return subcommands.ExitSuccess
	}

	if len(matches) == 0 {
		fmt.Println("No matching cards found.")
		return subcommands.ExitSuccess
	}
	for i := range matches {
		printMatch(&matches[i], false)
		fmt.Println()
	}
	return subcommands.ExitSuccess
}
