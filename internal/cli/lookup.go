package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/cardwatch/cardwatch/internal/database"
	"github.com/cardwatch/cardwatch/internal/services"
)

type lookupCmd struct {
	dbPath       string
	serialNumber string
	name         string
	salesLimit   int
	asJSON       bool
}

func (*lookupCmd) Name() string     { return "lookup" }
func (*lookupCmd) Synopsis() string { return "look up one card and its recent sales" }
func (*lookupCmd) Usage() string {
	return `lookup -serial-number <fragment> -name <fragment> [-sales-limit <n>] [-db <path>] [-json]

  Resolves a single card by serial number and name. Both are required and
  must identify exactly one card; when more than one matches, narrow the
  serial number. Shows the blended estimate and the most recent sales.
`
}

func (c *lookupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.serialNumber, "serial-number", "", "Serial number of the card (required)")
	f.StringVar(&c.name, "name", "", "Card name (required)")
	f.IntVar(&c.salesLimit, "sales-limit", services.DefaultSalesLimit, "Number of recent sales to display")
	f.BoolVar(&c.asJSON, "json", false, "Output the result as JSON")
	f.StringVar(&c.dbPath, "db", defaultDBPath, "Path to the SQLite database file")
}

func (c *lookupCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := database.Initialize(c.dbPath)
	if err != nil {
		return fail("Error initializing database: %v", err)
	}

	match, err := services.NewSearchService(db).Lookup(c.serialNumber, c.name, c.salesLimit)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidQuery):
			fmt.Fprintln(os.Stderr, "Error: both -serial-number and -name are required.")
			return subcommands.ExitUsageError
		case errors.Is(err, services.ErrNotFound):
			fmt.Println("No matching cards found.")
			return subcommands.ExitFailure
		case errors.Is(err, services.ErrAmbiguousMatch):
			fmt.Println("More than one card matches; narrow the serial number or name.")
			return subcommands.ExitFailure
		default:
			return fail("Error looking up card: %v", err)
		}
	}

	if c.asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(match); err != nil {
			return fail("Error encoding result: %v", err)
		}
		return subcommands.ExitSuccess
	}

	printMatch(match, true)
	return subcommands.ExitSuccess
}
