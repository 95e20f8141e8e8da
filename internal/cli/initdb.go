package cli

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/cardwatch/cardwatch/internal/database"
)

type initDBCmd struct {
	dbPath string
}

func (*initDBCmd) Name() string     { return "init-db" }
func (*initDBCmd) Synopsis() string { return "initialize the catalog database" }
func (*initDBCmd) Usage() string {
	return `init-db [-db <path>]

  Creates the SQLite catalog database and its schema. Safe to run on an
  existing database.
`
}

func (c *initDBCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", defaultDBPath, "Path to the SQLite database file")
}

func (c *initDBCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := database.Initialize(c.dbPath); err != nil {
		return fail("Error initializing database: %v", err)
	}

	abs, err := filepath.Abs(c.dbPath)
	if err != nil {
		abs = c.dbPath
	}
	fmt.Printf("Database initialized at %s\n", abs)
	return subcommands.ExitSuccess
}
