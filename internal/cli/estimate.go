package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/cardwatch/cardwatch/internal/services"
)

type estimateCmd struct {
	input  string
	asJSON bool
}

func (*estimateCmd) Name() string     { return "estimate" }
func (*estimateCmd) Synopsis() string { return "estimate card values live from the vendor APIs" }
func (*estimateCmd) Usage() string {
	return `estimate [-input <file>] [-json] [card ...]

  Estimates current market value for cards given as 'Name' or 'Name#Number',
  without touching the catalog. Credentials come from PRICECHARTING_TOKEN,
  TCGPLAYER_PUBLIC_KEY and TCGPLAYER_PRIVATE_KEY; a source without
  credentials (or one that fails) is reported as unavailable and the
  estimate is blended from the rest.
`
}

func (c *estimateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", "", "File with one card per line (Name or Name#Number)")
	f.BoolVar(&c.asJSON, "json", false, "Output the estimates as JSON")
}

func (c *estimateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	queries, err := c.loadQueries(f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	priceCharting := services.NewPriceChartingService(os.Getenv("PRICECHARTING_TOKEN"))
	tcgPlayer := services.NewTCGPlayerService(os.Getenv("TCGPLAYER_PUBLIC_KEY"), os.Getenv("TCGPLAYER_PRIVATE_KEY"))
	estimator := services.NewEstimatorService(priceCharting, tcgPlayer)

	var estimates []*services.LiveEstimate
	for _, query := range queries {
		name, number := splitCardEntry(query)
		estimate, err := estimator.Estimate(ctx, name, number)
		if err != nil {
			return fail("Error estimating %q: %v", query, err)
		}
		estimates = append(estimates, estimate)
	}

	if c.asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(estimates); err != nil {
			return fail("Error encoding estimates: %v", err)
		}
		return subcommands.ExitSuccess
	}

	for _, estimate := range estimates {
		fmt.Println(estimate.Query)
		if estimate.EstimatedValue != nil {
			fmt.Printf("  Estimated value: $%.2f\n", *estimate.EstimatedValue)
		} else {
			fmt.Println("  Estimated value: n/a")
		}
		for _, source := range estimate.Unavailable {
			fmt.Printf("  %s: unavailable\n", source)
		}
		fmt.Println()
	}
	return subcommands.ExitSuccess
}

// loadQueries gathers card entries from positional arguments and the
// optional input file.
func (c *estimateCmd) loadQueries(args []string) ([]string, error) {
	queries := append([]string{}, args...)

	if c.input != "" {
		file, err := os.Open(c.input)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", c.input, err)
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				queries = append(queries, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", c.input, err)
		}
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("provide card names as arguments or via -input")
	}
	return queries, nil
}

// splitCardEntry splits 'Name#Number' into its parts; the number is optional.
func splitCardEntry(entry string) (name, number string) {
	if name, number, ok := strings.Cut(entry, "#"); ok {
		return strings.TrimSpace(name), strings.TrimSpace(number)
	}
	return strings.TrimSpace(entry), ""
}
