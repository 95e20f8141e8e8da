// Package cli implements the cardwatch subcommands: a local catalog of
// collectible-card prices that can import vendor exports, search and look up
// cards, and estimate values live from the vendor APIs.
package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/subcommands"

	"github.com/cardwatch/cardwatch/internal/models"
)

const defaultDBPath = "./cardwatch.db"

// Commands lists every cardwatch subcommand in registration order.
var Commands = []subcommands.Command{
	&initDBCmd{},
	&importCmd{},
	&searchCmd{},
	&lookupCmd{},
	&estimateCmd{},
}

// printMatch renders one card with its estimate, per-source prices, and
// (optionally) recent sales.
func printMatch(match *models.CardMatch, showSales bool) {
	card := match.Card
	header := fmt.Sprintf("%s (%s)", card.Name, card.SerialNumber)
	if card.SetName != "" {
		header += " - " + card.SetName
	}
	if card.Rarity != "" {
		header += " [" + card.Rarity + "]"
	}
	fmt.Println(header)

	if match.EstimatedValue != nil {
		fmt.Printf("  Estimated value: $%.2f\n", *match.EstimatedValue)
	} else {
		fmt.Println("  Estimated value: n/a")
	}

	for _, source := range sortedSources(match.Prices) {
		fmt.Printf("  %s:\n", source)
		points := match.Prices[source]
		for _, priceType := range sortedPriceTypes(points) {
			point := points[priceType]
			updated := point.LastUpdated
			if updated == "" {
				updated = "n/a"
			}
			fmt.Printf("    %s: $%.2f (updated %s)\n", priceType, point.Value, updated)
		}
	}

	if !showSales {
		return
	}
	if len(match.RecentSales) == 0 {
		fmt.Println("  No recent sales recorded.")
		return
	}
	fmt.Println("  Recent sales:")
	for _, sale := range match.RecentSales {
		date := sale.SaleDate
		if date == "" {
			date = "unknown date"
		}
		fmt.Printf("    %s: $%.2f (%s)\n", date, sale.Price, sale.Source)
	}
}

func sortedSources(prices map[models.Source]map[models.PriceType]models.PricePoint) []models.Source {
	sources := make([]models.Source, 0, len(prices))
	for source := range prices {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}

func sortedPriceTypes(points map[models.PriceType]models.PricePoint) []models.PriceType {
	types := make([]models.PriceType, 0, len(points))
	for priceType := range points {
		types = append(types, priceType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}
