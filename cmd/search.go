package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

var (
	searchTypes string
	searchLimit int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search the library",
	Long: `Search the server library for items matching a term.

Results are scoped to the signed-in user's accessible libraries. Use
--type to restrict the result to specific item kinds, e.g.
--type Movie,Episode.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchTypes, "type", "t", "", "Comma-separated item types (Movie, Series, Episode, Audio, ...)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 25, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, cfg, err := loadSession(ctx)
	if err != nil {
		return err
	}

	term := strings.Join(args, " ")
	result, err := client.Items().Search(ctx, jellyfin.SearchOptions{
		Term:       term,
		MediaTypes: searchTypes,
		Limit:      searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if err := saveSession(client, cfg); err != nil {
		return err
	}

	if len(result.Items) == 0 {
		fmt.Println("No results.")
		return nil
	}

	printItemTable(result.Items)
	if result.TotalRecordCount > len(result.Items) {
		fmt.Printf("\n%d of %d results shown. Use --limit to see more.\n",
			len(result.Items), result.TotalRecordCount)
	}
	return nil
}

// printItemTable renders items in fixed-width columns. Widths are
// measured in display cells so CJK titles line up.
func printItemTable(items []jellyfin.Item) {
	const (
		nameWidth = 48
		typeWidth = 10
		yearWidth = 4
	)

	fmt.Printf("%s  %s  %s  %s\n",
		pad("NAME", nameWidth), pad("TYPE", typeWidth), pad("YEAR", yearWidth), "ID")

	for _, item := range items {
		year := ""
		if item.ProductionYear > 0 {
			year = fmt.Sprintf("%d", item.ProductionYear)
		}
		fmt.Printf("%s  %s  %s  %s\n",
			pad(item.Name, nameWidth),
			pad(string(item.Type), typeWidth),
			pad(year, yearWidth),
			item.ID)
	}
}

// pad truncates or pads text to a fixed display width.
func pad(text string, width int) string {
	if runewidth.StringWidth(text) > width {
		return runewidth.Truncate(text, width, "…")
	}
	return runewidth.FillRight(text, width)
}
