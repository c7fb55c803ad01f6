package main

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/career-compass/internal/observability"
	"github.com/spf13/cobra"
)

var (
	roadmapsLimit   int
	roadmapsRawJSON bool
)

var roadmapsCmd = &cobra.Command{
	Use:   "roadmaps [query]",
	Short: "List or search the featured career roadmaps",
	Args:  cobra.ArbitraryArgs,
	RunE:  runRoadmaps,
}

func init() {
	roadmapsCmd.Flags().IntVar(&roadmapsLimit, "limit", 10, "Maximum number of results")
	roadmapsCmd.Flags().BoolVar(&roadmapsRawJSON, "json", false, "Print the roadmaps as JSON")
	rootCmd.AddCommand(roadmapsCmd)
}

func runRoadmaps(cmd *cobra.Command, args []string) error {
	catalog, err := newCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()

	found, err := catalog.Search(strings.Join(args, " "), roadmapsLimit)
	if err != nil {
		return err
	}
	if roadmapsRawJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(found)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRoadmaps(found)
	return nil
}
