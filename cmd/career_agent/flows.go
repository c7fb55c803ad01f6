package main

import (
	"encoding/json"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/observability"
	"github.com/spf13/cobra"
)

var flowsRawJSON bool

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the available flows",
	Args:  cobra.NoArgs,
	RunE:  runFlows,
}

func init() {
	flowsCmd.Flags().BoolVar(&flowsRawJSON, "json", false, "Print names, tiers and schemas as JSON")
	rootCmd.AddCommand(flowsCmd)
}

type flowListing struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Tier         string          `json:"tier"`
	InputSchema  json.RawMessage `json:"inputSchema"`
	OutputSchema json.RawMessage `json:"outputSchema"`
}

func runFlows(cmd *cobra.Command, _ []string) error {
	runners := careers.NewRegistry().List()
	if !flowsRawJSON {
		observability.NewPrinter(cmd.OutOrStdout()).PrintFlows(runners)
		return nil
	}

	listing := make([]flowListing, 0, len(runners))
	for _, r := range runners {
		listing = append(listing, flowListing{
			Name:         r.Name(),
			Description:  r.Description(),
			Tier:         string(r.Tier()),
			InputSchema:  r.InputSchema(),
			OutputSchema: r.OutputSchema(),
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(listing)
}
