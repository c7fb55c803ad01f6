package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/observability"
	"github.com/spf13/cobra"
)

var (
	flowInput   string
	flowRawJSON bool
)

var flowCmd = &cobra.Command{
	Use:   "flow <name>",
	Short: "Run one flow and print its output",
	Long: `Run a single flow with a JSON input document and print the result.

The input is read from --input, a file path or "-" for stdin. Use "flows" to list
flow names and "validate --schema <name>.input" to check an input file first.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlow,
}

func init() {
	flowCmd.Flags().StringVarP(&flowInput, "input", "i", "", "Path to the JSON input file, or - for stdin (required)")
	flowCmd.Flags().BoolVar(&flowRawJSON, "json", false, "Print the raw JSON output instead of a formatted summary")

	_ = flowCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(flowCmd)
}

func runFlow(cmd *cobra.Command, args []string) error {
	name := args[0]
	flows := careers.NewRegistry()
	if _, ok := flows.Get(name); !ok {
		return fmt.Errorf("unknown flow %q (available: %s)", name, strings.Join(flows.Names(), ", "))
	}

	input, err := readInput(cmd.InOrStdin(), flowInput)
	if err != nil {
		return err
	}

	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx, stop := stopOnSignal(cmd.Context())
	defer stop()

	invoker, client, err := a.newInvoker(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	callCtx, cancel := withCallTimeout(ctx)
	defer cancel()
	out, err := flows.Run(callCtx, invoker, name, input)
	if err != nil {
		return describeFlowError(err)
	}

	if flowRawJSON {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintFlowOutput(name, out)
	return nil
}

// readInput reads path, or in when path is "-".
func readInput(in io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

// describeFlowError keeps the detail of input errors and labels model failures
// with their kind.
func describeFlowError(err error) error {
	var ve *flow.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return fmt.Errorf("%s: %w", flow.KindOf(err), err)
}
