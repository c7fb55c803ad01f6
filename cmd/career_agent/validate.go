package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/career-compass/internal/observability"
	"github.com/jonathan/career-compass/internal/schemas"
	"github.com/spf13/cobra"
)

var (
	validateSchema string
	validateJSON   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against a flow contract",
	Long: `Validate a JSON document against one of the embedded flow schemas, for example
"goal-setting.input" or "job-listings.output". --schema also accepts a path to a
schema file on disk.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Schema name such as goal-setting.output, or a schema file path (required)")
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to the JSON file to validate (required)")

	_ = validateCmd.MarkFlagRequired("schema")
	_ = validateCmd.MarkFlagRequired("json")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var err error
	if strings.HasSuffix(validateSchema, ".json") {
		err = schemas.ValidateJSON(validateSchema, validateJSON)
	} else {
		var data []byte
		data, err = os.ReadFile(validateJSON)
		if err != nil {
			return fmt.Errorf("failed to read JSON file: %w", err)
		}
		err = schemas.Default().Validate(validateSchema, data)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var ve *schemas.ValidationError
	switch {
	case err == nil:
		printer.PrintValidation(validateSchema, nil)
		fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
		return nil
	case errors.As(err, &ve):
		printer.PrintValidation(validateSchema, ve)
		fmt.Fprintln(cmd.OutOrStdout(), "Validation failed")
		return fmt.Errorf("%s: %d schema violation(s)", validateJSON, len(ve.Errors))
	default:
		var le *schemas.SchemaLoadError
		if errors.As(err, &le) && !strings.HasSuffix(validateSchema, ".json") {
			names, _ := schemas.Default().Names()
			return fmt.Errorf("%w (available: %s)", err, strings.Join(names, ", "))
		}
		return err
	}
}
