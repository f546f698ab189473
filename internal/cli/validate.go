package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/compiler"
	"github.com/roach88/pulse/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Trigger string
	Strict  bool // treat warnings as failures
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Nodes    int                        `json:"nodes"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <network>",
		Short: "Check a network description without running it",
		Long: `Check a network description and report every problem found.

Errors (E1xx) make the network unusable: empty or duplicate ids, reserved
sink names, unknown kinds, an undeclared trigger. Warnings (W1xx) point at
likely mistakes: destinations that become implicit sinks, gates nothing
feeds, nodes the trigger cannot reach. With --strict warnings fail too.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Trigger, "trigger", string(ir.Broadcaster), "node the button feeds")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on warnings")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if !cmd.Flags().Changed("trigger") {
		opts.Trigger = opts.Config.Trigger
	}

	decls, err := ParseNetworkFile(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Validating %d node(s) from %s", len(decls), path)

	result := ValidationResult{Nodes: len(decls)}
	for _, ve := range compiler.Validate(decls, ir.NodeID(opts.Trigger)) {
		if ve.Severity == compiler.SeverityError || opts.Strict {
			result.Errors = append(result.Errors, ve)
		} else {
			result.Warnings = append(result.Warnings, ve)
		}
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Network valid (%d nodes)\n", result.Nodes)
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", w.Code, w.Field, w.Message)
	}
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n", err.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", w.Code, w.Field, w.Message)
	}

	// Validation failures = exit code 1 (check failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
