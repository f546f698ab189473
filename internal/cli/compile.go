package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/compiler"
	"github.com/roach88/pulse/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	To     string // "canonical" | "text" | "yaml"
}

// CompilationResult summarizes a compiled network.
type CompilationResult struct {
	Network     string         `json:"network"`
	NetworkHash string         `json:"network_hash"`
	Nodes       int            `json:"nodes"`
	Kinds       map[string]int `json:"kinds"`
	Output      string         `json:"output,omitempty"`
}

func (r CompilationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Compiled %d node(s): %d relay, %d toggle, %d gate\n",
		r.Nodes, r.Kinds[string(ir.KindRelay)], r.Kinds[string(ir.KindToggle)], r.Kinds[string(ir.KindGate)])
	fmt.Fprintf(&b, "network hash: %s", r.NetworkHash)
	if r.Output != "" {
		fmt.Fprintf(&b, "\nwrote %s", r.Output)
	}
	return b.String()
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <network>",
		Short: "Compile a network description to canonical form",
		Long: `Compile a text, YAML or CUE network description.

The canonical output is the node list in canonical JSON, sorted by id, with
the network hash used to key stored results. --to text or --to yaml
converts between description formats instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.To, "to", "canonical", "output format (canonical|text|yaml)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	decls, err := ParseNetworkFile(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Parsed %d node(s) from %s", len(decls), path)

	hash, err := ir.NetworkHash(decls)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash network", err)
	}

	data, err := renderNetwork(decls, hash, opts.To)
	if err != nil {
		_ = formatter.Error(ErrCodeBadFlag, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to render network", err)
	}

	result := CompilationResult{
		Network:     path,
		NetworkHash: hash,
		Nodes:       len(decls),
		Kinds:       map[string]int{},
		Output:      opts.Output,
	}
	for _, d := range decls {
		result.Kinds[string(d.Kind)]++
	}

	if opts.Output == "" {
		// Without -o the rendered network is the output.
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
		return nil
	}

	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return formatter.Success(result)
}

// renderNetwork encodes decls in the requested format.
func renderNetwork(decls []ir.NodeDecl, hash, to string) ([]byte, error) {
	switch to {
	case "canonical":
		data, err := ir.MarshalCanonical(map[string]any{
			"record_version": ir.RecordVersion,
			"network_hash":   hash,
			"nodes":          ir.DeclsValue(decls),
		})
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "text":
		return []byte(compiler.RenderText(decls)), nil
	case "yaml":
		return compiler.RenderYAML(decls)
	default:
		return nil, fmt.Errorf("unknown --to %q: must be canonical, text or yaml", to)
	}
}
