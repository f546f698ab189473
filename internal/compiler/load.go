package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pulse/internal/ir"
)

// Format names a description syntax.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// DetectFormat picks a format from the file extension. Anything that is not
// YAML or CUE is read as text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	default:
		return FormatText
	}
}

// Parse dispatches src to the parser for format.
func Parse(format Format, src []byte, filename string) ([]ir.NodeDecl, error) {
	switch format {
	case FormatText:
		return ParseText(src)
	case FormatYAML:
		return ParseYAML(src)
	case FormatCUE:
		return ParseCUE(src, filename)
	default:
		return nil, fmt.Errorf("unknown network format %q", format)
	}
}

// LoadFile reads and parses the description at path.
func LoadFile(path string) ([]ir.NodeDecl, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network %s: %w", path, err)
	}
	decls, err := Parse(DetectFormat(path), src, path)
	if err != nil {
		return nil, fmt.Errorf("parse network %s: %w", path, err)
	}
	if len(decls) == 0 {
		return nil, &CompileError{Field: "network", Message: fmt.Sprintf("%s declares no nodes", path)}
	}
	return decls, nil
}
