package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/compiler"
	"github.com/roach88/pulse/internal/ir"
)

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeParse       = "E002" // Network description could not be parsed
	ErrCodeNoNodes     = "E003" // Description declares no nodes
	ErrCodeSimulation  = "E004" // Engine or search failure
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStore       = "E006" // Run log error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadFlag     = "E008" // Invalid flag value
)

// LoadResult is a parsed and constructed network.
type LoadResult struct {
	Path    string
	Format  compiler.Format
	Decls   []ir.NodeDecl
	Network *circuit.Network
	Hash    string
}

// LoadError represents an error that occurred while loading a network.
type LoadError struct {
	Code    string
	Message string
	Line    int // 1-based source line if known
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ParseNetworkFile reads and parses a description without building it.
func ParseNetworkFile(path string) ([]ir.NodeDecl, error) {
	decls, err := compiler.LoadFile(path)
	if err != nil {
		return nil, convertLoadError(err, path)
	}
	return decls, nil
}

// LoadNetwork reads, parses and builds the network at path.
func LoadNetwork(path string, opts ...circuit.Option) (*LoadResult, error) {
	decls, err := ParseNetworkFile(path)
	if err != nil {
		return nil, err
	}
	return buildNetwork(path, decls, opts...)
}

func buildNetwork(path string, decls []ir.NodeDecl, opts ...circuit.Option) (*LoadResult, error) {
	net, err := circuit.New(decls, opts...)
	if err != nil {
		return nil, convertLoadError(err, path)
	}
	hash, err := ir.NetworkHash(decls)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	return &LoadResult{
		Path:    path,
		Format:  compiler.DetectFormat(path),
		Decls:   decls,
		Network: net,
		Hash:    hash,
	}, nil
}

// convertLoadError maps loader and construction errors onto CLI codes.
func convertLoadError(err error, path string) *LoadError {
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("network file not found: %s", path)}
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := ErrCodeParse
		if compileErr.Field == "network" {
			code = ErrCodeNoNodes
		}
		line := compileErr.Line
		if line == 0 && compileErr.Pos.IsValid() {
			line = compileErr.Pos.Line()
		}
		return &LoadError{Code: code, Message: compileErr.Message, Line: line}
	}

	var cfgErr *circuit.ConfigError
	if errors.As(err, &cfgErr) {
		return &LoadError{Code: MapConfigErrorCode(cfgErr.Code), Message: cfgErr.Error()}
	}

	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// MapConfigErrorCode maps a construction error onto the validation code
// reported by the validate command for the same problem.
func MapConfigErrorCode(code circuit.ConfigErrorCode) string {
	switch code {
	case circuit.ErrCodeEmptyID:
		return compiler.ErrEmptyID
	case circuit.ErrCodeDuplicateNode:
		return compiler.ErrDuplicateNode
	case circuit.ErrCodeReservedID:
		return compiler.ErrReservedID
	case circuit.ErrCodeInvalidKind:
		return compiler.ErrInvalidKind
	case circuit.ErrCodeUnknownDestination:
		return compiler.WarnUnknownDest
	default:
		return ErrCodeGeneric
	}
}
