package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/pulse/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// CompileCUE reads a CUE network description:
//
//	node: broadcaster: {kind: "relay", destinations: ["a", "b"]}
//	node: a: {kind: "toggle", destinations: ["inv"]}
//	node: inv: {kind: "gate", destinations: ["output"]}
//
// Nodes are returned in field order.
func CompileCUE(v cue.Value) ([]ir.NodeDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	if !v.LookupPath(cue.ParsePath("node")).Exists() {
		return nil, &CompileError{Field: "node", Message: "no node struct found", Pos: v.Pos()}
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	nodesVal := unified.LookupPath(cue.ParsePath("node"))
	iter, err := nodesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []ir.NodeDecl
	for iter.Next() {
		id := iter.Label()
		nodeVal := iter.Value()

		kindStr, err := nodeVal.LookupPath(cue.ParsePath("kind")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		kind, err := ir.ParseKind(kindStr)
		if err != nil {
			return nil, &CompileError{Field: "node." + id + ".kind", Message: err.Error(), Pos: nodeVal.Pos()}
		}

		var dests []string
		if err := nodeVal.LookupPath(cue.ParsePath("destinations")).Decode(&dests); err != nil {
			return nil, formatCUEError(err)
		}

		d := ir.NodeDecl{ID: ir.NodeID(id), Kind: kind}
		for _, dst := range dests {
			d.Destinations = append(d.Destinations, ir.NodeID(dst))
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return nil, &CompileError{Field: "node", Message: "no nodes declared", Pos: nodesVal.Pos()}
	}
	return decls, nil
}

// ParseCUE compiles CUE source and extracts its network.
func ParseCUE(src []byte, filename string) ([]ir.NodeDecl, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileCUE(v)
}
