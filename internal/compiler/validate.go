package compiler

import (
	"fmt"

	"github.com/roach88/pulse/internal/ir"
)

// Validation codes (E1xx are fatal, W1xx are advisory).
const (
	ErrEmptyID            = "E101" // node id is empty
	ErrDuplicateNode      = "E102" // node declared twice
	ErrReservedID         = "E103" // output or rx declared as a node
	ErrInvalidKind        = "E104" // kind is not relay, toggle or gate
	ErrUnknownTrigger     = "E105" // trigger node not declared
	ErrGateTrigger        = "E106" // trigger is a gate
	WarnUnknownDest       = "W110" // destination neither declared nor a sink
	WarnGateWithoutInputs = "W111" // gate that no node feeds
	WarnUnreachable       = "W112" // node unreachable from the trigger
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents one problem found in a network description.
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks declarations against the network rules and reports every
// problem found instead of stopping at the first.
func Validate(decls []ir.NodeDecl, trigger ir.NodeID) []ValidationError {
	var errs []ValidationError
	add := func(code, severity, field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg, Code: code, Severity: severity})
	}

	declared := make(map[ir.NodeID]ir.Kind, len(decls))
	for i, d := range decls {
		field := fmt.Sprintf("nodes[%d]", i)
		switch {
		case d.ID == "":
			add(ErrEmptyID, SeverityError, field+".id", "node id must not be empty")
			continue
		case ir.IsSink(d.ID):
			add(ErrReservedID, SeverityError, field+".id", fmt.Sprintf("%q is a reserved sink", d.ID))
			continue
		}
		if _, dup := declared[d.ID]; dup {
			add(ErrDuplicateNode, SeverityError, field+".id", fmt.Sprintf("duplicate node %q", d.ID))
			continue
		}
		if !d.Kind.Valid() {
			add(ErrInvalidKind, SeverityError, field+".kind", fmt.Sprintf("node %q has invalid kind %q", d.ID, d.Kind))
		}
		declared[d.ID] = d.Kind
	}

	fed := make(map[ir.NodeID]bool)
	reported := make(map[ir.NodeID]bool)
	for i, d := range decls {
		for j, dst := range d.Destinations {
			fed[dst] = true
			if _, ok := declared[dst]; ok || ir.IsSink(dst) || reported[dst] {
				continue
			}
			reported[dst] = true
			add(WarnUnknownDest, SeverityWarning, fmt.Sprintf("nodes[%d].destinations[%d]", i, j),
				fmt.Sprintf("%q is not declared and will act as a sink", dst))
		}
	}

	for i, d := range decls {
		if d.Kind == ir.KindGate && !fed[d.ID] && d.ID != trigger {
			add(WarnGateWithoutInputs, SeverityWarning, fmt.Sprintf("nodes[%d]", i),
				fmt.Sprintf("gate %q has no inputs", d.ID))
		}
	}

	kind, ok := declared[trigger]
	if !ok {
		add(ErrUnknownTrigger, SeverityError, "trigger", fmt.Sprintf("trigger %q is not declared", trigger))
		return errs
	}
	if kind == ir.KindGate {
		add(ErrGateTrigger, SeverityError, "trigger", fmt.Sprintf("trigger %q is a gate; gates cannot be pressed", trigger))
	}

	reachable := reach(decls, trigger)
	for i, d := range decls {
		if _, ok := declared[d.ID]; ok && !reachable[d.ID] {
			add(WarnUnreachable, SeverityWarning, fmt.Sprintf("nodes[%d]", i),
				fmt.Sprintf("node %q is unreachable from %q", d.ID, trigger))
		}
	}
	return errs
}

// HasErrors reports whether any entry is fatal.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

func reach(decls []ir.NodeDecl, from ir.NodeID) map[ir.NodeID]bool {
	edges := make(map[ir.NodeID][]ir.NodeID, len(decls))
	for _, d := range decls {
		if _, seen := edges[d.ID]; !seen {
			edges[d.ID] = d.Destinations
		}
	}
	seen := map[ir.NodeID]bool{from: true}
	stack := []ir.NodeID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range edges[id] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return seen
}
