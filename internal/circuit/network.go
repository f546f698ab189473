package circuit

import (
	"log/slog"
	"sort"

	"github.com/roach88/pulse/internal/ir"
)

// Option configures network construction.
type Option func(*options)

type options struct {
	strictDestinations bool
	lazyGateInputs     bool
}

// WithStrictDestinations makes an undeclared, non-reserved destination a
// fatal ConfigError instead of an implicit sink.
func WithStrictDestinations() Option {
	return func(o *options) { o.strictDestinations = true }
}

// WithLazyGateInputs lets gates accept signals from sources they were not
// wired to at construction, assuming the complement of the first observed
// polarity as the prior memory.
func WithLazyGateInputs() Option {
	return func(o *options) { o.lazyGateInputs = true }
}

// Network is the fixed set of nodes keyed by id.
type Network struct {
	nodes      map[ir.NodeID]*Node
	order      []ir.NodeID
	decls      []ir.NodeDecl
	undeclared map[ir.NodeID]struct{}
	feeders    map[ir.NodeID][]ir.NodeID
	opts       options
}

// New builds a network from declarations. Toggles start inactive; every
// gate starts with one low memory slot per declaring source.
func New(decls []ir.NodeDecl, opts ...Option) (*Network, error) {
	n := &Network{
		nodes:      make(map[ir.NodeID]*Node, len(decls)),
		order:      make([]ir.NodeID, 0, len(decls)),
		decls:      copyDecls(decls),
		undeclared: make(map[ir.NodeID]struct{}),
		feeders:    make(map[ir.NodeID][]ir.NodeID),
	}
	for _, opt := range opts {
		opt(&n.opts)
	}

	for _, d := range n.decls {
		if d.ID == "" {
			return nil, &ConfigError{Code: ErrCodeEmptyID, Message: "node id must not be empty"}
		}
		if ir.IsSink(d.ID) {
			return nil, &ConfigError{Code: ErrCodeReservedID, NodeID: d.ID, Message: "reserved sink name cannot be declared"}
		}
		if _, dup := n.nodes[d.ID]; dup {
			return nil, &ConfigError{Code: ErrCodeDuplicateNode, NodeID: d.ID, Message: "declared more than once"}
		}
		var b Behavior
		switch d.Kind {
		case ir.KindRelay:
			b = Relay{}
		case ir.KindToggle:
			b = &Toggle{}
		case ir.KindGate:
			b = newGate()
		default:
			return nil, &ConfigError{Code: ErrCodeInvalidKind, NodeID: d.ID, Message: "invalid kind " + string(d.Kind)}
		}
		n.nodes[d.ID] = &Node{
			ID:           d.ID,
			Destinations: d.Destinations,
			Behavior:     b,
			lazyInputs:   n.opts.lazyGateInputs,
		}
		n.order = append(n.order, d.ID)
	}

	// Second pass: destinations are resolvable only once every node exists.
	for _, d := range n.decls {
		seen := make(map[ir.NodeID]bool, len(d.Destinations))
		for _, dst := range d.Destinations {
			if !seen[dst] {
				n.feeders[dst] = append(n.feeders[dst], d.ID)
				seen[dst] = true
			}
			target, ok := n.nodes[dst]
			if !ok {
				if ir.IsSink(dst) {
					continue
				}
				if n.opts.strictDestinations {
					return nil, &ConfigError{
						Code:        ErrCodeUnknownDestination,
						NodeID:      d.ID,
						Destination: dst,
						Message:     "destination is neither declared nor a reserved sink",
					}
				}
				if _, known := n.undeclared[dst]; !known {
					slog.Warn("undeclared destination treated as sink", "node", d.ID, "destination", dst)
				}
				n.undeclared[dst] = struct{}{}
				continue
			}
			if g, isGate := target.Behavior.(*Gate); isGate {
				g.addInput(d.ID)
			}
		}
	}

	return n, nil
}

func copyDecls(decls []ir.NodeDecl) []ir.NodeDecl {
	out := make([]ir.NodeDecl, len(decls))
	for i, d := range decls {
		out[i] = ir.NodeDecl{ID: d.ID, Kind: d.Kind, Destinations: append([]ir.NodeID(nil), d.Destinations...)}
	}
	return out
}

// Node returns the node with the given id.
func (n *Network) Node(id ir.NodeID) (*Node, bool) {
	node, ok := n.nodes[id]
	return node, ok
}

// Nodes returns all nodes in declaration order.
func (n *Network) Nodes() []*Node {
	out := make([]*Node, len(n.order))
	for i, id := range n.order {
		out[i] = n.nodes[id]
	}
	return out
}

// Len is the number of declared nodes.
func (n *Network) Len() int {
	return len(n.order)
}

// IsSink reports whether signals addressed to id are dropped after counting:
// reserved sinks and tolerated undeclared destinations.
func (n *Network) IsSink(id ir.NodeID) bool {
	if ir.IsSink(id) {
		return true
	}
	_, ok := n.undeclared[id]
	return ok
}

// Undeclared returns the destinations that were treated as implicit sinks,
// sorted.
func (n *Network) Undeclared() []ir.NodeID {
	out := make([]ir.NodeID, 0, len(n.undeclared))
	for id := range n.undeclared {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Feeders returns the declared nodes that list id as a destination, in
// declaration order. It works for sinks as well as nodes.
func (n *Network) Feeders(id ir.NodeID) []ir.NodeID {
	return append([]ir.NodeID(nil), n.feeders[id]...)
}

// Declarations returns a copy of the declarations the network was built from.
func (n *Network) Declarations() []ir.NodeDecl {
	return copyDecls(n.decls)
}

// Clone returns an independent copy including current node state.
func (n *Network) Clone() *Network {
	c := &Network{
		nodes:      make(map[ir.NodeID]*Node, len(n.nodes)),
		order:      n.order,
		decls:      n.decls,
		undeclared: n.undeclared,
		feeders:    n.feeders,
		opts:       n.opts,
	}
	for id, node := range n.nodes {
		c.nodes[id] = node.clone()
	}
	return c
}

// Reset returns every node to its construction state.
func (n *Network) Reset() {
	for _, node := range n.nodes {
		node.reset()
	}
}

// Fingerprint hashes the full mutable state: toggle activity and every gate
// memory slot, in declaration order. Equal fingerprints mean the network will
// behave identically from here on.
func (n *Network) Fingerprint() string {
	buf := make([]byte, 0, len(n.order))
	for _, id := range n.order {
		switch b := n.nodes[id].Behavior.(type) {
		case *Toggle:
			buf = append(buf, boolByte(b.Active))
		case *Gate:
			buf = append(buf, '[')
			for _, src := range b.order {
				buf = append(buf, boolByte(bool(b.inputs[src])))
			}
			buf = append(buf, ']')
		}
	}
	return ir.StateHash(buf)
}

func boolByte(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}
