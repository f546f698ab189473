package circuit

import (
	"fmt"

	"github.com/roach88/pulse/internal/ir"
)

// Behavior is the closed set of node variants: Relay, *Toggle and *Gate.
type Behavior interface {
	kind() ir.Kind
}

// Relay forwards every signal unchanged.
type Relay struct{}

func (Relay) kind() ir.Kind { return ir.KindRelay }

// Toggle flips on each low signal and ignores high ones.
type Toggle struct {
	Active bool
}

func (*Toggle) kind() ir.Kind { return ir.KindToggle }

// Gate remembers the most recent polarity from each input.
type Gate struct {
	inputs map[ir.NodeID]ir.Polarity
	order  []ir.NodeID
	// declared is how many entries of order came from construction-time
	// discovery; the rest were added lazily and are dropped on reset.
	declared int
	high     int
}

func (*Gate) kind() ir.Kind { return ir.KindGate }

func newGate() *Gate {
	return &Gate{inputs: make(map[ir.NodeID]ir.Polarity)}
}

// addInput registers source with an initial low memory. Duplicates are ignored.
func (g *Gate) addInput(source ir.NodeID) {
	if _, ok := g.inputs[source]; ok {
		return
	}
	g.inputs[source] = ir.Low
	g.order = append(g.order, source)
	g.declared = len(g.order)
}

// Inputs returns the gate's inputs in discovery order.
func (g *Gate) Inputs() []ir.NodeID {
	out := make([]ir.NodeID, len(g.order))
	copy(out, g.order)
	return out
}

// Remembered returns the last polarity seen from source.
func (g *Gate) Remembered(source ir.NodeID) (ir.Polarity, bool) {
	p, ok := g.inputs[source]
	return p, ok
}

// AllHigh reports whether every remembered input is high. A gate with no
// inputs is vacuously all high.
func (g *Gate) AllHigh() bool {
	return g.high == len(g.order)
}

func (g *Gate) set(source ir.NodeID, p ir.Polarity) {
	prev := g.inputs[source]
	if prev == p {
		return
	}
	g.inputs[source] = p
	if p == ir.High {
		g.high++
	} else {
		g.high--
	}
}

func (g *Gate) reset() {
	for _, src := range g.order[g.declared:] {
		delete(g.inputs, src)
	}
	g.order = g.order[:g.declared]
	for _, src := range g.order {
		g.inputs[src] = ir.Low
	}
	g.high = 0
}

func (g *Gate) clone() *Gate {
	c := &Gate{
		inputs:   make(map[ir.NodeID]ir.Polarity, len(g.inputs)),
		order:    make([]ir.NodeID, len(g.order)),
		declared: g.declared,
		high:     g.high,
	}
	copy(c.order, g.order)
	for k, v := range g.inputs {
		c.inputs[k] = v
	}
	return c
}

// Node is a named behaviour with an ordered destination list.
type Node struct {
	ID           ir.NodeID
	Destinations []ir.NodeID
	Behavior     Behavior

	lazyInputs bool
}

// Kind returns the node's behavioural variant.
func (n *Node) Kind() ir.Kind {
	return n.Behavior.kind()
}

// Process delivers one signal to the node. State is updated before the
// outputs are built, and outputs follow the declared destination order.
// A toggle receiving high returns no signals.
func (n *Node) Process(in ir.Signal) ([]ir.Signal, error) {
	var out ir.Polarity
	switch b := n.Behavior.(type) {
	case Relay:
		out = in.Polarity
	case *Toggle:
		if in.Polarity == ir.High {
			return nil, nil
		}
		b.Active = !b.Active
		out = ir.Polarity(b.Active)
	case *Gate:
		if _, ok := b.inputs[in.Source]; !ok {
			if !n.lazyInputs {
				return nil, &MissingInputError{Gate: n.ID, Source: in.Source}
			}
			// Fallback convention: an unseen input is assumed to have held
			// the opposite polarity until now.
			b.inputs[in.Source] = !in.Polarity
			b.order = append(b.order, in.Source)
			if in.Polarity == ir.Low {
				b.high++
			}
		}
		b.set(in.Source, in.Polarity)
		out = ir.Polarity(!b.AllHigh())
	default:
		panic(fmt.Sprintf("circuit: unhandled behavior %T", n.Behavior))
	}
	return n.emit(out), nil
}

func (n *Node) emit(p ir.Polarity) []ir.Signal {
	if len(n.Destinations) == 0 {
		return nil
	}
	out := make([]ir.Signal, len(n.Destinations))
	for i, dst := range n.Destinations {
		out[i] = ir.Signal{Source: n.ID, Destination: dst, Polarity: p}
	}
	return out
}

func (n *Node) clone() *Node {
	c := &Node{
		ID:           n.ID,
		Destinations: n.Destinations,
		lazyInputs:   n.lazyInputs,
	}
	switch b := n.Behavior.(type) {
	case Relay:
		c.Behavior = Relay{}
	case *Toggle:
		c.Behavior = &Toggle{Active: b.Active}
	case *Gate:
		c.Behavior = b.clone()
	default:
		panic(fmt.Sprintf("circuit: unhandled behavior %T", n.Behavior))
	}
	return c
}

func (n *Node) reset() {
	switch b := n.Behavior.(type) {
	case *Toggle:
		b.Active = false
	case *Gate:
		b.reset()
	}
}
