package ir

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrOverflow is returned when a count or an answer does not fit in int64.
var ErrOverflow = errors.New("int64 overflow")

// NodeID identifies a node in a network.
type NodeID string

// Reserved identifiers.
const (
	// SinkOutput and SinkRx are terminal destinations. Signals addressed to
	// them are counted and then dropped; they can never be declared.
	SinkOutput NodeID = "output"
	SinkRx     NodeID = "rx"

	// Button is the source of the synthetic low signal that starts a tick.
	Button NodeID = ""

	// Broadcaster is the conventional trigger node.
	Broadcaster NodeID = "broadcaster"
)

// IsSink reports whether id is one of the reserved sink names.
func IsSink(id NodeID) bool {
	return id == SinkOutput || id == SinkRx
}

// String renders the empty button source readably.
func (id NodeID) String() string {
	if id == Button {
		return "button"
	}
	return string(id)
}

// Kind is the behavioural variant of a node.
type Kind string

const (
	KindRelay  Kind = "relay"
	KindToggle Kind = "toggle"
	KindGate   Kind = "gate"
)

// Valid reports whether k is one of the three node kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRelay, KindToggle, KindGate:
		return true
	}
	return false
}

// ParseKind accepts the canonical kind names and the puzzle vocabulary
// (broadcaster, flip-flop, conjunction).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "relay", "broadcaster", "broadcast":
		return KindRelay, nil
	case "toggle", "flipflop", "flip-flop", "flip_flop":
		return KindToggle, nil
	case "gate", "conjunction", "nand":
		return KindGate, nil
	}
	return "", fmt.Errorf("unknown node kind %q", s)
}

// NodeDecl is one parsed node description: identity, kind and the ordered
// destination list. Destination order is significant; it fixes the order in
// which outputs are enqueued.
type NodeDecl struct {
	ID           NodeID   `json:"id" yaml:"id"`
	Kind         Kind     `json:"kind" yaml:"kind"`
	Destinations []NodeID `json:"destinations" yaml:"destinations"`
}

// Polarity is the binary value carried by a signal.
type Polarity bool

const (
	Low  Polarity = false
	High Polarity = true
)

func (p Polarity) String() string {
	if p == High {
		return "high"
	}
	return "low"
}

// MarshalText encodes the polarity as "high" or "low".
func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts anything ParsePolarity accepts.
func (p *Polarity) UnmarshalText(text []byte) error {
	v, err := ParsePolarity(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePolarity accepts "high"/"low" and the shorthands "h"/"l", "1"/"0".
func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "h", "1", "true":
		return High, nil
	case "low", "l", "0", "false":
		return Low, nil
	}
	return Low, fmt.Errorf("unknown polarity %q", s)
}

// Signal is one pulse in flight from Source to Destination.
type Signal struct {
	Source      NodeID   `json:"source"`
	Destination NodeID   `json:"destination"`
	Polarity    Polarity `json:"polarity"`
}

func (s Signal) String() string {
	return fmt.Sprintf("%s -%s-> %s", s.Source, s.Polarity, s.Destination)
}

// Condition matches signals by source and polarity. It is used both as a
// tick abort condition and as a first-occurrence search target.
type Condition struct {
	Node     NodeID   `json:"node" yaml:"node"`
	Polarity Polarity `json:"polarity" yaml:"polarity"`
}

// Matches reports whether sig was emitted by the condition's node with the
// condition's polarity.
func (c Condition) Matches(sig Signal) bool {
	return sig.Source == c.Node && sig.Polarity == c.Polarity
}

func (c Condition) String() string {
	return fmt.Sprintf("%s:%s", c.Node, c.Polarity)
}

// ParseCondition parses "node:polarity". A bare node name means high.
func ParseCondition(s string) (Condition, error) {
	node, pol, found := strings.Cut(strings.TrimSpace(s), ":")
	if node == "" {
		return Condition{}, fmt.Errorf("condition %q: empty node", s)
	}
	c := Condition{Node: NodeID(node), Polarity: High}
	if found {
		p, err := ParsePolarity(pol)
		if err != nil {
			return Condition{}, fmt.Errorf("condition %q: %w", s, err)
		}
		c.Polarity = p
	}
	return c, nil
}

// Counts tallies processed signals by polarity.
type Counts struct {
	High int64 `json:"high"`
	Low  int64 `json:"low"`
}

// Add returns the element-wise sum.
func (c Counts) Add(o Counts) Counts {
	return Counts{High: c.High + o.High, Low: c.Low + o.Low}
}

// Scale multiplies both tallies by a non-negative n.
func (c Counts) Scale(n int64) (Counts, error) {
	high, ok := mulInt64(c.High, n)
	if !ok {
		return Counts{}, fmt.Errorf("%w: %d high * %d", ErrOverflow, c.High, n)
	}
	low, ok := mulInt64(c.Low, n)
	if !ok {
		return Counts{}, fmt.Errorf("%w: %d low * %d", ErrOverflow, c.Low, n)
	}
	return Counts{High: high, Low: low}, nil
}

// CheckedAdd is Add with an overflow check.
func (c Counts) CheckedAdd(o Counts) (Counts, error) {
	if c.High > math.MaxInt64-o.High || c.Low > math.MaxInt64-o.Low {
		return Counts{}, fmt.Errorf("%w: %+v + %+v", ErrOverflow, c, o)
	}
	return c.Add(o), nil
}

// Total is the number of signals counted.
func (c Counts) Total() int64 {
	return c.High + c.Low
}

// Product is High*Low, the conventional single-number answer.
func (c Counts) Product() (int64, error) {
	p, ok := mulInt64(c.High, c.Low)
	if !ok {
		return 0, fmt.Errorf("%w: %d high * %d low", ErrOverflow, c.High, c.Low)
	}
	return p, nil
}

// mulInt64 multiplies non-negative operands, reporting false on overflow.
func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// Tally records one signal of polarity p.
func (c *Counts) Tally(p Polarity) {
	if p == High {
		c.High++
	} else {
		c.Low++
	}
}
