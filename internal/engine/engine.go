package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/pulse/internal/circuit"
	"github.com/roach88/pulse/internal/ir"
)

// TickResult is the outcome of one tick.
type TickResult struct {
	// Counts holds the signals dequeued, by polarity. An aborting signal is
	// counted.
	ir.Counts

	// Enqueued is the number of signals pushed onto the queue, including the
	// seed. For a tick that was not aborted it equals Counts.Total().
	Enqueued int64

	// Aborted is true when the abort condition stopped the tick early.
	Aborted bool
}

// Hooks receive engine events as they happen. Nil hooks are skipped.
type Hooks struct {
	// OnSignal is called for every dequeued signal, after it is counted and
	// before the abort check.
	OnSignal func(tick, seq int64, sig ir.Signal)

	// OnTick is called after every successful tick.
	OnTick func(tick int64, res TickResult)
}

// Recorder receives per-tick outcomes for metrics.
type Recorder interface {
	ObserveTick(trigger ir.NodeID, res TickResult)
}

// Engine drives a single network. It is not safe for concurrent use.
//
// INVARIANTS:
//   - Signals are delivered in FIFO order within a tick
//   - Node state persists across ticks and is never reset implicitly
//   - Clock seq increases by exactly one per dequeued signal
type Engine struct {
	net      *circuit.Network
	clock    *Clock
	queue    *signalQueue
	quota    *QuotaEnforcer
	ticks    int64
	maxSteps int64
	hooks    Hooks
	recorder Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSteps bounds the number of signals processed per tick.
//
// Default: 0 (unbounded). A tick that exceeds the budget fails with
// ErrCodeStepsExceeded.
func WithMaxSteps(maxSteps int64) Option {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithHooks installs signal and tick callbacks.
func WithHooks(h Hooks) Option {
	return func(e *Engine) {
		e.hooks = h
	}
}

// WithRecorder reports every completed tick to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// New creates an engine that takes exclusive ownership of net.
func New(net *circuit.Network, opts ...Option) *Engine {
	e := &Engine{
		net:   net,
		clock: NewClock(),
		queue: newSignalQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.quota = NewQuotaEnforcer(e.maxSteps)
	return e
}

// Network returns the network the engine drives.
func (e *Engine) Network() *circuit.Network {
	return e.net
}

// Ticks returns the number of ticks started so far.
func (e *Engine) Ticks() int64 {
	return e.ticks
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Reset restores the network to its construction state and rewinds the tick
// counter and clock.
func (e *Engine) Reset() {
	e.net.Reset()
	e.queue.reset()
	e.clock.Reset()
	e.ticks = 0
}

// Tick injects one low signal into trigger and drains the cascade.
//
// When abort is non-nil, the first dequeued signal whose source and
// polarity match it is counted and then ends the tick; signals still queued
// are discarded and Aborted is set.
func (e *Engine) Tick(trigger ir.NodeID, abort *ir.Condition) (TickResult, error) {
	var res TickResult

	start, ok := e.net.Node(trigger)
	if !ok {
		return res, &RuntimeError{
			Code:    ErrCodeUnknownTrigger,
			Message: fmt.Sprintf("trigger %q is not a declared node", trigger),
			Tick:    e.ticks + 1,
		}
	}
	if start.Kind() == ir.KindGate {
		return res, &RuntimeError{
			Code:    ErrCodeInvalidTrigger,
			Message: fmt.Sprintf("trigger %q is a gate and has no button input", trigger),
			Tick:    e.ticks + 1,
		}
	}

	e.ticks++
	tick := e.ticks
	e.queue.reset()
	e.quota.Reset()

	e.queue.push(ir.Signal{Source: ir.Button, Destination: trigger, Polarity: ir.Low})
	res.Enqueued = 1

	for {
		sig, ok := e.queue.pop()
		if !ok {
			break
		}

		if err := e.quota.Check(tick); err != nil {
			e.queue.reset()
			return res, &RuntimeError{
				Code:    ErrCodeStepsExceeded,
				Message: "tick did not converge",
				Tick:    tick,
				Signal:  &sig,
				Err:     err,
			}
		}

		seq := e.clock.Next()
		res.Tally(sig.Polarity)
		if e.hooks.OnSignal != nil {
			e.hooks.OnSignal(tick, seq, sig)
		}

		if abort != nil && abort.Matches(sig) {
			res.Aborted = true
			e.queue.reset()
			break
		}

		if e.net.IsSink(sig.Destination) {
			continue
		}

		node, _ := e.net.Node(sig.Destination)
		out, err := node.Process(sig)
		if err != nil {
			e.queue.reset()
			return res, deliveryError(tick, sig, err)
		}
		e.queue.pushAll(out)
		res.Enqueued += int64(len(out))
	}

	if e.recorder != nil {
		e.recorder.ObserveTick(trigger, res)
	}
	if e.hooks.OnTick != nil {
		e.hooks.OnTick(tick, res)
	}
	slog.Debug("tick complete",
		"tick", tick,
		"trigger", trigger,
		"high", res.High,
		"low", res.Low,
		"aborted", res.Aborted,
	)
	return res, nil
}

func deliveryError(tick int64, sig ir.Signal, err error) error {
	if circuit.IsMissingInputError(err) {
		return &RuntimeError{
			Code:    ErrCodeMissingGateInput,
			Message: "gate received a signal from an unregistered source",
			Tick:    tick,
			Signal:  &sig,
			Err:     err,
		}
	}
	return fmt.Errorf("tick %d: deliver %s: %w", tick, sig, err)
}

// RunTick builds a throwaway engine around net and runs one tick. Node
// state changes persist in net.
func RunTick(net *circuit.Network, trigger ir.NodeID, abort *ir.Condition, opts ...Option) (TickResult, error) {
	return New(net, opts...).Tick(trigger, abort)
}
