package engine

import "github.com/roach88/pulse/internal/ir"

// signalQueue is the FIFO work list of a single tick.
//
// It is not thread-safe: only the engine's tick loop touches it. Popped
// slots are reclaimed by resetting the slice once the queue drains, so a
// long-running engine reuses one backing array.
type signalQueue struct {
	signals []ir.Signal
	head    int
}

func newSignalQueue() *signalQueue {
	return &signalQueue{signals: make([]ir.Signal, 0, 64)}
}

// push appends one signal at the back.
func (q *signalQueue) push(s ir.Signal) {
	q.signals = append(q.signals, s)
}

// pushAll appends signals at the back, preserving their order.
func (q *signalQueue) pushAll(ss []ir.Signal) {
	q.signals = append(q.signals, ss...)
}

// pop removes and returns the front signal.
func (q *signalQueue) pop() (ir.Signal, bool) {
	if q.Len() == 0 {
		q.reset()
		return ir.Signal{}, false
	}
	s := q.signals[q.head]
	q.head++
	return s, true
}

// Len returns the number of signals still waiting.
func (q *signalQueue) Len() int {
	return len(q.signals) - q.head
}

// reset discards anything still queued.
func (q *signalQueue) reset() {
	q.signals = q.signals[:0]
	q.head = 0
}
