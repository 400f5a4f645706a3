package sim

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWait is returned when a process asks to wait a negative or
// non-finite amount of virtual time.
var ErrInvalidWait = errors.New("invalid wait")

type resumption struct {
	at     float64
	seq    uint64
	proc   Process
	onDone func()
}

type resumptionQueue []*resumption

func (q resumptionQueue) Len() int { return len(q) }
func (q resumptionQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q resumptionQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *resumptionQueue) Push(x any)   { *q = append(*q, x.(*resumption)) }
func (q *resumptionQueue) Pop() any {
	old := *q
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return r
}

// Environment owns the virtual clock and the pending resumptions.
// It is not safe for concurrent use; all processes run on the caller's
// goroutine.
type Environment struct {
	now   float64
	seq   uint64
	queue resumptionQueue
}

// NewEnvironment returns an environment whose clock starts at zero.
func NewEnvironment() *Environment {
	return &Environment{}
}

// Now returns the current virtual time.
func (e *Environment) Now() float64 { return e.now }

// Pending returns the number of scheduled resumptions.
func (e *Environment) Pending() int { return len(e.queue) }

// Peek returns the time of the earliest resumption.
func (e *Environment) Peek() (float64, bool) {
	if len(e.queue) == 0 {
		return 0, false
	}
	return e.queue[0].at, true
}

// Spawn schedules p to start at the current virtual time. onDone, when not
// nil, is called once p reports completion.
func (e *Environment) Spawn(p Process, onDone func()) {
	e.schedule(e.now, p, onDone)
}

func (e *Environment) schedule(at float64, p Process, onDone func()) {
	e.seq++
	heap.Push(&e.queue, &resumption{at: at, seq: e.seq, proc: p, onDone: onDone})
}

// Step runs the earliest resumption. It reports false when nothing is left.
func (e *Environment) Step() (bool, error) {
	if len(e.queue) == 0 {
		return false, nil
	}
	r := heap.Pop(&e.queue).(*resumption)
	e.now = r.at
	wait, done := r.proc.Step(e.now)
	if done {
		if r.onDone != nil {
			r.onDone()
		}
		return true, nil
	}
	if wait < 0 || math.IsNaN(wait) || math.IsInf(wait, 0) {
		return true, fmt.Errorf("%w: %v at t=%v", ErrInvalidWait, wait, e.now)
	}
	e.schedule(e.now+wait, r.proc, r.onDone)
	return true, nil
}

// RunUntil runs every resumption due at or before until, then moves the
// clock to until. The context is checked between resumptions.
func (e *Environment) RunUntil(ctx context.Context, until float64) error {
	for len(e.queue) > 0 && e.queue[0].at <= until {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := e.Step(); err != nil {
			return err
		}
	}
	if until > e.now {
		e.now = until
	}
	return nil
}

// Run drains the queue.
func (e *Environment) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := e.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Drive runs p to completion on a private environment and returns the
// virtual time it consumed.
func Drive(p Process) (float64, error) {
	env := NewEnvironment()
	env.Spawn(p, nil)
	if err := env.Run(context.Background()); err != nil {
		return env.Now(), err
	}
	return env.Now(), nil
}
