// Package scheduler implements the cooperative, clock-driven driver that
// coordinates the CPU and bus devices. Every device is modelled as an
// infinite, never-returning task; the scheduler resumes exactly one task
// at a time, keyed on the half-T-state at which it asked to be woken.
//
// Go's goroutines are used as the "fiber" substrate design note 9 asks
// for: each device runs on its own goroutine, but the scheduler and the
// device hand off control through unbuffered channels so that only one
// goroutine is ever actually running CPU/bus logic at once. This keeps the
// single-threaded cooperative semantics the spec requires while letting
// each device's task read as a plain, linear Go function instead of a
// hand-rolled state machine.
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"log"

	"github.com/user-none/go-chip-z80/bus"
)

// ErrTaskTerminated is returned by Advance when a device task returns.
// Tasks are contractually non-returning; a return is a fatal programming
// error in that device.
var ErrTaskTerminated = errors.New("scheduler: device task terminated")

// Yield suspends the calling task until offset half-T-states have
// elapsed. It is the only suspension primitive available to a task.
type Yield func(offsetHalfT uint64)

// Device is a single participant on the bus: a stable identity used for
// bus-line ownership, and an infinite task body that drives/samples bus
// lines and yields an offset until its next action.
type Device interface {
	Identity() uint32
	Run(y Yield)
}

// taskState tracks one device's scheduling bookkeeping and channel
// hand-off plumbing.
type taskState struct {
	device Device
	wake   uint64

	resumeCh chan struct{}
	yieldCh  chan uint64
	doneCh   chan struct{}
}

// wakeHeap orders pending tasks by wake time, FIFO among ties (insertion
// order is preserved because container/heap is stable for equal keys only
// if we break ties explicitly with a sequence number).
type wakeHeap []*heapEntry

type heapEntry struct {
	task *taskState
	wake uint64
	seq  uint64
}

func (h wakeHeap) Len() int { return len(h) }
func (h wakeHeap) Less(i, j int) bool {
	if h[i].wake != h[j].wake {
		return h[i].wake < h[j].wake
	}
	return h[i].seq < h[j].seq
}
func (h wakeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *wakeHeap) Push(x interface{}) { *h = append(*h, x.(*heapEntry)) }
func (h *wakeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler drives N device tasks against a shared Clock.
type Scheduler struct {
	clock *bus.Clock
	tasks []*taskState
	heap  wakeHeap
	seq   uint64
}

// New starts every device's task on its own goroutine and blocks until
// each has yielded its first wake offset, then returns a Scheduler ready
// to Advance.
func New(clock *bus.Clock, devices []Device) *Scheduler {
	s := &Scheduler{clock: clock}
	for _, d := range devices {
		ts := &taskState{
			device:   d,
			resumeCh: make(chan struct{}),
			yieldCh:  make(chan uint64),
			doneCh:   make(chan struct{}),
		}
		s.tasks = append(s.tasks, ts)

		y := func(offset uint64) {
			ts.yieldCh <- offset
			<-ts.resumeCh
		}

		go func(ts *taskState, y Yield) {
			defer close(ts.doneCh)
			ts.device.Run(y)
		}(ts, y)

		offset := <-ts.yieldCh
		ts.wake = clock.Current() + offset
		heap.Push(&s.heap, &heapEntry{task: ts, wake: ts.wake, seq: s.seq})
		s.seq++
	}
	return s
}

// Advance runs the scheduler until the clock reaches current+offset.
// Pending tasks whose wake time falls strictly before the target are
// resumed in order; a task resumed at time t MUST yield a new offset,
// which schedules its next wake at t+offset. Two tasks due at the same
// half-T-state are resumed in the order they were inserted into the heap.
func (s *Scheduler) Advance(offset uint64) error {
	target := s.clock.Current() + offset

	for s.heap.Len() > 0 {
		next := s.heap[0]
		if next.wake >= target {
			break
		}

		heap.Pop(&s.heap)
		ts := next.task
		s.clock.Set(next.wake)

		select {
		case ts.resumeCh <- struct{}{}:
		case <-ts.doneCh:
			return fmt.Errorf("%w: device %d", ErrTaskTerminated, ts.device.Identity())
		}

		select {
		case newOffset := <-ts.yieldCh:
			ts.wake = s.clock.Current() + newOffset
			heap.Push(&s.heap, &heapEntry{task: ts, wake: ts.wake, seq: s.seq})
			s.seq++
		case <-ts.doneCh:
			log.Printf("[scheduler] device %d terminated instead of yielding", ts.device.Identity())
			return fmt.Errorf("%w: device %d", ErrTaskTerminated, ts.device.Identity())
		}
	}

	s.clock.Set(target)
	return nil
}
