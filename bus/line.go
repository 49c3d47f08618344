package bus

import "errors"

// ErrBusContention is returned by Drive when a line is already driven by a
// different driver. This is a fatal, programming-error condition: two
// devices disagreeing about who owns a line indicates broken wiring, not a
// recoverable runtime fault.
var ErrBusContention = errors.New("bus: contention - line already driven by another driver")

// ErrFloatingBus is returned by Expect when a line has no driver at all.
// Callers that require a value must treat this as fatal: it means another
// device was expected to drive the line and didn't.
var ErrFloatingBus = errors.New("bus: floating - line has no driver")

// Line is a named tri-state signal: at most one driver holds a value at
// any instant. The zero value is an undriven line.
type Line[T any] struct {
	name    string
	driven  bool
	driver  uint32
	value   T
}

// NewLine creates a named, initially undriven line.
func NewLine[T any](name string) *Line[T] {
	return &Line[T]{name: name}
}

// Name returns the line's name, for diagnostics.
func (l *Line[T]) Name() string {
	return l.name
}

// Drive asserts value on the line as the given driver. Re-driving with the
// same driver id overwrites the value (this is how a single device
// sequences several states onto one line within a bus cycle, e.g. the
// control line's NONE -> MREQ|RD -> RFSH progression during M1). Driving
// with a different id while another driver already holds the line is a
// contention error.
func (l *Line[T]) Drive(driver uint32, value T) error {
	if l.driven && l.driver != driver {
		return ErrBusContention
	}
	l.driven = true
	l.driver = driver
	l.value = value
	return nil
}

// Release clears the line if it is held by driver. A non-owner calling
// Release is a no-op, matching the spec's "idempotent from the
// perspective of a non-owner" rule.
func (l *Line[T]) Release(driver uint32) {
	if l.driven && l.driver == driver {
		l.driven = false
		var zero T
		l.value = zero
	}
}

// Probe returns the line's current value and whether it is driven. It does
// not require ownership and never fails.
func (l *Line[T]) Probe() (value T, ok bool) {
	return l.value, l.driven
}

// Expect probes the line and fails with ErrFloatingBus if undriven. Use
// this wherever a missing driver would otherwise be silently coerced to a
// default value.
func (l *Line[T]) Expect() (T, error) {
	v, ok := l.Probe()
	if !ok {
		var zero T
		return zero, ErrFloatingBus
	}
	return v, nil
}
