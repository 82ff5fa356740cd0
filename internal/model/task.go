package model

import (
	"fmt"

	"github.com/swarmguard/npdaa/internal/timeval"
)

// Task is immutable after construction, grounded on
// original_source/include/task.hpp. Incident edges are stored as
// index slices into the owning DAG's edge arena (a pure relation, not
// ownership) rather than the original's shared-pointer back-references.
//
// task.hpp also defines an is_ruunnable() method that dereferences a
// shared pointer without the arrow operator and is never called
// anywhere in the source; it is omitted here (see DESIGN.md).
type Task[T timeval.Numeric] struct {
	Index        int
	TaskID       uint64
	Name         string
	BCET         T
	WCET         T
	RecCostMin   T
	RecCostMax   T
	Period       T
	Jitter       timeval.Interval[T]
	Deadline     T
	PE           uint64
	IncomingEdge []int // edge indices where this task is the destination
	OutgoingEdge []int // edge indices where this task is the source
}

// MinJitter / MaxJitter expose the jitter window bounds.
func (t Task[T]) MinJitter() T { return t.Jitter.From() }
func (t Task[T]) MaxJitter() T { return t.Jitter.Until() }

// IsSource reports whether the task has no incoming edges (chain root
// candidate).
func (t Task[T]) IsSource() bool { return len(t.IncomingEdge) == 0 }

// IsSink reports whether the task has no outgoing edges (chain
// terminus candidate).
func (t Task[T]) IsSink() bool { return len(t.OutgoingEdge) == 0 }

// PrintSpec renders the task's parameters, used by DAG.Describe.
func (t Task[T]) PrintSpec() string {
	return fmt.Sprintf("T%d(%s): bcet=%v wcet=%v period=%v jitter=%v deadline=%v pe=%d",
		t.TaskID, t.Name, t.BCET, t.WCET, t.Period, t.Jitter, t.Deadline, t.PE)
}

// Less orders two tasks by name, matching task.hpp's operator<.
func (t Task[T]) Less(other Task[T]) bool { return t.Name < other.Name }

// Equal compares two tasks by name, matching task.hpp's operator==.
func (t Task[T]) Equal(other Task[T]) bool { return t.Name == other.Name }
