// Package model holds the immutable task/edge/DAG and job data types
// the rest of the analyzer operates on, grounded on
// original_source/include/{task,edge,dag,jobs}.hpp but re-architected
// per the arena+indices design: tasks and edges live in flat slices
// inside a DAG, and incident-edge back-references are plain index
// slices rather than owning pointers.
package model

import (
	"fmt"
	"hash/fnv"

	"github.com/swarmguard/npdaa/internal/timeval"
)

// JobID identifies one job instance by its originating task and its
// monotonically assigned job number, matching
// original_source/include/jobs.hpp's JobID{job, task}.
type JobID struct {
	Task uint64
	Job  uint64
}

func (id JobID) String() string {
	return fmt.Sprintf("T%dJ%d", id.Task, id.Job)
}

// Job is an immutable materialized task instance. Index is its stable
// position in the per-PE job vector generated by GenerateJobSet;
// callers that need fast task-instance scans rely on that vector
// being sorted by ascending job index (which GenerateJobSet
// guarantees).
type Job[T timeval.Numeric] struct {
	Index            int
	ID               JobID
	PE               uint64
	Arrival          timeval.Interval[T]
	Cost             timeval.Interval[T]
	RecoveryCost     timeval.Interval[T]
	Deadline         T
	Priority         T
	RecoveryPriority T
	RecoveryBlock    bool
	key              uint64
}

// NewJob builds a job and derives its stable hash key from the fields
// that make two instances distinguishable (task id, job id, arrival,
// cost, deadline, priority), hashed with FNV-1a.
func NewJob[T timeval.Numeric](index int, id JobID, pe uint64, arrival, cost timeval.Interval[T], recoveryCost timeval.Interval[T], deadline, priority, recoveryPriority T, recoveryBlock bool) Job[T] {
	j := Job[T]{
		Index:            index,
		ID:               id,
		PE:               pe,
		Arrival:          arrival,
		Cost:             cost,
		RecoveryCost:     recoveryCost,
		Deadline:         deadline,
		Priority:         priority,
		RecoveryPriority: recoveryPriority,
		RecoveryBlock:    recoveryBlock,
	}
	j.key = j.computeHash()
	return j
}

func (j Job[T]) computeHash() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%v|%v|%v|%v", j.ID.Task, j.ID.Job, j.Arrival, j.Cost, j.Deadline, j.Priority)
	return h.Sum64()
}

// Key returns the job's stable hash, used to XOR-combine reduction-set
// and state keys.
func (j Job[T]) Key() uint64 { return j.key }

// EarliestArrival / LatestArrival are the min/max of the arrival
// window.
func (j Job[T]) EarliestArrival() T { return j.Arrival.From() }
func (j Job[T]) LatestArrival() T   { return j.Arrival.Until() }

// LeastCost / MaximalCost are the BCET/WCET of this job's cost window
// (recovery cost is swapped in by the caller for recovery-block jobs
// where applicable; the base cost window always holds the nominal
// execution time).
func (j Job[T]) LeastCost() T    { return j.Cost.From() }
func (j Job[T]) MaximalCost() T  { return j.Cost.Until() }

// SchedulingWindow is the interval within which this job must start,
// i.e. [earliest_arrival, deadline].
func (j Job[T]) SchedulingWindow() timeval.Interval[T] {
	return timeval.New(j.EarliestArrival(), j.Deadline)
}

// ExceedsDeadline reports whether a candidate finish time violates
// this job's deadline, inclusive of the trait-supplied tolerance.
func (j Job[T]) ExceedsDeadline(finish T, tolerance T) bool {
	return finish > j.Deadline+tolerance
}

// HigherPriorityThan implements jobs.hpp's higher_priority_than
// 4-way branch over recovery-block combinations: two ordinary jobs
// compare by Priority; two recovery-block jobs compare by
// RecoveryPriority; a non-recovery job is always considered
// higher-priority than a recovery-block one (recovery work is
// schedulable only in the slack left by normal jobs). The two
// same-category branches break ties first by task id, then by job
// id, so equal-priority jobs (e.g. an EDF deadline tie) still have a
// strict, consistent order.
func (j Job[T]) HigherPriorityThan(other Job[T]) bool {
	switch {
	case !j.RecoveryBlock && !other.RecoveryBlock:
		return j.Priority < other.Priority ||
			(j.Priority == other.Priority && idLess(j.ID, other.ID))
	case j.RecoveryBlock && other.RecoveryBlock:
		return j.RecoveryPriority < other.RecoveryPriority ||
			(j.RecoveryPriority == other.RecoveryPriority && idLess(j.ID, other.ID))
	case !j.RecoveryBlock && other.RecoveryBlock:
		return true
	default: // j.RecoveryBlock && !other.RecoveryBlock
		return false
	}
}

// idLess breaks a priority tie first by task id, then by job id,
// matching jobs.hpp's higher_priority_than tie-break chain.
func idLess(a, b JobID) bool {
	return a.Task < b.Task || (a.Task == b.Task && a.Job < b.Job)
}

// PriorityExceeds reports whether j's priority is numerically lower
// than (i.e. a higher actual priority than) the given priority value,
// mirroring jobs.hpp's priority_exceeds.
func (j Job[T]) PriorityExceeds(priority T) bool {
	return j.Priority < priority
}

// PriorityAtLeast reports whether j's priority is at least as high
// (numerically no greater than) the given priority value, mirroring
// jobs.hpp's priority_at_least.
func (j Job[T]) PriorityAtLeast(priority T) bool {
	return j.Priority <= priority
}

// Set is a job vector plus a lookup index by JobID, mirroring
// jobs.hpp's Job_set / lookup<Time>().
type Set[T timeval.Numeric] struct {
	Jobs  []Job[T]
	byID  map[JobID]int
}

// NewSet wraps a job slice (assumed ordered by ascending Index) with
// an id lookup table.
func NewSet[T timeval.Numeric](jobs []Job[T]) *Set[T] {
	s := &Set[T]{Jobs: jobs, byID: make(map[JobID]int, len(jobs))}
	for i, j := range jobs {
		s.byID[j.ID] = i
	}
	return s
}

// Lookup finds a job by id, reporting a miss with ok=false instead of
// the original's throwing InvalidJobReference exception.
func (s *Set[T]) Lookup(id JobID) (Job[T], bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Job[T]{}, false
	}
	return s.Jobs[idx], true
}

// Contains reports whether a job with the given id is present.
func (s *Set[T]) Contains(id JobID) bool {
	_, ok := s.byID[id]
	return ok
}
