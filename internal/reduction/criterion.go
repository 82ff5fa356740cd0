package reduction

import "github.com/swarmguard/npdaa/internal/model"
import "github.com/swarmguard/npdaa/internal/timeval"

// Criterion selects one job to add to a growing reduction set from a
// list of candidates that can interfere with it, matching
// original_source/include/uni/por_criterion.hpp's POR_criterion
// abstract base. Modeled as a small capability interface per
// SPEC_FULL.md §9's "tagged variants / capability objects" note.
type Criterion[T timeval.Numeric] interface {
	SelectJob(candidates []model.Job[T]) model.Job[T]
}

// PriorityOrder picks the highest-priority candidate (smallest
// numeric priority value), tie-broken by task id then job id, matching
// por_criterion.hpp's POR_priority_order.
type PriorityOrder[T timeval.Numeric] struct{}

func (PriorityOrder[T]) SelectJob(candidates []model.Job[T]) model.Job[T] {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.HigherPriorityThan(best) || (!best.HigherPriorityThan(c) && jobTieBreak(c, best)) {
			best = c
		}
	}
	return best
}

// ReleaseOrder picks the candidate with the smallest earliest arrival,
// tie-broken by priority then task id, matching por_criterion.hpp's
// POR_release_order.
type ReleaseOrder[T timeval.Numeric] struct{}

func (ReleaseOrder[T]) SelectJob(candidates []model.Job[T]) model.Job[T] {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.EarliestArrival() < best.EarliestArrival() ||
			(c.EarliestArrival() == best.EarliestArrival() && jobTieBreak(c, best)) {
			best = c
		}
	}
	return best
}

// jobTieBreak implements spec.md §4.4's "lower numeric priority wins;
// then lower task id; then lower job id" total order, used whenever
// two candidates compare equal on a criterion's primary key.
func jobTieBreak[T timeval.Numeric](a, b model.Job[T]) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.ID.Task != b.ID.Task {
		return a.ID.Task < b.ID.Task
	}
	return a.ID.Job < b.ID.Job
}
