package model

import "github.com/swarmguard/npdaa/internal/timeval"

// GenerateJobSet unrolls every task in the DAG over its observation
// window, matching io.hpp's generate_job_set. The DAG's hyperperiod
// must already be computed (CalculateHyperperiod) and its chains
// populated, since the observation window is chain-dependent.
//
// Job ids are assigned from a single counter shared across every task
// in the DAG, not per task, matching the original's id_counter. EDF
// priority equals the absolute deadline; recovery priority defaults to
// the same value (the original notes "for now" — this repository
// keeps that default, since spec.md does not ask for an independent
// recovery-priority model).
func GenerateJobSet[T timeval.Numeric](d *DAG[T]) []Job[T] {
	var zero T
	observationWindow := T(d.GetNumberHPObservationWindow()) * d.Hyperperiod
	var jobs []Job[T]
	var idCounter uint64
	for _, t := range d.Tasks {
		if t.Period == zero {
			continue
		}
		for i := zero; i < observationWindow; i += t.Period {
			arrMin := i + t.MinJitter()
			arrMax := i + t.MaxJitter()
			dl := i + t.Deadline
			prio := dl // EDF: priority = absolute deadline
			recPrio := prio

			id := JobID{Task: t.TaskID, Job: idCounter}
			j := NewJob[T](
				len(jobs),
				id,
				t.PE,
				timeval.New(arrMin, arrMax),
				timeval.New(t.BCET, t.WCET),
				timeval.New(t.RecCostMin, t.RecCostMax),
				dl, prio, recPrio,
				false,
			)
			jobs = append(jobs, j)
			idCounter++
		}
	}
	return jobs
}
