// Package dataage implements the data-age propagator: given the
// explorer's per-job start/finish tables and a task chain, it
// enumerates producer-instance predecessors backward through the
// chain and widens an end-to-end latency interval. Grounded on
// original_source/include/data_age_analysis.hpp.
package dataage

import (
	"time"

	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// Tables are the explorer's per-job start/finish interval maps.
type Tables[T timeval.Numeric] map[model.JobID]timeval.Interval[T]

// Analysis computes the widened data-age bound for one task chain,
// matching data_age_analysis.hpp's Data_age_analysis class.
type Analysis[T timeval.Numeric] struct {
	jobs      []model.Job[T] // full per-PE job vector, ordered by Index
	sta       Tables[T]
	rta       Tables[T]
	chain     []model.Task[T] // τ1 .. τk
	pruning   bool
	preemptive bool

	dataAge     timeval.Interval[T]
	dataAgeSet  bool
	elapsed     time.Duration
}

// New runs the analysis immediately, matching the original's
// constructor-does-the-work style.
func New[T timeval.Numeric](jobs []model.Job[T], sta, rta Tables[T], chain []model.Task[T], preemptive, pruning bool) *Analysis[T] {
	a := &Analysis[T]{jobs: jobs, sta: sta, rta: rta, chain: chain, pruning: pruning, preemptive: preemptive}
	start := time.Now()
	a.calculateLatencies()
	a.elapsed = time.Since(start)
	return a
}

// GetElapsedTime returns the wall-clock duration of the analysis.
func (a *Analysis[T]) GetElapsedTime() time.Duration { return a.elapsed }

// GetDataAge returns the widened latency bound, or the [0,0] sentinel
// if no sink instance ever had a valid origin (matching
// data_age_analysis.hpp's uninitialized data_age).
func (a *Analysis[T]) GetDataAge() timeval.Interval[T] { return a.dataAge }

func (a *Analysis[T]) sinkTaskID() uint64 { return a.chain[len(a.chain)-1].TaskID }

// calculateLatencies matches data_age_analysis.hpp's
// calculate_latencies: for every job of the sink task, resolve its
// origin instances (or, for a length-1 chain, use the job's own
// earliest arrival) and widen the data-age bound.
func (a *Analysis[T]) calculateLatencies() {
	sinkID := a.sinkTaskID()
	for _, j := range a.jobs {
		if j.ID.Task != sinkID {
			continue
		}
		if len(a.chain) == 1 {
			a.updateLatenciesDegenerate(j)
			continue
		}
		lst := a.sta[j.ID].Until()
		origin := a.findOriginJobs([]int{j.Index}, lst, append([]model.Task[T]{}, a.chain...))
		if len(origin) > 0 {
			finish := a.rta[j.ID]
			for _, t := range origin {
				latency := finish.Sub(t)
				a.updateDataAge(latency)
			}
		}
	}
}

func (a *Analysis[T]) updateLatenciesDegenerate(j model.Job[T]) {
	rta := a.rta[j.ID]
	latency := rta.Sub(j.EarliestArrival())
	a.updateDataAge(latency)
}

// getDataProducer returns the chain task immediately preceding the
// task with the given id within localChain, matching
// data_age_analysis.hpp's get_data_producer. Unlike the original,
// which calls assert(0) (process abort) when the task is not found —
// an internal-invariant condition that should be structurally
// unreachable given a validated chain — this returns ok=false instead.
func getDataProducer[T timeval.Numeric](taskID uint64, localChain []model.Task[T]) (model.Task[T], bool) {
	for i, t := range localChain {
		if t.TaskID == taskID && i != 0 {
			return localChain[i-1], true
		}
	}
	return model.Task[T]{}, false
}

// getFirstIndexOfDataProducer matches
// data_age_analysis.hpp's get_first_index_of_data_producer: a
// backward scan for the greatest job index of the producer task whose
// completion precedes the consumer's start, returning on the first
// (i.e. highest-index) match.
func (a *Analysis[T]) getFirstIndexOfDataProducer(startTime timeval.Interval[T], j model.Job[T], producer model.Task[T]) int {
	sameCPUNonPreemptive := j.PE == producer.PE && !a.preemptive
	for i := len(a.jobs) - 1; i >= 0; i-- {
		if a.jobs[i].ID.Task != producer.TaskID {
			continue
		}
		if sameCPUNonPreemptive {
			if a.sta[a.jobs[i].ID].Until() <= startTime.From() {
				return i
			}
		} else {
			if a.rta[a.jobs[i].ID].Until() <= startTime.From() {
				return i
			}
		}
	}
	return -1
}

// getLastIndexOfDataProducer implements the corrected semantics spec.md
// §4.5/§9 describes: a forward monotone scan from first_index+1 that
// tracks the greatest index i with rta[i].From() <= start.Until(),
// terminating early (and returning the tracked index) once a
// subsequent rta[i'].From() exceeds start.Until(). The original
// source tracks the same "temp" value but discards it — returning -1
// — whenever the loop runs to completion without an early exit; that
// divergence is the bug spec.md §9 flags, and is not reproduced here.
func (a *Analysis[T]) getLastIndexOfDataProducer(startTime timeval.Interval[T], producer model.Task[T], firstIndex int) int {
	temp := -1
	for i := firstIndex + 1; i < len(a.jobs); i++ {
		if a.jobs[i].ID.Task != producer.TaskID {
			continue
		}
		if a.rta[a.jobs[i].ID].From() <= startTime.Until() {
			temp = i
		} else {
			return temp
		}
	}
	return temp
}

// findOriginJobs recurses backward through the chain, matching
// data_age_analysis.hpp's find_origin_jobs. At the level directly
// above τ1 (localChain of length 2) it collects producer earliest
// arrivals (the data the caller widens latency against); at higher
// levels it collects producer job indices and recurses one level up.
func (a *Analysis[T]) findOriginJobs(originJobs []int, lst T, localChain []model.Task[T]) []T {
	if len(localChain) == 2 {
		var origin []T
		for _, oj := range originJobs {
			o := a.jobs[oj]
			producer, ok := getDataProducer(o.ID.Task, localChain)
			if !ok {
				continue
			}
			startTime := a.sta[o.ID]
			firstIndex := a.getFirstIndexOfDataProducer(startTime, o, producer)
			lastIndex := a.getLastIndexOfDataProducer(startTime, producer, firstIndex)
			if firstIndex != -1 {
				origin = append(origin, a.jobs[firstIndex].EarliestArrival())
			}
			for i := firstIndex + 1; i <= lastIndex; i++ {
				if a.jobs[i].ID.Task == producer.TaskID && a.sta[a.jobs[i].ID].From() < lst {
					origin = append(origin, a.jobs[i].EarliestArrival())
				}
			}
		}
		if len(origin) > 2 && a.pruning {
			origin = []T{origin[0], origin[len(origin)-1]}
		}
		return origin
	}

	var localOrigin []int
	for _, oj := range originJobs {
		o := a.jobs[oj]
		producer, ok := getDataProducer(o.ID.Task, localChain)
		if !ok {
			continue
		}
		startTime := a.sta[o.ID]
		firstIndex := a.getFirstIndexOfDataProducer(startTime, o, producer)
		lastIndex := a.getLastIndexOfDataProducer(startTime, producer, firstIndex)
		if firstIndex != -1 {
			localOrigin = append(localOrigin, firstIndex)
		}
		for i := firstIndex + 1; i <= lastIndex; i++ {
			if a.jobs[i].ID.Task == producer.TaskID && a.sta[a.jobs[i].ID].From() < lst {
				localOrigin = append(localOrigin, i)
			}
		}
	}
	if len(localOrigin) > 2 && a.pruning {
		localOrigin = []int{localOrigin[0], localOrigin[len(localOrigin)-1]}
	}
	nextChain := localChain[:len(localChain)-1]
	return a.findOriginJobs(localOrigin, lst, nextChain)
}

func (a *Analysis[T]) updateDataAge(latency timeval.Interval[T]) {
	if !a.dataAgeSet {
		a.dataAge = latency
		a.dataAgeSet = true
		return
	}
	a.dataAge = a.dataAge.Widen(latency)
}
