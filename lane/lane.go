// Package lane implements the per-priority ready lanes of the queue manager.
//
// A [Set] holds one lane per [job.Priority]. Each lane keeps its jobs
// ordered by the ScheduledAt they had when pushed, with ties broken by push
// order. [Set.Take] scans lanes from critical to background and removes the
// first job that is due and accepted by the caller's predicate.
//
// A Set is not safe for concurrent use; the manager guards it with the same
// lock that protects its job index so that check-and-remove is atomic.
package lane

import (
	"sort"
	"time"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

type item struct {
	job *job.Job
	at  time.Time
	seq uint64
}

func (a item) before(b item) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.seq < b.seq
}

// Set is a group of priority lanes.
type Set struct {
	lanes [len(priorityOrder)][]item
	where map[id.JobID]int
	seq   uint64
}

var priorityOrder = [...]job.Priority{
	job.PriorityCritical,
	job.PriorityHigh,
	job.PriorityNormal,
	job.PriorityLow,
	job.PriorityBackground,
}

// New creates an empty Set.
func New() *Set {
	return &Set{where: make(map[id.JobID]int)}
}

func laneIndex(p job.Priority) int {
	if !p.Valid() {
		return int(job.PriorityNormal)
	}
	return int(p)
}

// Push inserts j into the lane for its priority, ordered by its current
// ScheduledAt. Pushing a job that is already present moves it.
func (s *Set) Push(j *job.Job) {
	s.Remove(j.ID)

	s.seq++
	it := item{job: j, at: j.ScheduledAt, seq: s.seq}
	idx := laneIndex(j.Priority)
	l := s.lanes[idx]

	pos := sort.Search(len(l), func(i int) bool { return it.before(l[i]) })
	l = append(l, item{})
	copy(l[pos+1:], l[pos:])
	l[pos] = it

	s.lanes[idx] = l
	s.where[j.ID] = idx
}

// Remove deletes the job with jobID and reports whether it was present.
func (s *Set) Remove(jobID id.JobID) bool {
	idx, ok := s.where[jobID]
	if !ok {
		return false
	}
	delete(s.where, jobID)

	l := s.lanes[idx]
	for i := range l {
		if l[i].job.ID == jobID {
			copy(l[i:], l[i+1:])
			l[len(l)-1] = item{}
			s.lanes[idx] = l[:len(l)-1]
			break
		}
	}
	return true
}

// Contains reports whether jobID is in any lane.
func (s *Set) Contains(jobID id.JobID) bool {
	_, ok := s.where[jobID]
	return ok
}

// Take removes and returns the first job, in priority then schedule order,
// that is due at now and for which accept returns true. Jobs scheduled
// after now are never offered to accept.
func (s *Set) Take(now time.Time, accept func(*job.Job) bool) (*job.Job, bool) {
	for idx := range s.lanes {
		for _, it := range s.lanes[idx] {
			if it.at.After(now) {
				break
			}
			if accept(it.job) {
				s.Remove(it.job.ID)
				return it.job, true
			}
		}
	}
	return nil, false
}

// NextAt returns the earliest scheduled time across all lanes.
func (s *Set) NextAt() (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)
	for _, l := range s.lanes {
		if len(l) == 0 {
			continue
		}
		if !found || l[0].at.Before(next) {
			next = l[0].at
			found = true
		}
	}
	return next, found
}

// Len returns the number of jobs across all lanes.
func (s *Set) Len() int { return len(s.where) }

// LenBy returns the number of jobs in the lane for p.
func (s *Set) LenBy(p job.Priority) int { return len(s.lanes[laneIndex(p)]) }

// Each calls fn for every laned job in dispatch order until fn returns false.
func (s *Set) Each(fn func(*job.Job) bool) {
	for _, l := range s.lanes {
		for _, it := range l {
			if !fn(it.job) {
				return
			}
		}
	}
}
