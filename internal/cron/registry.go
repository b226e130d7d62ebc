package cron

import (
	"context"
	"errors"
	"fmt"
)

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in execution order, indexed by name.
type Registry struct {
	ordered []Job
	byName  map[string]Job
}

// NewRegistry rejects nil jobs, blank names and duplicate names.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{byName: make(map[string]Job, len(jobs))}
	for i, job := range jobs {
		if job == nil {
			return nil, fmt.Errorf("job %d is nil", i)
		}
		name := job.Name()
		if name == "" {
			return nil, fmt.Errorf("job %d has no name", i)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("job %q registered twice", name)
		}
		r.byName[name] = job
		r.ordered = append(r.ordered, job)
	}
	if len(r.ordered) == 0 {
		return nil, errors.New("at least one job is required")
	}
	return r, nil
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.ordered...)
}

func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.byName[name]
	return job, ok
}

// Names lists registered job names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, job := range r.ordered {
		names = append(names, job.Name())
	}
	return names
}
