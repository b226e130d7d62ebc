package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndIndexesByName(t *testing.T) {
	registry, err := NewRegistry(namedJob("a"), namedJob("b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, registry.Names())
	job, ok := registry.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", job.Name())
	_, ok = registry.Lookup("missing")
	assert.False(t, ok)

	jobs := registry.Jobs()
	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0], "callers must not mutate the registry")
}

func TestRegistryRejectsBadJobs(t *testing.T) {
	tests := map[string][]Job{
		"empty":     nil,
		"nil job":   {nil},
		"no name":   {namedJob("")},
		"duplicate": {namedJob("sync"), namedJob("sync")},
	}
	for name, jobs := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(jobs...)
			assert.Error(t, err)
		})
	}
}
