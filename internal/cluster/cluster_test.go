package cluster_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcheck/schedcheck/internal/cluster"
)

const sampleWorkload = `
processorGroups:
  - name: cpu
    index: 0
    cores: 1
standaloneJobs:
  - name: J
    id: {taskId: 1, jobIndex: 0}
    arrival: {lo: 0, hi: 0}
    cost: {lo: 3, hi: 5}
    deadline: 10
    group: 0
events:
  arrivalEvents: true
`

func TestRunLocalFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleWorkload), 0o644))

	results, err := cluster.Run(context.Background(), []string{path}, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Err)
	assert.True(t, results[0].Summary.Schedulable)
}

func TestRunLocalReportsLoadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.yaml")

	results, err := cluster.Run(context.Background(), []string{path}, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Err)
}
