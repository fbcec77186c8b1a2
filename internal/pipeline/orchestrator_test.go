package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lsearchy/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForStatus(t *testing.T, job *Job, want ...JobStatus) JobSnapshot {
	t.Helper()
	var snap JobSnapshot
	require.Eventually(t, func() bool {
		snap = job.Snapshot()
		for _, s := range want {
			if snap.Status == s {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestOrchestrator_RunsSubmittedScan(t *testing.T) {
	root := buildTree(t, sampleTree)
	cfg := config.Default()
	orch := NewOrchestrator(cfg, testRegistry(), nil, quietLogger())
	orch.Start(context.Background())
	defer orch.Stop()

	job := NewJob(root, "jane@anything", config.ModeConcurrent, 2)
	require.NoError(t, orch.Submit(job))
	assert.Same(t, job, orch.GetJob(job.ID))

	snap := waitForStatus(t, job, StatusCompleted)
	require.NotNil(t, snap.Result)
	assert.Contains(t, snap.Result.Addresses, "jane.doe@example.com")
	assert.Equal(t, 5, orch.Stats().Snapshot().Count)
}

func TestOrchestrator_MissingRootFailsJob(t *testing.T) {
	orch := NewOrchestrator(config.Default(), testRegistry(), nil, quietLogger())
	orch.Start(context.Background())
	defer orch.Stop()

	job := NewJob(filepath.Join(t.TempDir(), "missing"), "", "", 0)
	require.NoError(t, orch.Submit(job))

	snap := waitForStatus(t, job, StatusFailed)
	assert.Contains(t, snap.Error, ErrRootUnreadable.Error())
	assert.Nil(t, snap.Result)
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Default()
	cfg.MaxQueueSize = 1
	// Not started, so nothing drains the queue.
	orch := NewOrchestrator(cfg, testRegistry(), nil, quietLogger())

	require.NoError(t, orch.Submit(NewJob(t.TempDir(), "", "", 0)))
	overflow := NewJob(t.TempDir(), "", "", 0)
	assert.Error(t, orch.Submit(overflow))
	assert.Equal(t, StatusFailed, overflow.Snapshot().Status)
	assert.Equal(t, 1, orch.QueueDepth())
}
