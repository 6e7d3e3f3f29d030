package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLock struct {
	held       bool
	acquireErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type recordingMetrics struct {
	observed  []string
	successes []string
	failures  []string
}

func (m *recordingMetrics) ObserveJobDuration(job string, _ time.Duration) {
	m.observed = append(m.observed, job)
}
func (m *recordingMetrics) IncJobSuccess(job string) { m.successes = append(m.successes, job) }
func (m *recordingMetrics) IncJobFailure(job string) { m.failures = append(m.failures, job) }

func TestNewSchedulerRequiresLogger(t *testing.T) {
	_, err := NewScheduler(SchedulerParams{})
	assert.Error(t, err)
}

func TestRegistryIgnoresNilJobs(t *testing.T) {
	r := NewRegistry(nil, &testJob{name: "a"})
	r.Register(nil)
	assert.Len(t, r.Jobs(), 1)
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	metrics := &recordingMetrics{}
	s, err := NewScheduler(SchedulerParams{
		Logger:   zap.NewNop(),
		Registry: NewRegistry(success, failure),
		Lock:     lock,
		Metrics:  metrics,
	})
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, success.runs)
	assert.Equal(t, 1, failure.runs)
	assert.Equal(t, []string{"success", "fail"}, metrics.observed)
	assert.Equal(t, []string{"success"}, metrics.successes)
	assert.Equal(t, []string{"fail"}, metrics.failures)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	s, err := NewScheduler(SchedulerParams{
		Logger:   zap.NewNop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
	})
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunOnceReturnsLockError(t *testing.T) {
	job := &testJob{name: "job"}
	s, err := NewScheduler(SchedulerParams{
		Logger:   zap.NewNop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquireErr: errors.New("redis down")},
	})
	require.NoError(t, err)

	assert.Error(t, s.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "job"}
	s, err := NewScheduler(SchedulerParams{
		Logger:   zap.NewNop(),
		Registry: NewRegistry(job),
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, job.runs)
}
