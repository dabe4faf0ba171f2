package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_RegistersAllSeries(t *testing.T) {
	m := New(nil)

	assert.NotNil(t, m.TasksSubmitted)
	assert.NotNil(t, m.TasksCompleted)
	assert.NotNil(t, m.TaskDuration)
	assert.NotNil(t, m.TaskRetries)

	assert.NotNil(t, m.QueueDepth)

	assert.NotNil(t, m.ActiveWorkers)
	assert.NotNil(t, m.WorkerBusyTime)

	assert.NotNil(t, m.RegistryBusyTotal)

	assert.NotNil(t, m.RedisOperationDuration)
	assert.NotNil(t, m.RedisErrors)
}

func TestNew_IndependentInstancesDoNotCollide(t *testing.T) {
	// Each New(nil) gets its own private registry, so building two in
	// the same process (e.g. two Coordinators in one test binary) must
	// not panic on duplicate registration.
	a := New(nil)
	b := New(nil)
	assert.NotNil(t, a)
	assert.NotNil(t, b)
}

func TestRecordTaskSubmission(t *testing.T) {
	m := New(nil)

	m.RecordTaskSubmission("email")
	m.RecordTaskSubmission("email")
	m.RecordTaskSubmission("compute")
}

func TestRecordTaskCompletion(t *testing.T) {
	m := New(nil)

	m.RecordTaskCompletion("email", "Completed", 1.5)
	m.RecordTaskCompletion("email", "Failed", 0.5)
}

func TestRecordTaskRetry(t *testing.T) {
	m := New(nil)

	m.RecordTaskRetry("email")
	m.RecordTaskRetry("email")
}

func TestUpdateQueueDepth(t *testing.T) {
	m := New(nil)

	m.UpdateQueueDepth(100)
	m.UpdateQueueDepth(0)
}

func TestSetActiveWorkers(t *testing.T) {
	m := New(nil)

	m.SetActiveWorkers(5)
	m.SetActiveWorkers(10)
	m.SetActiveWorkers(0)
}

func TestRecordWorkerBusyTime(t *testing.T) {
	m := New(nil)

	m.RecordWorkerBusyTime("worker-1", 10.5)
	m.RecordWorkerBusyTime("worker-2", 5.0)
}

func TestRecordRegistryBusy(t *testing.T) {
	m := New(nil)

	m.RecordRegistryBusy()
	m.RecordRegistryBusy()

	// Just ensure no panic
}

func TestRecordRedisOperation(t *testing.T) {
	m := New(nil)

	m.RecordRedisOperation("LPUSH", 0.001)
	m.RecordRedisOperation("RPOP", 0.005)
	m.RecordRedisOperation("GET", 0.0001)
}

func TestRecordRedisError(t *testing.T) {
	m := New(nil)

	m.RecordRedisError("LPUSH")
	m.RecordRedisError("GET")
}
