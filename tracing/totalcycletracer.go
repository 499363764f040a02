package tracing

import (
	"sync"

	"github.com/sarchlab/kvcam/sim"
)

// TotalCycleTracer can collect the total number of cycles spent on a certain
// type of task. If the execution of two tasks overlaps, this tracer will
// simply add the two task processing times together.
type TotalCycleTracer struct {
	cycleTeller   sim.CycleTeller
	filter        TaskFilter
	lock          sync.Mutex
	totalCycles   sim.VCycle
	inflightTasks map[string]Task
}

// NewTotalCycleTracer creates a new TotalCycleTracer
func NewTotalCycleTracer(
	cycleTeller sim.CycleTeller,
	filter TaskFilter,
) *TotalCycleTracer {
	t := &TotalCycleTracer{
		cycleTeller:   cycleTeller,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
	return t
}

// TotalCycles returns the number of cycles spent on the filtered tasks.
func (t *TotalCycleTracer) TotalCycles() sim.VCycle {
	t.lock.Lock()
	cycles := t.totalCycles
	t.lock.Unlock()
	return cycles
}

// StartTask records the task start cycle
func (t *TotalCycleTracer) StartTask(task Task) {
	task.StartCycle = t.cycleTeller.CurrentCycle()

	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask does nothing
func (t *TotalCycleTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *TotalCycleTracer) EndTask(task Task) {
	task.EndCycle = t.cycleTeller.CurrentCycle()

	t.lock.Lock()
	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}

	t.totalCycles += task.EndCycle - originalTask.StartCycle
	delete(t.inflightTasks, task.ID)
	t.lock.Unlock()
}
