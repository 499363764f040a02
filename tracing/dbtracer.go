package tracing

import (
	"sync"

	"github.com/sarchlab/kvcam/datarecording"
	"github.com/sarchlab/kvcam/sim"
	"github.com/tebeka/atexit"
)

// taskTableEntry is the flat row written for each task. The location column
// keeps this name because WHERE cannot be used as an SQL column name.
type taskTableEntry struct {
	ID         string `json:"id"`
	ParentID   string `json:"parent_id"`
	Kind       string `json:"kind"`
	What       string `json:"what"`
	Location   string `json:"location"`
	StartCycle int64  `json:"start_cycle"`
	EndCycle   int64  `json:"end_cycle"`
}

// DBTracer is a tracer that can store tasks into a database. DBTracers can
// connect with different backends so that the tasks can be stored in
// different types of databases (e.g., CSV files, SQL databases, etc.)
type DBTracer struct {
	mu          sync.Mutex
	cycleTeller sim.CycleTeller
	backend     datarecording.DataRecorder

	startCycle, endCycle sim.VCycle

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	cycleTeller sim.CycleTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable("trace", taskTableEntry{})

	t := &DBTracer{
		cycleTeller:  cycleTeller,
		backend:      dataRecorder,
		endCycle:     -1,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetCycleRange sets the range of cycles in which tasks are recorded. An
// endCycle of -1 leaves the range open.
func (t *DBTracer) SetCycleRange(startCycle, endCycle sim.VCycle) {
	t.startCycle = startCycle
	t.endCycle = endCycle
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startingTaskMustBeValid(task)

	task.StartCycle = t.cycleTeller.CurrentCycle()
	if t.endCycle >= 0 && task.StartCycle > t.endCycle {
		return
	}

	t.tracingTasks[task.ID] = task
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task where must be set")
	}
}

// StepTask marks a step of a task.
func (t *DBTracer) StepTask(_ Task) {
	// Do nothing for now.
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.EndCycle = t.cycleTeller.CurrentCycle()

	if task.EndCycle < t.startCycle {
		delete(t.tracingTasks, task.ID)
		return
	}

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndCycle = task.EndCycle
	t.writeTask(originalTask)

	delete(t.tracingTasks, task.ID)
}

// Terminate writes the tasks that are still in flight and flushes the
// backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.cycleTeller.CurrentCycle()
	for _, task := range t.tracingTasks {
		task.EndCycle = now
		t.writeTask(task)
	}

	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}

func (t *DBTracer) writeTask(task Task) {
	entry := taskTableEntry{
		ID:         task.ID,
		ParentID:   task.ParentID,
		Kind:       task.Kind,
		What:       task.What,
		Location:   task.Where,
		StartCycle: int64(task.StartCycle),
		EndCycle:   int64(task.EndCycle),
	}
	t.backend.InsertData("trace", entry)
}
