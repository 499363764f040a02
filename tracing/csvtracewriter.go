package tracing

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/kvcam/sim"
	"github.com/tebeka/atexit"
)

// CSVTracer is a task tracer that stores completed tasks in a CSV file.
type CSVTracer struct {
	mu          sync.Mutex
	cycleTeller sim.CycleTeller
	path        string
	file        *os.File

	inflightTasks map[string]Task
	tasks         []Task
	bufferSize    int
}

// NewCSVTracer creates a new CSVTracer. If path is empty, a unique file name
// is generated.
func NewCSVTracer(cycleTeller sim.CycleTeller, path string) *CSVTracer {
	t := &CSVTracer{
		cycleTeller:   cycleTeller,
		path:          path,
		inflightTasks: make(map[string]Task),
		bufferSize:    1000,
	}

	t.init()

	return t
}

// init creates the tracing csv file.
func (t *CSVTracer) init() {
	if t.path == "" {
		t.path = "kvcam_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "ID, ParentID, Kind, What, Where, Start, End\n")

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// StartTask records the task start cycle.
func (t *CSVTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartCycle = t.cycleTeller.CurrentCycle()
	t.inflightTasks[task.ID] = task
}

// StepTask does nothing.
func (t *CSVTracer) StepTask(_ Task) {
	// Do nothing.
}

// EndTask writes the completed task.
func (t *CSVTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndCycle = t.cycleTeller.CurrentCycle()
	delete(t.inflightTasks, task.ID)

	t.tasks = append(t.tasks, originalTask)
	if len(t.tasks) >= t.bufferSize {
		t.flushLocked()
	}
}

// Flush flushes the tasks to the CSV file.
func (t *CSVTracer) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flushLocked()
}

func (t *CSVTracer) flushLocked() {
	for _, task := range t.tasks {
		fmt.Fprintf(t.file, "%s, %s, %s, %s, %s, %d, %d\n",
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			task.StartCycle,
			task.EndCycle,
		)
	}

	t.tasks = nil
}
