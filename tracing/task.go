package tracing

import "github.com/sarchlab/kvcam/sim"

// A TaskStep represents a milestone in the processing of a task
type TaskStep struct {
	Cycle sim.VCycle `json:"cycle"`
	What  string     `json:"what"`
}

// A Task is a task
type Task struct {
	ID         string      `json:"id"`
	ParentID   string      `json:"parent_id"`
	Kind       string      `json:"kind"`
	What       string      `json:"what"`
	Where      string      `json:"where"`
	StartCycle sim.VCycle  `json:"start_cycle"`
	EndCycle   sim.VCycle  `json:"end_cycle"`
	Steps      []TaskStep  `json:"steps"`
	Detail     interface{} `json:"-"`
	ParentTask *Task       `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool
