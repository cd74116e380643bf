// Package workload implements the W1 workload loader: parsing a YAML
// workload document into processor groups, tasks, standalone jobs, and an
// event spec, then expanding periodic tasks over the hyperperiod into the
// engine's immutable job table.
//
// Grounded on original_source/include/task.hpp, original_source/include/processor.hpp,
// original_source/include/models/events.hpp, and original_source/include/tools.hpp's
// generateSegments.
package workload

import (
	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// ProcessorGroupSpec is one entry of the workload's processor-group vector.
type ProcessorGroupSpec struct {
	Name  string `yaml:"name" json:"name"`
	Index uint32 `yaml:"index" json:"index"`
	Cores uint32 `yaml:"cores" json:"cores"`
}

// TaskSpec describes a periodic task before hyperperiod expansion.
type TaskSpec struct {
	Name     string            `yaml:"name" json:"name"`
	TaskID   uint64            `yaml:"taskId" json:"taskId"`
	Jitter   timemodel.Time    `yaml:"jitter" json:"jitter"`
	Period   timemodel.Time    `yaml:"period" json:"period"`
	Cost     interval.Interval `yaml:"cost" json:"cost"`
	Deadline timemodel.Time    `yaml:"deadline" json:"deadline"`
	Group    uint32            `yaml:"group" json:"group"`
	Priority timemodel.Time    `yaml:"priority" json:"priority"`
}

// StandaloneJobSpec describes one job with no periodic source task.
type StandaloneJobSpec struct {
	Name     string            `yaml:"name" json:"name"`
	ID       job.ID            `yaml:"id" json:"id"`
	Arrival  interval.Interval `yaml:"arrival" json:"arrival"`
	Cost     interval.Interval `yaml:"cost" json:"cost"`
	Deadline timemodel.Time    `yaml:"deadline" json:"deadline"`
	Group    uint32            `yaml:"group" json:"group"`
	Priority timemodel.Time    `yaml:"priority" json:"priority"`
}

// EventSpec mirrors the workload's declared event model.
type EventSpec struct {
	AllTicks         bool             `yaml:"allTicks" json:"allTicks"`
	ArrivalEvents    bool             `yaml:"arrivalEvents" json:"arrivalEvents"`
	CompletionEvents bool             `yaml:"completionEvents" json:"completionEvents"`
	ExplicitTimes    []timemodel.Time `yaml:"explicitTimes" json:"explicitTimes"`
}

// Workload is the YAML document root (also the JSON body accepted by the
// W4 HTTP control plane's POST /runs).
type Workload struct {
	ProcessorGroups []ProcessorGroupSpec `yaml:"processorGroups" json:"processorGroups"`
	Tasks           []TaskSpec           `yaml:"tasks" json:"tasks"`
	StandaloneJobs  []StandaloneJobSpec  `yaml:"standaloneJobs" json:"standaloneJobs"`
	Events          EventSpec            `yaml:"events" json:"events"`
}

// ValidationError reports a structurally invalid workload document, as
// distinguished from a YAML syntax error raised by the decoder itself.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "workload: " + e.Msg
}
