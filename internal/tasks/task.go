package tasks

import (
	"context"
	"time"
)

// TriggerType is the kind of schedule a trigger describes
type TriggerType string

const (
	TriggerStartup  TriggerType = "StartupTrigger"
	TriggerDaily    TriggerType = "DailyTrigger"
	TriggerWeekly   TriggerType = "WeeklyTrigger"
	TriggerInterval TriggerType = "IntervalTrigger"
)

// TriggerInfo describes when a task should run on its own
type TriggerInfo struct {
	Type       TriggerType
	TimeOfDay  time.Duration // offset from midnight for daily and weekly triggers
	DayOfWeek  time.Weekday
	Interval   time.Duration
	MaxRuntime time.Duration
}

// Progress receives completion updates in percent, 0 to 100
type Progress interface {
	Report(percent float64)
}

// ProgressFunc adapts a function to Progress
type ProgressFunc func(percent float64)

// Report calls f
func (f ProgressFunc) Report(percent float64) {
	f(percent)
}

// NopProgress discards every update
var NopProgress Progress = ProgressFunc(func(float64) {})

// Task is a named unit of work the scheduler can run
type Task interface {
	Name() string
	Key() string
	Description() string
	Category() string
	IsHidden() bool
	IsEnabled() bool
	IsLogged() bool
	DefaultTriggers() []TriggerInfo
	Execute(ctx context.Context, progress Progress) error
}
