package billing

import "sort"

// NoRateTask describes one work item whose task type had no rate entry. One
// record is kept per offending item, so the list may repeat task types.
type NoRateTask struct {
	ItemID   string `json:"item_id"`
	TaskType string `json:"task_type"`
	StaffKey string `json:"staff_key"`
}

// ResolutionErrors accumulates the non-fatal gaps hit while resolving rates
// and payees: task types missing from the rate table and staff keys missing
// from the directory. Gaps never abort a run; they ride along with the result
// for operator review.
type ResolutionErrors struct {
	unmatchedTaskTypes map[string]struct{}
	unmatchedStaffKeys map[string]struct{}
	tasksWithNoRate    []NoRateTask
}

// NewResolutionErrors creates an empty accumulator.
func NewResolutionErrors() *ResolutionErrors {
	return &ResolutionErrors{
		unmatchedTaskTypes: make(map[string]struct{}),
		unmatchedStaffKeys: make(map[string]struct{}),
	}
}

// AddUnmatchedTaskType records a task type with no rate entry. Duplicates
// collapse.
func (e *ResolutionErrors) AddUnmatchedTaskType(taskType string) {
	e.unmatchedTaskTypes[taskType] = struct{}{}
}

// AddUnmatchedStaffKey records a staff key the directory could not resolve.
// Duplicates collapse.
func (e *ResolutionErrors) AddUnmatchedStaffKey(staffKey string) {
	e.unmatchedStaffKeys[staffKey] = struct{}{}
}

// AddTaskWithNoRate records one item billed at rate zero.
func (e *ResolutionErrors) AddTaskWithNoRate(task NoRateTask) {
	e.tasksWithNoRate = append(e.tasksWithNoRate, task)
}

// UnmatchedTaskTypes returns the missing task types as a sorted slice.
func (e *ResolutionErrors) UnmatchedTaskTypes() []string {
	return sortedKeys(e.unmatchedTaskTypes)
}

// UnmatchedStaffKeys returns the unresolved staff keys as a sorted slice.
func (e *ResolutionErrors) UnmatchedStaffKeys() []string {
	return sortedKeys(e.unmatchedStaffKeys)
}

// TasksWithNoRate returns the zero-rate items in accumulation order.
func (e *ResolutionErrors) TasksWithNoRate() []NoRateTask {
	tasks := make([]NoRateTask, len(e.tasksWithNoRate))
	copy(tasks, e.tasksWithNoRate)
	return tasks
}

// HasAny reports whether any gap was recorded.
func (e *ResolutionErrors) HasAny() bool {
	return len(e.unmatchedTaskTypes) > 0 || len(e.unmatchedStaffKeys) > 0 || len(e.tasksWithNoRate) > 0
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
