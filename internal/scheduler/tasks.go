// Package scheduler wires background work through asynq: the periodic
// session-expiry sweep and best-effort staff notification dispatch.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskSessionSweep purges expired conversation sessions. Correctness never
// depends on the sweep; expired rows are already invisible to reads.
const TaskSessionSweep = "sessions.sweep"

// TaskStaffAssigned notifies a staff member about a newly assigned report.
const TaskStaffAssigned = "reports.staff_assigned"

// StaffAssignedPayload carries the ids needed to build the notification.
type StaffAssignedPayload struct {
	ReportID string `json:"reportId"`
	StaffID  string `json:"staffId"`
}

// NewSessionSweepTask builds the sweep task (no payload).
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}

// NewStaffAssignedTask builds a staff notification task.
func NewStaffAssignedTask(payload StaffAssignedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaffAssigned, data), nil
}

// ParseStaffAssignedPayload decodes a staff notification task.
func ParseStaffAssignedPayload(task *asynq.Task) (StaffAssignedPayload, error) {
	var payload StaffAssignedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StaffAssignedPayload{}, err
	}
	return payload, nil
}
