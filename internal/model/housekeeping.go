package model

import "time"

// TaskType is the kind of housekeeping work.
type TaskType string

const (
	TaskDailyCleaning    TaskType = "Daily Cleaning"
	TaskCheckoutCleaning TaskType = "Checkout Cleaning"
	TaskDeepCleaning     TaskType = "Deep Cleaning"
	TaskMaintenance      TaskType = "Maintenance Cleaning"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskDailyCleaning, TaskCheckoutCleaning, TaskDeepCleaning, TaskMaintenance:
		return true
	}
	return false
}

// TaskStatus is the progress of a housekeeping task.
type TaskStatus string

const (
	TaskPending            TaskStatus = "Pending"
	TaskInProgress         TaskStatus = "In Progress"
	TaskCompleted          TaskStatus = "Completed"
	TaskInspectionRequired TaskStatus = "Inspection Required"
	TaskFailed             TaskStatus = "Failed"
)

// CleaningTaskRequest is the input of the housekeeping task spawner.
type CleaningTaskRequest struct {
	RoomID        uint64
	Type          TaskType
	Priority      Priority
	ScheduledDate time.Time
	AssignedTo    *uint64
	BookingID     *uint64
	Notes         string
}

// HousekeepingTask mirrors a row of the `housekeeping_tasks` table.
type HousekeepingTask struct {
	ID            uint64     `json:"id"`
	RoomID        uint64     `json:"room_id"`
	BookingID     *uint64    `json:"booking_id,omitempty"`
	AssignedTo    *uint64    `json:"assigned_to,omitempty"`
	Type          TaskType   `json:"type"`
	Status        TaskStatus `json:"status"`
	Priority      Priority   `json:"priority"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	IssuesFound   []string   `json:"issues_found,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	RoomNumber string `json:"room_number,omitempty"`
}

// TaskFilter narrows housekeeping listings.
type TaskFilter struct {
	Status     TaskStatus
	AssignedTo uint64
	RoomID     uint64
	Date       *time.Time
}
