package model

import "time"

// TaskStatus is the state of a background task in the analysis queue.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
)

// QueueTask is a background analysis task that is queued or running.
// Finished tasks leave the queue.
type QueueTask struct {
	UUID          string     `json:"uuid"`
	ComponentUUID string     `json:"component_uuid"`
	TaskType      string     `json:"task_type"`
	Status        TaskStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}
