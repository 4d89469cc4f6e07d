package jobs

import "time"

// Status represents task status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// Task holds a single queued unit of background work.
type Task struct {
	ID         int64
	Name       string
	Status     Status
	EnqueuedAt time.Time
	StartedAt  time.Time
	DoneAt     time.Time

	fn func()
}

// Snapshot is a read-only view of a task for UI display.
type Snapshot struct {
	ID         int64
	Name       string
	Status     Status
	EnqueuedAt time.Time
	StartedAt  time.Time
	DoneAt     time.Time
}

func (t *Task) snapshot() Snapshot {
	return Snapshot{
		ID:         t.ID,
		Name:       t.Name,
		Status:     t.Status,
		EnqueuedAt: t.EnqueuedAt,
		StartedAt:  t.StartedAt,
		DoneAt:     t.DoneAt,
	}
}
