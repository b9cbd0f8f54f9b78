package task

import "time"

// Genre labels produced by the classifier. The reference catalog is the source
// of truth; these constants exist for the dashboard stats breakdown.
const (
	LabelRock   = "rock"
	LabelHiphop = "hiphop"
)

type Task struct {
	ID           int       `json:"id"`
	BlobID       int       `json:"blob_id"`
	Filename     string    `json:"filename"`
	Status       Status    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Result is written exactly once when a task reaches done and is immutable
// afterward. results.task_id carries a unique index, so a task can never have
// more than one.
type Result struct {
	ID        int       `json:"id"`
	TaskID    int       `json:"task_id"`
	Label     string    `json:"label"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// ResultView is a result joined with the originating task's filename for
// dashboard listings.
type ResultView struct {
	ID        int       `json:"id"`
	TaskID    int       `json:"task_id"`
	Filename  string    `json:"filename"`
	Label     string    `json:"label"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	Total  int `json:"total"`
	Rock   int `json:"rock"`
	Hiphop int `json:"hiphop"`
}
