package worker

import (
	"database/sql"

	"audio_classifier/internal/blob"
	"audio_classifier/internal/task"
	"audio_classifier/internal/utils"
)

// Store adapts the task and blob repositories to the worker's interfaces.
type Store struct {
	db    *sql.DB
	tasks task.TaskRepositoryInterface
	blobs blob.BlobRepositoryInterface
}

func NewStore(db *sql.DB, tasks task.TaskRepositoryInterface, blobs blob.BlobRepositoryInterface) *Store {
	return &Store{
		db:    db,
		tasks: tasks,
		blobs: blobs,
	}
}

func (s *Store) ClaimNext() (*task.Task, error) {
	return s.tasks.ClaimNext(s.db)
}

// Complete writes the result and the done status in one transaction, so a
// done task always has exactly one result.
func (s *Store) Complete(taskID int, label string, score float64) error {
	return utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		result := &task.Result{
			TaskID: taskID,
			Label:  label,
			Score:  score,
		}
		if _, err := s.tasks.InsertResult(tx, result); err != nil {
			return err
		}
		return s.tasks.MarkDone(tx, taskID)
	})
}

func (s *Store) Fail(taskID int, reason string) error {
	return utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		return s.tasks.MarkFailed(tx, taskID, reason)
	})
}

func (s *Store) Fetch(blobID int) ([]byte, error) {
	b, err := s.blobs.Get(s.db, blobID)
	if err != nil {
		return nil, err
	}
	return b.Content, nil
}
