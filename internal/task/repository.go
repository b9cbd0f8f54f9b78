package task

import (
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"
)

var ErrTaskNotFound = errors.New("task not found")

// ErrNotRequeueable marks a requeue attempt on a task that is not failed.
var ErrNotRequeueable = errors.New("task is not in failed state")

type TaskRepository struct{}

type TaskRepositoryInterface interface {
	Create(tx *sql.Tx, task *Task) (int, error)
	GetByID(db *sql.DB, id int) (*Task, error)
	List(db *sql.DB, limit int) ([]*Task, error)
	ClaimNext(db *sql.DB) (*Task, error)
	MarkDone(tx *sql.Tx, id int) error
	MarkFailed(tx *sql.Tx, id int, errorMessage string) error
	Requeue(tx *sql.Tx, id int) error
	InsertResult(tx *sql.Tx, result *Result) (int, error)
	GetResultByTaskID(db *sql.DB, taskID int) (*Result, error)
	ListResults(db *sql.DB, limit int) ([]*ResultView, error)
	Stats(db *sql.DB) (*Stats, error)
}

func NewTaskRepository() TaskRepositoryInterface {
	return &TaskRepository{}
}

func (r *TaskRepository) Create(
	tx *sql.Tx,
	task *Task,
) (int, error) {
	query := `
		INSERT INTO tasks (blob_id, filename, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`

	var id int
	err := tx.QueryRow(
		query,
		task.BlobID,
		task.Filename,
		task.Status,
	).Scan(&id)

	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *TaskRepository) GetByID(
	db *sql.DB,
	id int,
) (*Task, error) {
	query := `
		SELECT id, blob_id, filename, status, error_message, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	row := db.QueryRow(query, id)

	var t Task
	err := row.Scan(
		&t.ID,
		&t.BlobID,
		&t.Filename,
		&t.Status,
		&t.ErrorMessage,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return &t, nil
}

func (r *TaskRepository) List(
	db *sql.DB,
	limit int,
) ([]*Task, error) {
	query := `
		SELECT id, blob_id, filename, status, error_message, created_at, updated_at
		FROM tasks
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var t Task
		err := rows.Scan(
			&t.ID,
			&t.BlobID,
			&t.Filename,
			&t.Status,
			&t.ErrorMessage,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			logrus.Error("Error scanning task row: ", err)
			continue
		}
		tasks = append(tasks, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// ClaimNext atomically moves the oldest pending task to processing and returns
// it. The claim is a single conditional update, so concurrent workers cannot
// grab the same task; SKIP LOCKED keeps them from serializing on each other.
// Returns (nil, nil) when no pending task exists.
func (r *TaskRepository) ClaimNext(db *sql.DB) (*Task, error) {
	query := `
		UPDATE tasks
		SET status = 'processing', updated_at = NOW()
		WHERE id = (
			SELECT id FROM tasks
			WHERE status = 'pending'
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, blob_id, filename, status, error_message, created_at, updated_at
	`

	row := db.QueryRow(query)

	var t Task
	err := row.Scan(
		&t.ID,
		&t.BlobID,
		&t.Filename,
		&t.Status,
		&t.ErrorMessage,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &t, nil
}

func (r *TaskRepository) MarkDone(
	tx *sql.Tx,
	id int,
) error {
	query := `
		UPDATE tasks
		SET status = 'done', updated_at = NOW()
		WHERE id = $1
	`
	_, err := tx.Exec(query, id)
	return err
}

func (r *TaskRepository) MarkFailed(
	tx *sql.Tx,
	id int,
	errorMessage string,
) error {
	query := `
		UPDATE tasks
		SET status = 'failed',
		    error_message = $1,
		    updated_at = NOW()
		WHERE id = $2
	`
	_, err := tx.Exec(query, errorMessage, id)
	return err
}

// Requeue moves a failed task back to pending. Guarded by status so a done or
// in-flight task cannot be re-enqueued.
func (r *TaskRepository) Requeue(
	tx *sql.Tx,
	id int,
) error {
	query := `
		UPDATE tasks
		SET status = 'pending',
		    error_message = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'failed'
	`
	res, err := tx.Exec(query, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotRequeueable
	}

	return nil
}

func (r *TaskRepository) InsertResult(
	tx *sql.Tx,
	result *Result,
) (int, error) {
	query := `
		INSERT INTO results (task_id, label, score, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`

	var id int
	err := tx.QueryRow(query, result.TaskID, result.Label, result.Score).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *TaskRepository) GetResultByTaskID(
	db *sql.DB,
	taskID int,
) (*Result, error) {
	query := `
		SELECT id, task_id, label, score, created_at
		FROM results
		WHERE task_id = $1
	`

	row := db.QueryRow(query, taskID)

	var res Result
	err := row.Scan(&res.ID, &res.TaskID, &res.Label, &res.Score, &res.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &res, nil
}

func (r *TaskRepository) ListResults(
	db *sql.DB,
	limit int,
) ([]*ResultView, error) {
	query := `
		SELECT r.id, r.task_id, t.filename, r.label, r.score, r.created_at
		FROM results r
		JOIN tasks t ON t.id = r.task_id
		ORDER BY r.created_at DESC
		LIMIT $1
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*ResultView
	for rows.Next() {
		var v ResultView
		err := rows.Scan(&v.ID, &v.TaskID, &v.Filename, &v.Label, &v.Score, &v.CreatedAt)
		if err != nil {
			logrus.Error("Error scanning result row: ", err)
			continue
		}
		results = append(results, &v)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (r *TaskRepository) Stats(db *sql.DB) (*Stats, error) {
	query := `
		SELECT label, COUNT(*)
		FROM results
		GROUP BY label
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}

		stats.Total += count
		switch label {
		case LabelRock:
			stats.Rock = count
		case LabelHiphop:
			stats.Hiphop = count
		}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return &stats, nil
}
