package blob

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks a blob reference that does not exist in the store.
var ErrNotFound = errors.New("blob not found")

type Blob struct {
	ID          int
	Filename    string
	ContentType string
	Content     []byte
	CreatedAt   time.Time
}

type BlobRepository struct{}

type BlobRepositoryInterface interface {
	Create(tx *sql.Tx, filename, contentType string, content []byte) (int, error)
	Get(db *sql.DB, id int) (*Blob, error)
}

func NewBlobRepository() BlobRepositoryInterface {
	return &BlobRepository{}
}

func (r *BlobRepository) Create(
	tx *sql.Tx,
	filename string,
	contentType string,
	content []byte,
) (int, error) {
	query := `
		INSERT INTO audio_blobs (filename, content_type, content, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`

	var id int
	err := tx.QueryRow(query, filename, contentType, content).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *BlobRepository) Get(
	db *sql.DB,
	id int,
) (*Blob, error) {
	query := `
		SELECT id, filename, content_type, content, created_at
		FROM audio_blobs
		WHERE id = $1
	`

	row := db.QueryRow(query, id)

	var b Blob
	err := row.Scan(&b.ID, &b.Filename, &b.ContentType, &b.Content, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, err
	}

	return &b, nil
}
