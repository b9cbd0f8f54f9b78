package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

type ReferenceRepository struct{}

type ReferenceRepositoryInterface interface {
	LoadAll(db *sql.DB) (*Catalog, error)
	ReplaceAll(tx *sql.Tx, tracks []ReferenceTrack) error
}

func NewReferenceRepository() ReferenceRepositoryInterface {
	return &ReferenceRepository{}
}

// LoadAll reads every reference track into memory, ordered by id so the
// tie-break order is stable across restarts.
func (r *ReferenceRepository) LoadAll(db *sql.DB) (*Catalog, error) {
	query := `
		SELECT id, label, features
		FROM reference_tracks
		ORDER BY id ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []ReferenceTrack
	for rows.Next() {
		var t ReferenceTrack
		var raw []byte
		if err := rows.Scan(&t.ID, &t.Label, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &t.Features); err != nil {
			return nil, fmt.Errorf("invalid feature vector for reference %d: %w", t.ID, err)
		}
		tracks = append(tracks, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return New(tracks), nil
}

// ReplaceAll swaps the whole catalog in one transaction. Used by the seeder;
// the worker never writes references.
func (r *ReferenceRepository) ReplaceAll(tx *sql.Tx, tracks []ReferenceTrack) error {
	if _, err := tx.Exec(`DELETE FROM reference_tracks`); err != nil {
		return err
	}

	query := `
		INSERT INTO reference_tracks (label, features, created_at)
		VALUES ($1, $2, NOW())
	`

	for _, t := range tracks {
		raw, err := json.Marshal(t.Features)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, t.Label, raw); err != nil {
			return err
		}
	}

	return nil
}
