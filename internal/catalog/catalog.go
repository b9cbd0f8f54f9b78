// Package catalog holds the labeled reference fingerprints the worker
// compares uploads against. The catalog is loaded once at startup and is
// read-only afterward.
package catalog

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyCatalog marks a classification attempt against a catalog with no
// references. Callers must treat this as a failure, never as a default label.
var ErrEmptyCatalog = errors.New("reference catalog is empty")

type ReferenceTrack struct {
	ID       int
	Label    string
	Features []float64
}

type Catalog struct {
	tracks []ReferenceTrack
}

func New(tracks []ReferenceTrack) *Catalog {
	return &Catalog{tracks: tracks}
}

func (c *Catalog) Len() int {
	return len(c.tracks)
}

// NearestLabel returns the label of the reference closest to vec by cosine
// similarity and a score normalized to [0, 1]. On equal similarity the
// lowest-index reference wins, so repeated calls are deterministic.
func (c *Catalog) NearestLabel(vec []float64) (string, float64, error) {
	if len(c.tracks) == 0 {
		return "", 0, ErrEmptyCatalog
	}

	best := 0
	bestSim := cosineSimilarity(vec, c.tracks[0].Features)
	for i := 1; i < len(c.tracks); i++ {
		if sim := cosineSimilarity(vec, c.tracks[i].Features); sim > bestSim {
			best = i
			bestSim = sim
		}
	}

	// Cosine similarity lives in [-1, 1]; map to [0, 1] for storage
	return c.tracks[best].Label, (bestSim + 1) / 2, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	denom := floats.Norm(a, 2) * floats.Norm(b, 2)
	if denom == 0 {
		return 0
	}

	return floats.Dot(a, b) / denom
}
