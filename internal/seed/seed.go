// Package seed populates the reference catalog from labeled sample audio.
// The seed directory contains one subdirectory per genre label, each holding
// WAV files whose fingerprints become the references for that label.
package seed

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"audio_classifier/internal/audio"
	"audio_classifier/internal/catalog"
	"audio_classifier/internal/utils"

	"github.com/sirupsen/logrus"
)

// Run replaces the reference catalog with fingerprints extracted from dir.
func Run(db *sql.DB, extractor *audio.Extractor, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read seed directory %s: %w", dir, err)
	}

	var tracks []catalog.ReferenceTrack
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		label := entry.Name()

		labelTracks, err := extractLabel(extractor, filepath.Join(dir, label), label)
		if err != nil {
			return err
		}
		tracks = append(tracks, labelTracks...)
	}

	if len(tracks) == 0 {
		return fmt.Errorf("no reference audio found under %s", dir)
	}

	if err := utils.WithTransaction(db, func(tx *sql.Tx) error {
		return catalog.NewReferenceRepository().ReplaceAll(tx, tracks)
	}); err != nil {
		return err
	}

	logrus.Infof("Seeded %d reference tracks from %s", len(tracks), dir)
	return nil
}

func extractLabel(extractor *audio.Extractor, labelDir, label string) ([]catalog.ReferenceTrack, error) {
	files, err := os.ReadDir(labelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read label directory %s: %w", labelDir, err)
	}

	// Stable ordering keeps reference ids, and with them the tie-break order,
	// reproducible across reseeds.
	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() && strings.EqualFold(filepath.Ext(f.Name()), ".wav") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	var tracks []catalog.ReferenceTrack
	for _, name := range names {
		path := filepath.Join(labelDir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		features, err := extractor.Extract(data)
		if err != nil {
			return nil, fmt.Errorf("failed to extract features from %s: %w", path, err)
		}

		logrus.WithFields(logrus.Fields{
			"label": label,
			"file":  name,
		}).Info("Extracted reference fingerprint")

		tracks = append(tracks, catalog.ReferenceTrack{
			Label:    label,
			Features: features,
		})
	}

	return tracks, nil
}
