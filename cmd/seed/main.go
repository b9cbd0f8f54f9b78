package main

import (
	"audio_classifier/internal/audio"
	"audio_classifier/internal/config"
	"audio_classifier/internal/db"
	"audio_classifier/internal/seed"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.Load()

	database := db.Init(&cfg.DB)
	defer func() {
		if err := database.Close(); err != nil {
			logrus.WithError(err).Fatal("Failed to close database connection")
		}
	}()

	if err := db.Migrate(database); err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database")
	}

	if err := seed.Run(database, audio.NewExtractor(), cfg.Seed.Dir); err != nil {
		logrus.WithError(err).Fatal("Failed to seed reference catalog")
	}
}
