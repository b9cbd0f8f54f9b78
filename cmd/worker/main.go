package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"audio_classifier/internal/audio"
	"audio_classifier/internal/blob"
	"audio_classifier/internal/cache"
	"audio_classifier/internal/catalog"
	"audio_classifier/internal/config"
	"audio_classifier/internal/db"
	"audio_classifier/internal/observability"
	"audio_classifier/internal/queue"
	"audio_classifier/internal/task"
	"audio_classifier/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
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

	// Fail fast on Redis misconfiguration even though the worker itself reads
	// nothing from the cache; the deployment shares one config.
	rdb := cache.SetupRedis(&cfg.Redis)
	defer rdb.Close()

	conn := queue.SetupRabbitMQ(&cfg.RabbitMQ)
	defer func() {
		if err := conn.Close(); err != nil {
			logrus.Fatalf("Failed to close RabbitMQ connection")
		}
	}()

	ch, err := queue.CreateChannel(conn)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create RabbitMQ channel")
	}
	if _, err := queue.DeclareQueue(ch, queue.EventQueue); err != nil {
		logrus.WithError(err).Fatal("Failed to declare RabbitMQ queue")
	}
	if err := ch.Close(); err != nil {
		logrus.WithError(err).Fatal("Failed to close RabbitMQ channel")
	}

	observability.InitMetrics()
	logrus.Info("Metrics initialized")

	// Start metrics HTTP server for Prometheus scraping
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		logrus.Info("Worker metrics server started on :" + cfg.Worker.MetricsPort)
		if err := http.ListenAndServe(":"+cfg.Worker.MetricsPort, nil); err != nil {
			logrus.WithError(err).Fatal("Failed to start metrics server")
		}
	}()

	refCatalog, err := catalog.NewReferenceRepository().LoadAll(database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load reference catalog")
	}
	if refCatalog.Len() == 0 {
		logrus.Warn("Reference catalog is empty; tasks will fail until it is seeded")
	}
	logrus.Infof("Loaded %d reference tracks", refCatalog.Len())

	store := worker.NewStore(database, task.NewTaskRepository(), blob.NewBlobRepository())
	w := worker.New(
		store,
		store,
		audio.NewExtractor(),
		refCatalog,
		queue.NewEventPublisher(conn),
		cfg.Worker.PollInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutting down worker...")
		cancel()
	}()

	w.Run(ctx)
}
