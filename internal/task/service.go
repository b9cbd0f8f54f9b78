package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"audio_classifier/internal/blob"
	"audio_classifier/internal/cache"
	"audio_classifier/internal/observability"
	"audio_classifier/internal/queue"
	"audio_classifier/internal/utils"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type TaskServiceInterface interface {
	CreateFromUpload(filename, contentType string, content []byte) (*Task, error)
	GetTask(taskID int) (*Task, error)
	ListTasks(limit int) ([]*Task, error)
	ListResults(limit int) ([]*ResultView, error)
	GetStats() (*Stats, error)
	RequeueTask(taskID int) error
}

type TaskService struct {
	repo      TaskRepositoryInterface
	blobs     blob.BlobRepositoryInterface
	DB        *sql.DB
	publisher *queue.EventPublisher
	cache     *cache.ResultCache
}

func NewTaskService(
	repo TaskRepositoryInterface,
	blobs blob.BlobRepositoryInterface,
	db *sql.DB,
	publisher *queue.EventPublisher,
	redisClient *redis.Client,
) TaskServiceInterface {
	return &TaskService{
		repo:      repo,
		blobs:     blobs,
		DB:        db,
		publisher: publisher,
		cache:     cache.NewResultCache(redisClient),
	}
}

// CreateFromUpload stores the audio bytes and a pending task in one
// transaction, then announces the new task on the event queue.
func (s *TaskService) CreateFromUpload(filename, contentType string, content []byte) (*Task, error) {
	if filename == "" || len(content) == 0 {
		return nil, fmt.Errorf("invalid upload payload")
	}

	task := &Task{
		Filename: filename,
		Status:   StatusPending,
	}

	if err := utils.WithTransaction(s.DB, func(tx *sql.Tx) error {
		blobID, err := s.blobs.Create(tx, filename, contentType, content)
		if err != nil {
			return err
		}
		task.BlobID = blobID

		taskID, err := s.repo.Create(tx, task)
		if err != nil {
			return err
		}
		task.ID = taskID
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(queue.TaskEvent{
		TaskID: task.ID,
		Status: string(task.Status),
	}); err != nil {
		logrus.WithError(err).Warn("Failed to publish task created event")
	}

	return task, nil
}

func (s *TaskService) GetTask(taskID int) (*Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Try cache first
	cacheKey := cache.TaskKey(taskID)
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cachedData != nil {
		var task Task
		if json.Unmarshal(cachedData, &task) == nil {
			observability.GlobalMetrics.CacheHitsTotal.WithLabelValues("task").Inc()
			return &task, nil
		}
	}
	observability.GlobalMetrics.CacheMissesTotal.WithLabelValues("task").Inc()

	task, err := s.repo.GetByID(s.DB, taskID)
	if err != nil {
		return nil, err
	}

	// Short TTL: the worker may advance this task any moment
	if err := s.cache.Set(ctx, cacheKey, task, cache.TaskCacheTTL); err != nil {
		logrus.WithError(err).Warn("Failed to set cache for task")
	}

	return task, nil
}

func (s *TaskService) ListTasks(limit int) ([]*Task, error) {
	return s.repo.List(s.DB, limit)
}

func (s *TaskService) ListResults(limit int) ([]*ResultView, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cacheKey := cache.ResultsKey(limit)
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cachedData != nil {
		var results []*ResultView
		if json.Unmarshal(cachedData, &results) == nil {
			observability.GlobalMetrics.CacheHitsTotal.WithLabelValues("results").Inc()
			return results, nil
		}
	}
	observability.GlobalMetrics.CacheMissesTotal.WithLabelValues("results").Inc()

	results, err := s.repo.ListResults(s.DB, limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, results, cache.ResultCacheTTL); err != nil {
		logrus.WithError(err).Warn("Failed to set cache for results")
	}

	return results, nil
}

func (s *TaskService) GetStats() (*Stats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cacheKey := cache.StatsKey()
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err == nil && cachedData != nil {
		var stats Stats
		if json.Unmarshal(cachedData, &stats) == nil {
			observability.GlobalMetrics.CacheHitsTotal.WithLabelValues("stats").Inc()
			return &stats, nil
		}
	}
	observability.GlobalMetrics.CacheMissesTotal.WithLabelValues("stats").Inc()

	stats, err := s.repo.Stats(s.DB)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, stats, cache.ResultCacheTTL); err != nil {
		logrus.WithError(err).Warn("Failed to set cache for stats")
	}

	return stats, nil
}

// RequeueTask moves a failed task back to pending so the worker picks it up
// again. This is the only path back out of failed.
func (s *TaskService) RequeueTask(taskID int) error {
	if err := utils.WithTransaction(s.DB, func(tx *sql.Tx) error {
		return s.repo.Requeue(tx, taskID)
	}); err != nil {
		return err
	}

	if err := s.publisher.Publish(queue.TaskEvent{
		TaskID: taskID,
		Status: string(StatusPending),
	}); err != nil {
		logrus.WithError(err).Warn("Failed to publish task requeued event")
	}

	return nil
}
