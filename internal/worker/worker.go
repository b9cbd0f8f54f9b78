package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"audio_classifier/internal/audio"
	"audio_classifier/internal/catalog"
	"audio_classifier/internal/observability"
	"audio_classifier/internal/queue"
	"audio_classifier/internal/task"

	"github.com/sirupsen/logrus"
)

// TaskStore is the worker's view of the task store. ClaimNext must be atomic
// at the store level so concurrent workers never grab the same task.
type TaskStore interface {
	ClaimNext() (*task.Task, error)
	Complete(taskID int, label string, score float64) error
	Fail(taskID int, reason string) error
}

type BlobFetcher interface {
	Fetch(blobID int) ([]byte, error)
}

type FeatureExtractor interface {
	Extract(data []byte) ([]float64, error)
}

type LabelMatcher interface {
	NearestLabel(vec []float64) (string, float64, error)
}

type EventPublisher interface {
	Publish(event queue.TaskEvent) error
}

const maxBackoff = 30 * time.Second

// Worker drains pending classification tasks one at a time: claim, fetch the
// blob, extract features, match against the reference catalog, persist the
// outcome. Every error is localized to the task under processing; only store
// outages pause the loop.
type Worker struct {
	store        TaskStore
	blobs        BlobFetcher
	extractor    FeatureExtractor
	catalog      LabelMatcher
	publisher    EventPublisher
	pollInterval time.Duration
}

func New(
	store TaskStore,
	blobs BlobFetcher,
	extractor FeatureExtractor,
	matcher LabelMatcher,
	publisher EventPublisher,
	pollInterval time.Duration,
) *Worker {
	return &Worker{
		store:        store,
		blobs:        blobs,
		extractor:    extractor,
		catalog:      matcher,
		publisher:    publisher,
		pollInterval: pollInterval,
	}
}

// Run polls until ctx is cancelled. Sleeps pollInterval only when no pending
// task was found; store errors back off exponentially instead of failing
// tasks, since a persistent outage would otherwise mark every task failed.
func (w *Worker) Run(ctx context.Context) {
	logrus.Info("Classifier worker started")

	backoff := w.pollInterval
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Classifier worker stopped")
			return
		default:
		}

		claimed, err := w.store.ClaimNext()
		if err != nil {
			logrus.WithError(err).Error("Failed to claim task, backing off")
			observability.GlobalMetrics.StoreBackoffsTotal.Inc()
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = w.pollInterval

		if claimed == nil {
			if !sleep(ctx, w.pollInterval) {
				return
			}
			continue
		}

		observability.GlobalMetrics.TasksClaimedTotal.Inc()
		if err := w.processTask(claimed); err != nil {
			// Store write failure: the task may be stuck in processing, but
			// marking it failed would be wrong while the store is down.
			logrus.WithError(err).WithField("task_id", claimed.ID).Error("Store write failed, backing off")
			observability.GlobalMetrics.StoreBackoffsTotal.Inc()
			observability.GlobalMetrics.TasksFailedTotal.WithLabelValues("store_write").Inc()
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

// processTask runs a claimed task to a terminal status. The returned error is
// store-level only; classification failures are recorded on the task itself.
func (w *Worker) processTask(t *task.Task) error {
	logrus.WithFields(logrus.Fields{
		"task_id":  t.ID,
		"filename": t.Filename,
	}).Info("Processing task")

	start := time.Now()
	label, score, errKind, procErr := w.classifyBlob(t)
	observability.GlobalMetrics.TaskProcessingDuration.Observe(time.Since(start).Seconds())

	if procErr != nil {
		if !task.CanTransition(t.Status, task.StatusFailed) {
			return fmt.Errorf("task %d cannot move from %s to failed", t.ID, t.Status)
		}

		logrus.WithError(procErr).WithField("task_id", t.ID).Warn("Task failed")
		if err := w.store.Fail(t.ID, procErr.Error()); err != nil {
			return err
		}

		observability.GlobalMetrics.TasksProcessedTotal.WithLabelValues(string(task.StatusFailed)).Inc()
		observability.GlobalMetrics.TasksFailedTotal.WithLabelValues(errKind).Inc()
		w.publish(queue.TaskEvent{TaskID: t.ID, Status: string(task.StatusFailed), Error: procErr.Error()})
		return nil
	}

	if !task.CanTransition(t.Status, task.StatusDone) {
		return fmt.Errorf("task %d cannot move from %s to done", t.ID, t.Status)
	}

	if err := w.store.Complete(t.ID, label, score); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"task_id": t.ID,
		"label":   label,
		"score":   score,
	}).Info("Task classified")

	observability.GlobalMetrics.TasksProcessedTotal.WithLabelValues(string(task.StatusDone)).Inc()
	observability.GlobalMetrics.ClassificationsTotal.WithLabelValues(label).Inc()
	w.publish(queue.TaskEvent{TaskID: t.ID, Status: string(task.StatusDone), Label: label, Score: score})
	return nil
}

// classifyBlob is the fetch -> extract -> match pipeline. The second return
// is the metric label for the error kind.
func (w *Worker) classifyBlob(t *task.Task) (string, float64, string, error) {
	data, err := w.blobs.Fetch(t.BlobID)
	if err != nil {
		return "", 0, "blob_fetch", fmt.Errorf("blob fetch error: %w", err)
	}

	features, err := w.extractor.Extract(data)
	if err != nil {
		if errors.Is(err, audio.ErrDecode) {
			return "", 0, "decode", err
		}
		return "", 0, "extraction", err
	}

	label, score, err := w.catalog.NearestLabel(features)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyCatalog) {
			return "", 0, "empty_catalog", err
		}
		return "", 0, "classify", err
	}

	return label, score, "", nil
}

func (w *Worker) publish(event queue.TaskEvent) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(event); err != nil {
		logrus.WithError(err).Warn("Failed to publish task event")
	}
}

// sleep waits d or until ctx is cancelled; returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
