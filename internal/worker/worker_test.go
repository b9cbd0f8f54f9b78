package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"audio_classifier/internal/audio"
	"audio_classifier/internal/catalog"
	"audio_classifier/internal/observability"
	"audio_classifier/internal/queue"
	"audio_classifier/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	observability.InitMetrics()
	os.Exit(m.Run())
}

// MockStore is a mock implementation of TaskStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ClaimNext() (*task.Task, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockStore) Complete(taskID int, label string, score float64) error {
	args := m.Called(taskID, label, score)
	return args.Error(0)
}

func (m *MockStore) Fail(taskID int, reason string) error {
	args := m.Called(taskID, reason)
	return args.Error(0)
}

type MockBlobs struct {
	mock.Mock
}

func (m *MockBlobs) Fetch(blobID int) ([]byte, error) {
	args := m.Called(blobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(data []byte) ([]float64, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) NearestLabel(vec []float64) (string, float64, error) {
	args := m.Called(vec)
	return args.String(0), args.Get(1).(float64), args.Error(2)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(event queue.TaskEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func claimedTask(id, blobID int) *task.Task {
	return &task.Task{
		ID:       id,
		BlobID:   blobID,
		Filename: fmt.Sprintf("track_%d.wav", id),
		Status:   task.StatusProcessing,
	}
}

func TestProcessTask_Success(t *testing.T) {
	store := new(MockStore)
	blobs := new(MockBlobs)
	extractor := new(MockExtractor)
	matcher := new(MockMatcher)
	publisher := new(MockPublisher)

	data := []byte("wav bytes")
	features := []float64{0.9, 0.1}

	blobs.On("Fetch", 7).Return(data, nil)
	extractor.On("Extract", data).Return(features, nil)
	matcher.On("NearestLabel", features).Return("rock", 0.93, nil)
	store.On("Complete", 1, "rock", 0.93).Return(nil)
	publisher.On("Publish", queue.TaskEvent{
		TaskID: 1,
		Status: string(task.StatusDone),
		Label:  "rock",
		Score:  0.93,
	}).Return(nil)

	w := New(store, blobs, extractor, matcher, publisher, time.Millisecond)

	err := w.processTask(claimedTask(1, 7))
	require.NoError(t, err)

	store.AssertNotCalled(t, "Fail", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestProcessTask_BlobFetchFailure(t *testing.T) {
	store := new(MockStore)
	blobs := new(MockBlobs)

	blobs.On("Fetch", 7).Return(nil, errors.New("blob not found: id 7"))
	store.On("Fail", 1, mock.MatchedBy(func(reason string) bool {
		return strings.HasPrefix(reason, "blob fetch error")
	})).Return(nil)

	w := New(store, blobs, new(MockExtractor), new(MockMatcher), nil, time.Millisecond)

	err := w.processTask(claimedTask(1, 7))
	require.NoError(t, err, "a missing blob is a task failure, not a loop failure")

	store.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestProcessTask_UndecodableAudio(t *testing.T) {
	store := new(MockStore)
	blobs := new(MockBlobs)
	extractor := new(MockExtractor)

	blobs.On("Fetch", 7).Return([]byte{}, nil)
	extractor.On("Extract", mock.Anything).Return(nil, fmt.Errorf("%w: empty input", audio.ErrDecode))
	store.On("Fail", 1, mock.MatchedBy(func(reason string) bool {
		return strings.Contains(reason, "undecodable audio")
	})).Return(nil)

	w := New(store, blobs, extractor, new(MockMatcher), nil, time.Millisecond)

	err := w.processTask(claimedTask(1, 7))
	require.NoError(t, err)

	store.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestProcessTask_EmptyCatalog(t *testing.T) {
	store := new(MockStore)
	blobs := new(MockBlobs)
	extractor := new(MockExtractor)
	matcher := new(MockMatcher)

	blobs.On("Fetch", 7).Return([]byte("wav bytes"), nil)
	extractor.On("Extract", mock.Anything).Return([]float64{0.5, 0.5}, nil)
	matcher.On("NearestLabel", mock.Anything).Return("", 0.0, catalog.ErrEmptyCatalog)
	store.On("Fail", 1, mock.MatchedBy(func(reason string) bool {
		return strings.Contains(reason, "reference catalog is empty")
	})).Return(nil)

	w := New(store, blobs, extractor, matcher, nil, time.Millisecond)

	err := w.processTask(claimedTask(1, 7))
	require.NoError(t, err)

	store.AssertExpectations(t)
}

func TestProcessTask_StoreWriteFailure(t *testing.T) {
	store := new(MockStore)
	blobs := new(MockBlobs)
	extractor := new(MockExtractor)
	matcher := new(MockMatcher)

	blobs.On("Fetch", 7).Return([]byte("wav bytes"), nil)
	extractor.On("Extract", mock.Anything).Return([]float64{0.9, 0.1}, nil)
	matcher.On("NearestLabel", mock.Anything).Return("rock", 0.93, nil)
	store.On("Complete", 1, "rock", 0.93).Return(errors.New("connection refused"))

	w := New(store, blobs, extractor, matcher, nil, time.Millisecond)

	err := w.processTask(claimedTask(1, 7))
	require.Error(t, err, "a store outage must surface to the loop, not mark the task failed")

	store.AssertNotCalled(t, "Fail", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

// A failed task must not stall the loop: the next pending task in the same
// polling cycle still gets processed.
func TestRun_ContinuesAfterFailedTask(t *testing.T) {
	store := new(MockStore)
	blobs := new(MockBlobs)
	extractor := new(MockExtractor)
	matcher := new(MockMatcher)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store.On("ClaimNext").Return(claimedTask(1, 7), nil).Once()
	store.On("ClaimNext").Return(claimedTask(2, 8), nil).Once()
	store.On("ClaimNext").Return(nil, nil)

	// First task: blob missing
	blobs.On("Fetch", 7).Return(nil, errors.New("blob not found: id 7"))
	store.On("Fail", 1, mock.Anything).Return(nil)

	// Second task: classifies fine
	blobs.On("Fetch", 8).Return([]byte("wav bytes"), nil)
	extractor.On("Extract", mock.Anything).Return([]float64{0.1, 0.9}, nil)
	matcher.On("NearestLabel", mock.Anything).Return("hiphop", 0.88, nil)
	store.On("Complete", 2, "hiphop", 0.88).Return(nil).Run(func(args mock.Arguments) {
		cancel()
	})

	w := New(store, blobs, extractor, matcher, nil, time.Millisecond)
	w.Run(ctx)

	assert.ErrorIs(t, ctx.Err(), context.Canceled, "worker should have processed both tasks before the timeout")
	store.AssertExpectations(t)
}
