package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trainops/tmc-api/internal/models"
	appErrors "github.com/trainops/tmc-api/pkg/errors"
)

type stubAssignments struct {
	byTrainer map[string][]string
	err       error
}

func (s *stubAssignments) ListTraineeIDs(ctx context.Context, trainerID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byTrainer[trainerID], nil
}

type filterRecordingLister struct {
	demos   []models.DemoRecord
	filters []models.DemoFilter
}

func (l *filterRecordingLister) List(ctx context.Context, filter models.DemoFilter) ([]models.DemoRecord, error) {
	l.filters = append(l.filters, filter)
	return l.demos, nil
}

// memoryCache round-trips values through JSON the way the Redis-backed cache
// does, so stale-deserialization bugs show up here too.
type memoryCache struct {
	entries map[string][]byte
	sets    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.deletes++
}

func pendingWorklistDemo(id, traineeID string) models.DemoRecord {
	return models.DemoRecord{
		ID:             id,
		TraineeID:      traineeID,
		Title:          "Demo " + id,
		LifecycleState: models.StateUnderTrainerReview,
		SubmittedAt:    time.Now().UTC(),
	}
}

func TestPendingForTrainerFiltersByAssignment(t *testing.T) {
	lister := &filterRecordingLister{demos: []models.DemoRecord{pendingWorklistDemo("d1", "trainee-1")}}
	assignments := &stubAssignments{byTrainer: map[string][]string{"trainer-1": {"trainee-1", "trainee-2"}}}
	svc := NewWorklistService(lister, assignments, nil, time.Minute, zap.NewNop())

	demos, err := svc.PendingForTrainer(context.Background(), "trainer-1")
	require.NoError(t, err)
	assert.Len(t, demos, 1)

	require.Len(t, lister.filters, 1)
	assert.Equal(t, []models.LifecycleState{models.StateUnderTrainerReview}, lister.filters[0].States)
	assert.Equal(t, []string{"trainee-1", "trainee-2"}, lister.filters[0].TraineeIDs)
}

func TestPendingForTrainerNoAssignments(t *testing.T) {
	lister := &filterRecordingLister{}
	svc := NewWorklistService(lister, &stubAssignments{}, nil, time.Minute, zap.NewNop())

	demos, err := svc.PendingForTrainer(context.Background(), "trainer-1")
	require.NoError(t, err)
	assert.Empty(t, demos)
	// No assignments means no store round trip at all.
	assert.Empty(t, lister.filters)
}

func TestReviewedByTrainerFilter(t *testing.T) {
	lister := &filterRecordingLister{}
	svc := NewWorklistService(lister, &stubAssignments{}, nil, time.Minute, zap.NewNop())

	_, err := svc.ReviewedByTrainer(context.Background(), "trainer-1")
	require.NoError(t, err)

	require.Len(t, lister.filters, 1)
	assert.Equal(t, "trainer-1", lister.filters[0].TrainerReviewerID)
	assert.Empty(t, lister.filters[0].States)
}

func TestPendingForMasterTrainerKeysOffState(t *testing.T) {
	lister := &filterRecordingLister{demos: []models.DemoRecord{
		{ID: "d1", LifecycleState: models.StateTrainerApproved},
	}}
	svc := NewWorklistService(lister, &stubAssignments{}, nil, time.Minute, zap.NewNop())

	demos, err := svc.PendingForMasterTrainer(context.Background())
	require.NoError(t, err)
	assert.Len(t, demos, 1)

	require.Len(t, lister.filters, 1)
	assert.Equal(t, []models.LifecycleState{models.StateTrainerApproved}, lister.filters[0].States)
	// The queue is a full projection, never a page.
	assert.Zero(t, lister.filters[0].Limit)
}

func TestPendingForMasterTrainerCaching(t *testing.T) {
	lister := &filterRecordingLister{demos: []models.DemoRecord{
		{ID: "d1", LifecycleState: models.StateTrainerApproved},
	}}
	cache := newMemoryCache()
	svc := NewWorklistService(lister, &stubAssignments{}, cache, time.Minute, zap.NewNop())

	first, err := svc.PendingForMasterTrainer(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from the cache, not the store.
	second, err := svc.PendingForMasterTrainer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, lister.filters, 1)

	svc.InvalidateMasterQueue(context.Background())
	assert.Equal(t, 1, cache.deletes)

	_, err = svc.PendingForMasterTrainer(context.Background())
	require.NoError(t, err)
	assert.Len(t, lister.filters, 2)
}
