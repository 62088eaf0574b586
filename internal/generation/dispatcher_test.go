package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ugcads-backend/internal/models"
	"ugcads-backend/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeVideos struct {
	mu     sync.Mutex
	videos map[string]*models.Video
	failed map[string]string
}

func newFakeVideos(videos ...*models.Video) *fakeVideos {
	f := &fakeVideos{videos: map[string]*models.Video{}, failed: map[string]string{}}
	for _, v := range videos {
		f.videos[v.ID] = v
	}
	return f
}

func (f *fakeVideos) FindVideo(_ context.Context, id string) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, services.ErrVideoNotFound
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVideos) FailVideo(_ context.Context, id, reason string) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, services.ErrVideoNotFound
	}
	if v.Status != models.VideoStatusProcessing {
		return nil, services.ErrInvalidTransition
	}
	v.Status = models.VideoStatusFailed
	f.failed[id] = reason
	return v, nil
}

func (f *fakeVideos) failure(id string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reason, ok := f.failed[id]
	return reason, ok
}

func processingVideo(id string) *models.Video {
	return &models.Video{
		ID:     id,
		UserID: "user_1",
		Status: models.VideoStatusProcessing,
		PromptData: datatypes.NewJSONType(models.PromptData{
			Title:  "Launch ad",
			Scenes: []models.Scene{{VisualDescription: "desk", Dialogue: "hi"}},
		}),
	}
}

func setupQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueue(client), mr
}

func newTestDispatcher(t *testing.T, url string, maxAttempts int, videos VideoStore) (*Dispatcher, *Queue, *miniredis.Miniredis) {
	queue, mr := setupQueue(t)
	d := NewDispatcher(Config{
		APIURL:      url,
		APIKey:      "backend-key",
		CallbackURL: "https://app.example/api/v1/generation/callback",
		MaxAttempts: maxAttempts,
		Workers:     1,
		PollTimeout: 50 * time.Millisecond,
	}, queue, videos, nil, nil)
	return d, queue, mr
}

func TestQueueFIFO(t *testing.T) {
	queue, _ := setupQueue(t)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, "a"))
	require.NoError(t, queue.Enqueue(ctx, "b"))

	first, err := queue.Pop(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	second, err := queue.Pop(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "a", first)
	assert.Equal(t, "b", second)

	empty, err := queue.Pop(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDispatcherSubmitsJob(t *testing.T) {
	var got jobRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	videos := newFakeVideos(processingVideo("vid_1"))
	d, queue, mr := newTestDispatcher(t, srv.URL, 3, videos)
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, "vid_1"))

	took, err := d.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, took)

	assert.Equal(t, "Bearer backend-key", auth)
	assert.Equal(t, "vid_1", got.VideoID)
	assert.Equal(t, "Launch ad", got.PromptData.Title)
	assert.Equal(t, "https://app.example/api/v1/generation/callback", got.CallbackURL)

	_, failed := videos.failure("vid_1")
	assert.False(t, failed)
	assert.False(t, mr.Exists(QueueKey))
}

func TestDispatcherRejectedJobFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "prompt rejected", http.StatusBadRequest)
	}))
	defer srv.Close()

	videos := newFakeVideos(processingVideo("vid_1"))
	d, queue, _ := newTestDispatcher(t, srv.URL, 3, videos)
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, "vid_1"))

	_, err := d.ProcessNext(ctx)
	require.NoError(t, err)

	reason, failed := videos.failure("vid_1")
	assert.True(t, failed)
	assert.Contains(t, reason, "prompt rejected")

	n, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDispatcherRetriesThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	videos := newFakeVideos(processingVideo("vid_1"))
	d, queue, mr := newTestDispatcher(t, srv.URL, 2, videos)
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, "vid_1"))

	_, err := d.ProcessNext(ctx)
	require.NoError(t, err)

	n, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "first failure requeues")
	_, failed := videos.failure("vid_1")
	assert.False(t, failed)

	_, err = d.ProcessNext(ctx)
	require.NoError(t, err)

	n, err = queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	reason, failed := videos.failure("vid_1")
	assert.True(t, failed)
	assert.Contains(t, reason, "after 2 attempts")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Empty(t, mr.HGet(attemptsKey, "vid_1"))
}

func TestDispatcherSkipsSettledVideo(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	done := processingVideo("vid_done")
	done.Status = models.VideoStatusCompleted
	videos := newFakeVideos(done)
	d, queue, _ := newTestDispatcher(t, srv.URL, 3, videos)
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, "vid_done"))
	require.NoError(t, queue.Enqueue(ctx, "vid_missing"))

	_, err := d.ProcessNext(ctx)
	require.NoError(t, err)
	_, err = d.ProcessNext(ctx)
	require.NoError(t, err)

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestDispatcherRunStopsOnCancel(t *testing.T) {
	d, _, _ := newTestDispatcher(t, "http://127.0.0.1:0", 3, newFakeVideos())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
