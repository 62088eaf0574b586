// Package generation feeds processing videos to the external generation
// backend. Results come back through the generation callback endpoint.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"ugcads-backend/internal/models"
	"ugcads-backend/internal/services"

	"go.uber.org/zap"
)

// VideoStore is the part of the video service the dispatcher needs.
type VideoStore interface {
	FindVideo(ctx context.Context, videoID string) (*models.Video, error)
	FailVideo(ctx context.Context, videoID, reason string) (*models.Video, error)
}

type Config struct {
	APIURL      string
	APIKey      string
	CallbackURL string
	MaxAttempts int
	Workers     int
	PollTimeout time.Duration
}

type Dispatcher struct {
	cfg    Config
	queue  *Queue
	videos VideoStore
	client *http.Client
	log    *zap.Logger
}

type jobRequest struct {
	VideoID     string            `json:"video_id"`
	PromptData  models.PromptData `json:"prompt_data"`
	CallbackURL string            `json:"callback_url"`
}

// errRejected marks a submission the backend refused outright; retrying will not help.
type errRejected struct {
	status int
	body   string
}

func (e *errRejected) Error() string {
	return fmt.Sprintf("generation backend rejected job: status %d: %s", e.status, e.body)
}

func NewDispatcher(cfg Config, queue *Queue, videos VideoStore, client *http.Client, log *zap.Logger) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{cfg: cfg, queue: queue, videos: videos, client: client, log: log}
}

// Run consumes the queue with cfg.Workers workers until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("Generation dispatcher started", zap.Int("workers", d.cfg.Workers))

	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				if _, err := d.ProcessNext(ctx); err != nil && ctx.Err() == nil {
					d.log.Error("Queue read failed", zap.Error(err))
					select {
					case <-ctx.Done():
					case <-time.After(time.Second):
					}
				}
			}
		}()
	}
	wg.Wait()

	d.log.Info("Generation dispatcher stopped")
}

// ProcessNext waits for one queued video and submits it. It reports whether a
// video was taken off the queue.
func (d *Dispatcher) ProcessNext(ctx context.Context) (bool, error) {
	videoID, err := d.queue.Pop(ctx, d.cfg.PollTimeout)
	if err != nil {
		return false, err
	}
	if videoID == "" {
		return false, nil
	}

	d.handle(ctx, videoID)
	return true, nil
}

func (d *Dispatcher) handle(ctx context.Context, videoID string) {
	log := d.log.With(zap.String("video_id", videoID))

	video, err := d.videos.FindVideo(ctx, videoID)
	if errors.Is(err, services.ErrVideoNotFound) {
		log.Warn("Queued video no longer exists")
		return
	}
	if err != nil {
		log.Error("Failed to load queued video", zap.Error(err))
		d.retry(ctx, videoID, err)
		return
	}
	if video.Status != models.VideoStatusProcessing {
		log.Info("Skipping video that is no longer processing", zap.String("status", string(video.Status)))
		return
	}

	err = d.submit(ctx, video)
	if err == nil {
		if cerr := d.queue.clearAttempts(ctx, videoID); cerr != nil {
			log.Warn("Failed to clear attempt counter", zap.Error(cerr))
		}
		log.Info("Video submitted for generation")
		return
	}

	var rejected *errRejected
	if errors.As(err, &rejected) {
		log.Warn("Generation backend rejected video", zap.Error(err))
		d.fail(ctx, videoID, err.Error())
		return
	}

	log.Warn("Generation submit failed", zap.Error(err))
	d.retry(ctx, videoID, err)
}

// retry requeues the video until it has used cfg.MaxAttempts, then fails it.
func (d *Dispatcher) retry(ctx context.Context, videoID string, cause error) {
	attempts, err := d.queue.attempt(ctx, videoID)
	if err != nil {
		d.log.Error("Failed to count attempt", zap.String("video_id", videoID), zap.Error(err))
	}

	if attempts >= int64(d.cfg.MaxAttempts) {
		d.log.Warn("Video failed permanently", zap.String("video_id", videoID), zap.Int64("attempts", attempts))
		d.fail(ctx, videoID, fmt.Sprintf("generation unavailable after %d attempts: %v", attempts, cause))
		return
	}

	d.log.Info("Retrying video", zap.String("video_id", videoID), zap.Int64("attempt", attempts), zap.Int("max_attempts", d.cfg.MaxAttempts))
	if err := d.queue.Enqueue(ctx, videoID); err != nil {
		d.log.Error("Failed to requeue video", zap.String("video_id", videoID), zap.Error(err))
	}
}

func (d *Dispatcher) fail(ctx context.Context, videoID, reason string) {
	if _, err := d.videos.FailVideo(ctx, videoID, reason); err != nil && !errors.Is(err, services.ErrInvalidTransition) {
		d.log.Error("Failed to mark video failed", zap.String("video_id", videoID), zap.Error(err))
	}
	if err := d.queue.clearAttempts(ctx, videoID); err != nil {
		d.log.Warn("Failed to clear attempt counter", zap.String("video_id", videoID), zap.Error(err))
	}
}

func (d *Dispatcher) submit(ctx context.Context, video *models.Video) error {
	payload, err := json.Marshal(jobRequest{
		VideoID:     video.ID,
		PromptData:  video.PromptData.Data(),
		CallbackURL: d.cfg.CallbackURL,
	})
	if err != nil {
		return &errRejected{body: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return &errRejected{status: resp.StatusCode, body: string(body)}
	default:
		return fmt.Errorf("generation backend returned status %d: %s", resp.StatusCode, body)
	}
}
