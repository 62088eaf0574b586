package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ugcads-backend/internal/models"
	"ugcads-backend/internal/storage"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobQueue hands processing videos to the generation backend.
type JobQueue interface {
	Enqueue(ctx context.Context, videoID string) error
}

// Notifier pushes events to a user's open connections.
type Notifier interface {
	Notify(userID string, event interface{})
}

// VideoEvent is pushed to the owner whenever one of their videos changes.
type VideoEvent struct {
	Type  string        `json:"type"`
	Video *models.Video `json:"video"`
}

const (
	EventVideoCreated   = "video.created"
	EventVideoCompleted = "video.completed"
	EventVideoFailed    = "video.failed"
)

// VideoDeps are the collaborators of VideoService. Queue and Notifier are optional.
type VideoDeps struct {
	DB       *gorm.DB
	Ledger   *Ledger
	Storage  storage.Storage
	Queue    JobQueue
	Notifier Notifier
	Pricing  Pricing
	Logger   *zap.Logger
}

// VideoService runs the spend flow: tokens are debited before any work is
// recorded, and refunded when a later step fails.
type VideoService struct {
	db       *gorm.DB
	ledger   *Ledger
	storage  storage.Storage
	queue    JobQueue
	notifier Notifier
	pricing  Pricing
	log      *zap.Logger
	now      func() time.Time
}

func NewVideoService(deps VideoDeps) *VideoService {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &VideoService{
		db:       deps.DB,
		ledger:   deps.Ledger,
		storage:  deps.Storage,
		queue:    deps.Queue,
		notifier: deps.Notifier,
		pricing:  deps.Pricing,
		log:      log,
		now:      time.Now,
	}
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CreateVideo charges the generation cost of prompt and opens a job for it.
func (s *VideoService) CreateVideo(ctx context.Context, userID string, prompt models.PromptData) (*models.Video, error) {
	return s.CreateJob(ctx, userID, prompt, s.pricing.GenerationCost(prompt))
}

// CreateJob debits cost and records a processing video. If the record cannot
// be written or queued the cost is refunded and ErrJobCreationFailed returned.
func (s *VideoService) CreateJob(ctx context.Context, userID string, prompt models.PromptData, cost int64) (*models.Video, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if cost <= 0 {
		return nil, ErrInvalidAmount
	}

	if err := s.charge(ctx, userID, cost); err != nil {
		return nil, err
	}

	video := &models.Video{
		UserID:     userID,
		PromptData: datatypes.NewJSONType(prompt),
		Status:     models.VideoStatusProcessing,
		Source:     models.VideoSourceGenerated,
		Cost:       cost,
	}
	if err := s.db.WithContext(ctx).Create(video).Error; err != nil {
		s.log.Error("Failed to insert video job", zap.String("user_id", userID), zap.Error(err))
		s.refund(ctx, userID, cost)
		return nil, fmt.Errorf("%w: %v", ErrJobCreationFailed, err)
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, video.ID); err != nil {
			s.log.Error("Failed to enqueue video job", zap.String("video_id", video.ID), zap.Error(err))
			if _, ferr := s.FailVideo(context.WithoutCancel(ctx), video.ID, "could not queue generation"); ferr != nil {
				s.log.Error("Failed to fail unqueued video", zap.String("video_id", video.ID), zap.Error(ferr))
			}
			return nil, fmt.Errorf("%w: %v", ErrJobCreationFailed, err)
		}
	}

	s.log.Info("Video job created", zap.String("video_id", video.ID), zap.String("user_id", userID), zap.Int64("cost", cost))
	s.notify(EventVideoCreated, video)
	return video, nil
}

// UploadVideo charges the upload cost, stores the file and records a completed
// video. Failures undo the earlier steps in reverse order.
func (s *VideoService) UploadVideo(ctx context.Context, userID string, file Upload, prompt models.PromptData) (*models.Video, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	cost := s.pricing.UploadCost

	if cost > 0 {
		if err := s.charge(ctx, userID, cost); err != nil {
			return nil, err
		}
	}

	key := fmt.Sprintf("%s/%d-%s", userID, s.now().UnixMilli(), storage.SafeFilename(file.Filename))
	url, err := s.storage.Upload(ctx, key, file.Body, file.Size, file.ContentType)
	if err != nil {
		s.log.Error("Failed to store uploaded video", zap.String("key", key), zap.Error(err))
		s.refund(ctx, userID, cost)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	video := &models.Video{
		UserID:     userID,
		PromptData: datatypes.NewJSONType(prompt),
		VideoURL:   url,
		Status:     models.VideoStatusCompleted,
		Source:     models.VideoSourceUpload,
		Cost:       cost,
	}
	if err := s.db.WithContext(ctx).Create(video).Error; err != nil {
		s.log.Error("Failed to insert uploaded video", zap.String("user_id", userID), zap.Error(err))
		if derr := s.storage.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.log.Error("Failed to remove orphaned upload", zap.String("key", key), zap.Error(derr))
		}
		s.refund(ctx, userID, cost)
		return nil, fmt.Errorf("%w: %v", ErrJobCreationFailed, err)
	}

	s.log.Info("Video uploaded", zap.String("video_id", video.ID), zap.String("user_id", userID))
	s.notify(EventVideoCompleted, video)
	return video, nil
}

// UploadImage stores a reference image, such as a product shot, free of charge.
func (s *VideoService) UploadImage(ctx context.Context, userID string, file Upload) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}

	key := fmt.Sprintf("%s/images/%d-%s", userID, s.now().UnixMilli(), storage.SafeFilename(file.Filename))
	url, err := s.storage.Upload(ctx, key, file.Body, file.Size, file.ContentType)
	if err != nil {
		s.log.Error("Failed to store image", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	return url, nil
}

// GetVideo returns the video only if userID owns it.
func (s *VideoService) GetVideo(ctx context.Context, userID, videoID string) (*models.Video, error) {
	var video models.Video
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", videoID, userID).Take(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// FindVideo loads a video regardless of owner.
func (s *VideoService) FindVideo(ctx context.Context, videoID string) (*models.Video, error) {
	var video models.Video
	err := s.db.WithContext(ctx).Where("id = ?", videoID).Take(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// ListVideos returns the user's videos, newest first.
func (s *VideoService) ListVideos(ctx context.Context, userID string, status models.VideoStatus, page, pageSize int) ([]models.Video, int64, error) {
	if userID == "" {
		return nil, 0, ErrUnauthenticated
	}
	page, pageSize = NormalizePage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&models.Video{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []models.Video
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&videos).Error
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// CompleteVideo moves a processing video to completed with its result URL.
func (s *VideoService) CompleteVideo(ctx context.Context, videoID, videoURL string) (*models.Video, error) {
	if videoURL == "" {
		return nil, errors.New("video url is required")
	}

	res := s.db.WithContext(ctx).Model(&models.Video{}).
		Where("id = ? AND status = ?", videoID, models.VideoStatusProcessing).
		Updates(map[string]interface{}{
			"status":        models.VideoStatusCompleted,
			"video_url":     videoURL,
			"error_message": "",
			"updated_at":    s.now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.transitionError(ctx, videoID)
	}

	video, err := s.FindVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Video completed", zap.String("video_id", videoID))
	s.notify(EventVideoCompleted, video)
	return video, nil
}

// FailVideo marks a processing video failed and refunds its cost. The status
// change and the refund commit together, so a video is refunded at most once.
func (s *VideoService) FailVideo(ctx context.Context, videoID, reason string) (*models.Video, error) {
	video, err := s.FindVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.Status != models.VideoStatusProcessing {
		return nil, ErrInvalidTransition
	}

	err = s.ledger.Compensate(ctx, video.UserID, func(t *LedgerTx) error {
		res := t.DB().Model(&models.Video{}).
			Where("id = ? AND status = ?", videoID, models.VideoStatusProcessing).
			Updates(map[string]interface{}{
				"status":        models.VideoStatusFailed,
				"error_message": reason,
				"updated_at":    s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		if video.Cost > 0 {
			_, err := t.Credit(video.Cost)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	video.Status = models.VideoStatusFailed
	video.ErrorMessage = reason
	s.log.Warn("Video failed and refunded",
		zap.String("video_id", videoID),
		zap.String("user_id", video.UserID),
		zap.Int64("refund", video.Cost),
		zap.String("reason", reason),
	)
	s.notify(EventVideoFailed, video)
	return video, nil
}

func (s *VideoService) transitionError(ctx context.Context, videoID string) error {
	if _, err := s.FindVideo(ctx, videoID); err != nil {
		return err
	}
	return ErrInvalidTransition
}

// charge debits cost, reporting a shortfall as *InsufficientBalanceError.
func (s *VideoService) charge(ctx context.Context, userID string, cost int64) error {
	balance, err := s.ledger.Debit(ctx, userID, cost)
	if errors.Is(err, ErrInsufficientBalance) {
		return &InsufficientBalanceError{Required: cost, Balance: balance}
	}
	return err
}

// refund returns tokens after a failed spend. It ignores cancellation of ctx.
func (s *VideoService) refund(ctx context.Context, userID string, amount int64) {
	if amount <= 0 {
		return
	}
	if _, err := s.ledger.Refund(context.WithoutCancel(ctx), userID, amount); err != nil {
		s.log.Error("Refund failed", zap.String("user_id", userID), zap.Int64("amount", amount), zap.Error(err))
	}
}

func (s *VideoService) notify(eventType string, video *models.Video) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(video.UserID, VideoEvent{Type: eventType, Video: video})
}
