package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ugcads-backend/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProfileProvider fetches a user's public profile from the platform.
type ProfileProvider interface {
	GetUser(ctx context.Context, userID string) (*models.Profile, error)
}

type UserService struct {
	db       *gorm.DB
	cache    *redis.Client
	profiles ProfileProvider
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewUserService creates the service. cache and profiles may be nil.
func NewUserService(db *gorm.DB, cache *redis.Client, profiles ProfileProvider, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{db: db, cache: cache, profiles: profiles, cacheTTL: time.Hour, log: log}
}

// EnsureUser creates the user with a zero balance if absent. Concurrent calls
// for the same id create exactly one row.
func (s *UserService) EnsureUser(ctx context.Context, userID, email string) (*models.User, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	db := s.db.WithContext(ctx)
	if err := ensureUser(db, userID, email); err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Where("id = ?", userID).Take(&user).Error; err != nil {
		return nil, err
	}

	if user.Email == "" && email != "" {
		if err := db.Model(&user).Update("email", email).Error; err != nil {
			s.log.Warn("Failed to backfill user email", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return &user, nil
}

func (s *UserService) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Profile returns the user's platform profile, served from cache for up to an
// hour. The email on the local user row is filled in from the profile.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	if s.profiles == nil {
		return &models.Profile{ID: userID}, nil
	}

	cacheKey := fmt.Sprintf("whop:user:%s", userID)
	if s.cache != nil {
		val, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var profile models.Profile
			if err := json.Unmarshal([]byte(val), &profile); err == nil {
				return &profile, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("Profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	profile, err := s.profiles.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	if _, err := s.EnsureUser(ctx, userID, profile.Email); err != nil {
		s.log.Warn("Failed to sync user from profile", zap.String("user_id", userID), zap.Error(err))
	}

	if s.cache != nil {
		if data, err := json.Marshal(profile); err == nil {
			s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}
	return profile, nil
}

// ListUsers pages through users, newest first.
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
