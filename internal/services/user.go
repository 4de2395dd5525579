package services

import (
	"context"
	"errors"
	"time"

	"jeeforces/internal/logger"
	"jeeforces/internal/models"
	"jeeforces/internal/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	userCountCacheKey = "users:count"
	profileCacheTTL   = 5 * time.Minute
	countCacheTTL     = time.Minute
)

func profileCacheKey(username string) string {
	return "users:profile:" + username
}

// UserService serves profile reads through a read-through cache. Cache failures
// are logged and fall back to the store.
type UserService struct {
	users repositories.UserRepository
	cache Cache
}

func NewUserService(users repositories.UserRepository, cache Cache) *UserService {
	return &UserService{users: users, cache: cache}
}

func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.cache.Get(ctx, userCountCacheKey, &count); err == nil {
		return count, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		logger.Log.Warn("User count cache read failed", zap.Error(err))
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, userCountCacheKey, count, countCacheTTL); err != nil {
		logger.Log.Warn("User count cache write failed", zap.Error(err))
	}
	return count, nil
}

func (s *UserService) PublicProfile(ctx context.Context, username string) (*models.PublicProfile, error) {
	key := profileCacheKey(username)

	var profile models.PublicProfile
	if err := s.cache.Get(ctx, key, &profile); err == nil {
		return &profile, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		logger.Log.Warn("Profile cache read failed", zap.String("username", username), zap.Error(err))
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	profile = user.Public()
	if err := s.cache.Set(ctx, key, profile, profileCacheTTL); err != nil {
		logger.Log.Warn("Profile cache write failed", zap.String("username", username), zap.Error(err))
	}
	return &profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, req *models.UpdateProfileRequest) (*models.User, error) {
	before, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.Invalidate(ctx, before.Username, user.Username)
	return user, nil
}

// Invalidate drops the cached public profiles for the given usernames.
func (s *UserService) Invalidate(ctx context.Context, usernames ...string) {
	keys := make([]string, 0, len(usernames))
	for _, name := range usernames {
		keys = append(keys, profileCacheKey(name))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("Profile cache delete failed", zap.Strings("usernames", usernames), zap.Error(err))
	}
}
