package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/internal/models"
	"messenger-bot-demo/backend/internal/repository"
	"messenger-bot-demo/backend/pkg/logger"

	"gorm.io/gorm"
)

// ProfileFetcher looks up a user's public profile on the platform
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID string) (*messenger.Profile, error)
}

// ProfileCache is the subset of the redis client the directory uses. A nil
// cache disables caching.
type ProfileCache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
}

// Directory provides get-or-create access to bot users. Creation enriches the
// row best-effort from the platform profile API; enrichment failures leave
// the profile fields blank and never abort creation.
type Directory struct {
	repo     repository.UserRepository
	profiles ProfileFetcher
	cache    ProfileCache
	cacheTTL time.Duration
	log      *logger.Logger
}

func NewDirectory(repo repository.UserRepository, profiles ProfileFetcher, cache ProfileCache, cacheTTL time.Duration, log *logger.Logger) *Directory {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Directory{
		repo:     repo,
		profiles: profiles,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func cacheKey(id string) string {
	return fmt.Sprintf("botuser:%s", id)
}

// Get returns the user for the given sender id, or nil when no row exists.
// Pure lookup, no side effect.
func (d *Directory) Get(id string) (*models.BotUser, error) {
	// Try cache first
	if d.cache != nil {
		if cached, err := d.cache.Get(cacheKey(id)); err == nil && cached != "" {
			var user models.BotUser
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
		}
	}

	user, err := d.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	d.cachePut(user)
	return user, nil
}

// GetOrCreate returns the existing user or creates one. Two concurrent
// creations for the same id race on the primary key constraint; the loser
// re-fetches the winner's row instead of erroring.
func (d *Directory) GetOrCreate(ctx context.Context, id string) (*models.BotUser, error) {
	user, err := d.Get(id)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.BotUser{ID: id}
	d.enrich(ctx, user)

	if err := d.repo.Create(user); err != nil {
		// Insert conflict means someone else created it first
		existing, getErr := d.repo.GetByID(id)
		if getErr != nil {
			return nil, err
		}
		user = existing
	}

	d.cachePut(user)
	return user, nil
}

// enrich fills profile fields from the platform, best-effort
func (d *Directory) enrich(ctx context.Context, user *models.BotUser) {
	profile, err := d.profiles.FetchProfile(ctx, user.ID)
	if err != nil {
		d.log.Warn("profile lookup failed, creating user with blank profile",
			"user_id", user.ID,
			"error", err.Error(),
		)
		return
	}
	if profile == nil {
		return
	}

	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.ProfilePic = profile.ProfilePic
	user.Gender = profile.Gender
	user.Locale = profile.Locale
	user.Timezone = profile.Timezone
}

func (d *Directory) cachePut(user *models.BotUser) {
	if d.cache == nil || user == nil {
		return
	}
	if data, err := json.Marshal(user); err == nil {
		_ = d.cache.Set(cacheKey(user.ID), data, d.cacheTTL)
	}
}
