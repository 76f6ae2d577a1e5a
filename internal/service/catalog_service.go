package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/speechflow/backend/internal/client"
	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/repository"
)

const (
	catalogCacheTTL        = 5 * time.Minute
	categoriesCacheKey     = "catalog:categories"
	levelsCacheKey         = "catalog:levels"
	challengesCacheKeyBase = "catalog:challenges"
)

// CatalogService serves the read-only challenge catalog with a Redis
// read-through cache. The cache is optional; a nil Redis client degrades to
// direct reads.
type CatalogService struct {
	catalog repository.CatalogRepository
	cache   *client.RedisClient
	log     zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog repository.CatalogRepository, cache *client.RedisClient, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		cache:   cache,
		log:     log,
	}
}

// Categories returns all categories in display order.
func (s *CatalogService) Categories(ctx context.Context) ([]*repository.Category, error) {
	if s.cache != nil {
		var cached []*repository.Category
		if err := s.cache.GetJSON(ctx, categoriesCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, errors.InternalWrap("failed to list categories", err)
	}

	s.cacheSet(ctx, categoriesCacheKey, categories)
	return categories, nil
}

// Levels returns all levels in display order.
func (s *CatalogService) Levels(ctx context.Context) ([]*repository.Level, error) {
	if s.cache != nil {
		var cached []*repository.Level
		if err := s.cache.GetJSON(ctx, levelsCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	levels, err := s.catalog.ListLevels(ctx)
	if err != nil {
		return nil, errors.InternalWrap("failed to list levels", err)
	}

	s.cacheSet(ctx, levelsCacheKey, levels)
	return levels, nil
}

// Challenges lists challenges, optionally filtered by category and level
// slug. Unknown slugs are a NotFound.
func (s *CatalogService) Challenges(ctx context.Context, categorySlug, levelSlug string) ([]*repository.ChallengeDetail, error) {
	var filter repository.ChallengeFilter

	if categorySlug != "" {
		category, err := s.catalog.GetCategoryBySlug(ctx, categorySlug)
		if err != nil {
			return nil, errors.InternalWrap("failed to resolve category", err)
		}
		if category == nil {
			return nil, errors.NotFound("category")
		}
		filter.CategoryID = &category.ID
	}

	if levelSlug != "" {
		level, err := s.catalog.GetLevelBySlug(ctx, levelSlug)
		if err != nil {
			return nil, errors.InternalWrap("failed to resolve level", err)
		}
		if level == nil {
			return nil, errors.NotFound("level")
		}
		filter.LevelID = &level.ID
	}

	cacheKey := challengesCacheKeyBase + ":" + categorySlug + ":" + levelSlug
	if s.cache != nil {
		var cached []*repository.ChallengeDetail
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	challenges, err := s.catalog.ListChallenges(ctx, filter)
	if err != nil {
		return nil, errors.InternalWrap("failed to list challenges", err)
	}

	s.cacheSet(ctx, cacheKey, challenges)
	return challenges, nil
}

// Challenge returns one challenge with its category and level.
func (s *CatalogService) Challenge(ctx context.Context, id int64) (*repository.ChallengeDetail, error) {
	challenge, err := s.catalog.GetChallenge(ctx, id)
	if err != nil {
		return nil, errors.InternalWrap("failed to load challenge", err)
	}
	if challenge == nil {
		return nil, errors.NotFound("challenge")
	}
	return challenge, nil
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, catalogCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache catalog entry")
	}
}
