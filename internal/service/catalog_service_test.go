package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/logger"
	"github.com/speechflow/backend/internal/repository"
)

func newCatalogFixture() *CatalogService {
	catalog := repository.NewInMemoryCatalogRepository()

	parentID := int64(1)
	catalog.Categories = []*repository.Category{
		{ID: 1, Slug: "interview", Name: "Interview", SortOrder: 10},
		{ID: 2, ParentID: &parentID, Slug: "interview-behavioral", Name: "Behavioral", SortOrder: 1},
	}
	catalog.Levels = []*repository.Level{
		{ID: 1, Slug: "easy", Name: "Easy", Color: "#4CAF50", SortOrder: 10},
		{ID: 2, Slug: "medium", Name: "Medium", Color: "#FF9800", MinScore: 40, SortOrder: 20},
	}
	catalog.Challenges = []*repository.ChallengeDetail{
		{
			Challenge: repository.Challenge{ID: 1, CategoryID: 2, LevelID: 1, Title: "Tell me about yourself."},
			Category:  catalog.Categories[1],
			Level:     catalog.Levels[0],
		},
		{
			Challenge: repository.Challenge{ID: 2, CategoryID: 2, LevelID: 2, Title: "Describe a challenging situation."},
			Category:  catalog.Categories[1],
			Level:     catalog.Levels[1],
		},
	}

	// nil cache: direct reads
	return NewCatalogService(catalog, nil, logger.NewNop())
}

func TestCatalogListings(t *testing.T) {
	svc := newCatalogFixture()
	ctx := context.Background()

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Nil(t, categories[0].ParentID)
	require.NotNil(t, categories[1].ParentID)
	assert.Equal(t, int64(1), *categories[1].ParentID)

	levels, err := svc.Levels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "#4CAF50", levels[0].Color)
}

func TestChallengesFilteredBySlug(t *testing.T) {
	svc := newCatalogFixture()
	ctx := context.Background()

	all, err := svc.Challenges(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	easy, err := svc.Challenges(ctx, "interview-behavioral", "easy")
	require.NoError(t, err)
	require.Len(t, easy, 1)
	assert.Equal(t, "Tell me about yourself.", easy[0].Title)
}

func TestChallengesUnknownSlug(t *testing.T) {
	svc := newCatalogFixture()
	ctx := context.Background()

	_, err := svc.Challenges(ctx, "no-such-category", "")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)

	_, err = svc.Challenges(ctx, "", "no-such-level")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestChallengeByID(t *testing.T) {
	svc := newCatalogFixture()
	ctx := context.Background()

	challenge, err := svc.Challenge(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, challenge.Level)
	assert.Equal(t, "easy", challenge.Level.Slug)

	_, err = svc.Challenge(ctx, 99)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}
