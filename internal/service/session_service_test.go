package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/repository"
)

func newSessionFixture() (*SessionService, *repository.InMemorySessionRepository) {
	catalog := repository.NewInMemoryCatalogRepository()
	catalog.Challenges = []*repository.ChallengeDetail{
		{
			Challenge: repository.Challenge{ID: 3, CategoryID: 2, LevelID: 1, Title: "Explain how the internet works in two minutes."},
			Category:  &repository.Category{ID: 2, Slug: "presentation-explainer", Name: "Explainer"},
			Level:     &repository.Level{ID: 1, Slug: "easy", Name: "Easy"},
		},
	}
	sessions := repository.NewInMemorySessionRepository(catalog)
	return NewSessionService(sessions, catalog), sessions
}

func TestStartSessionAutoName(t *testing.T) {
	svc, _ := newSessionFixture()
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)
	}

	detail, err := svc.Start(context.Background(), 7, StartSessionReq{ChallengeID: 3})
	require.NoError(t, err)

	assert.Equal(t, "Explain how the internet works in two minutes. Practice - Mar 05, 2026 02:30 PM", detail.Name)
	assert.Equal(t, repository.StatusStarted, detail.Status)
	require.NotNil(t, detail.Challenge)
	assert.Equal(t, int64(3), detail.Challenge.ID)
}

func TestStartSessionExplicitName(t *testing.T) {
	svc, _ := newSessionFixture()

	detail, err := svc.Start(context.Background(), 7, StartSessionReq{ChallengeID: 3, Name: "Morning warm-up"})
	require.NoError(t, err)
	assert.Equal(t, "Morning warm-up", detail.Name)
}

func TestStartSessionUnknownChallenge(t *testing.T) {
	svc, _ := newSessionFixture()

	_, err := svc.Start(context.Background(), 7, StartSessionReq{ChallengeID: 99})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestListSessionsScopedToUser(t *testing.T) {
	svc, _ := newSessionFixture()

	_, err := svc.Start(context.Background(), 7, StartSessionReq{ChallengeID: 3, Name: "mine"})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), 8, StartSessionReq{ChallengeID: 3, Name: "theirs"})
	require.NoError(t, err)

	mine, err := svc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Name)
}

func TestGetSessionOwnership(t *testing.T) {
	svc, _ := newSessionFixture()

	detail, err := svc.Start(context.Background(), 7, StartSessionReq{ChallengeID: 3})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), 7, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.ID, got.ID)

	_, err = svc.Get(context.Background(), 8, detail.ID)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	_, err = svc.Get(context.Background(), 7, 999)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}
