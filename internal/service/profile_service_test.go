package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"

	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/logger"
	"github.com/speechflow/backend/internal/repository"
)

func newProfileFixture(t *testing.T) (*ProfileService, *repository.InMemoryUserRepository, *repository.InMemorySessionRepository, *repository.User) {
	t.Helper()

	users := repository.NewInMemoryUserRepository()
	sessions := repository.NewInMemorySessionRepository(nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &repository.User{Email: "ana@example.com", PasswordHash: string(hash), Name: "Ana"}
	require.NoError(t, users.Create(context.Background(), user))

	svc := NewProfileService(users, sessions, nil, logger.NewNop())
	return svc, users, sessions, user
}

func finalizeSession(t *testing.T, sessions *repository.InMemorySessionRepository, userID int64, score float64) {
	t.Helper()
	s := &repository.PracticeSession{UserID: userID, ChallengeID: 1}
	require.NoError(t, sessions.Create(context.Background(), s))
	_, err := sessions.Finalize(context.Background(), s.ID, repository.StatusProcessed, &repository.PracticeResult{Score: score})
	require.NoError(t, err)
}

func TestProfileAchievements(t *testing.T) {
	svc, _, sessions, user := newProfileFixture(t)
	ctx := context.Background()

	profile, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, profile.Achievements.FirstSession)
	assert.Equal(t, 0, profile.Statistics.Sessions)

	finalizeSession(t, sessions, user.ID, 85)

	profile, err = svc.Get(ctx, user)
	require.NoError(t, err)
	assert.True(t, profile.Achievements.FirstSession)
	assert.False(t, profile.Achievements.FiveSessions)
	assert.Equal(t, 85.0, profile.Statistics.AverageScore)

	for i := 0; i < 4; i++ {
		finalizeSession(t, sessions, user.ID, 70)
	}

	profile, err = svc.Get(ctx, user)
	require.NoError(t, err)
	assert.True(t, profile.Achievements.FiveSessions)
	assert.False(t, profile.Achievements.TenSessions)
	// 85 + 4x70 = 73.0 average
	assert.Equal(t, 73.0, profile.Statistics.AverageScore)
}

func TestProfileUpdateFields(t *testing.T) {
	svc, users, _, user := newProfileFixture(t)
	ctx := context.Background()

	name := "Ana Lucia"
	bio := "Practicing daily"
	updated, err := svc.Update(ctx, user, UpdateProfileReq{
		Name:          &name,
		Bio:           &bio,
		SpeakingGoals: []byte(`["reduce fillers"]`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lucia", updated.Name)
	assert.Equal(t, "Practicing daily", updated.Bio)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lucia", stored.Name)
	assert.JSONEq(t, `["reduce fillers"]`, string(stored.SpeakingGoals))
	// Untouched fields survive a partial update.
	assert.Equal(t, "ana@example.com", stored.Email)
}

func TestProfileUpdatePictureWithoutStorage(t *testing.T) {
	svc, _, _, user := newProfileFixture(t)

	_, err := svc.Update(context.Background(), user, UpdateProfileReq{
		PictureData:     []byte("png-bytes"),
		PictureFilename: "avatar.png",
	})
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrStorageService, appErr.Code)
}

func TestShareSummary(t *testing.T) {
	svc, _, sessions, user := newProfileFixture(t)
	ctx := context.Background()

	finalizeSession(t, sessions, user.ID, 78)

	summary, err := svc.ShareSummary(ctx, user)
	require.NoError(t, err)
	assert.Contains(t, summary, "Ana's SpeechFlow Progress:")
	assert.Contains(t, summary, "Sessions: 1")
	assert.Contains(t, summary, "Avg Score: 78.0")
}

func TestDeleteAccount(t *testing.T) {
	svc, users, _, user := newProfileFixture(t)
	ctx := context.Background()

	err := svc.DeleteAccount(ctx, user, "wrong")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)

	require.NoError(t, svc.DeleteAccount(ctx, user, "correct-horse"))

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteGuestAccountSkipsPassword(t *testing.T) {
	svc, users, _, _ := newProfileFixture(t)
	ctx := context.Background()

	guest := &repository.User{Email: "guest@guest.speechflow.local", IsGuest: true}
	require.NoError(t, users.Create(ctx, guest))

	require.NoError(t, svc.DeleteAccount(ctx, guest, ""))

	stored, err := users.GetByID(ctx, guest.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestStorageKeyFromURL(t *testing.T) {
	assert.Equal(t, "profile_pictures/7/a.png", storageKeyFromURL("https://cdn.example.com/profile_pictures/7/a.png", "https://cdn.example.com"))
	assert.Equal(t, "", storageKeyFromURL("https://other.example.com/a.png", "https://cdn.example.com"))
	assert.Equal(t, "", storageKeyFromURL("https://cdn.example.com/a.png", ""))
}
