package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/speechflow/backend/internal/client"
	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/repository"
)

// Achievements are derived on the fly from session statistics.
type Achievements struct {
	FirstSession bool `json:"first_session"`
	FiveSessions bool `json:"five_sessions"`
	TenSessions  bool `json:"ten_sessions"`
	ProSpeaker   bool `json:"pro_speaker"`
}

// Profile is the full profile view: account, statistics, achievements.
type Profile struct {
	User         *repository.User      `json:"user"`
	Statistics   *repository.UserStats `json:"statistics"`
	Achievements Achievements          `json:"achievements"`
}

// ProfileService handles profile reads, updates, and account deletion.
type ProfileService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	storage  *client.StorageClient
	log      zerolog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	storage *client.StorageClient,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		users:    users,
		sessions: sessions,
		storage:  storage,
		log:      log,
	}
}

// Get assembles the profile with statistics and achievements.
func (s *ProfileService) Get(ctx context.Context, user *repository.User) (*Profile, error) {
	stats, err := s.sessions.StatsByUser(ctx, user.ID)
	if err != nil {
		return nil, errors.InternalWrap("failed to aggregate statistics", err)
	}
	stats.AverageScore = math.Round(stats.AverageScore*10) / 10

	return &Profile{
		User:       user,
		Statistics: stats,
		Achievements: Achievements{
			FirstSession: stats.Sessions >= 1,
			FiveSessions: stats.Sessions >= 5,
			TenSessions:  stats.Sessions >= 10,
			ProSpeaker:   stats.AverageScore >= 80 && stats.Sessions >= 20,
		},
	}, nil
}

// UpdateProfileReq carries the mutable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateProfileReq struct {
	Name                    *string
	Bio                     *string
	SpeakingGoals           json.RawMessage
	NotificationPreferences json.RawMessage
	PictureData             []byte
	PictureFilename         string
}

// Update applies the request to the user, uploading a new profile picture to
// object storage when one is attached.
func (s *ProfileService) Update(ctx context.Context, user *repository.User, req UpdateProfileReq) (*repository.User, error) {
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.SpeakingGoals != nil {
		user.SpeakingGoals = req.SpeakingGoals
	}
	if req.NotificationPreferences != nil {
		user.NotificationPreferences = req.NotificationPreferences
	}

	if len(req.PictureData) > 0 {
		if s.storage == nil {
			return nil, errors.New(errors.ErrStorageService, "object storage not configured")
		}

		key := fmt.Sprintf("profile_pictures/%d/%s%s", user.ID, uuid.New().String(), filepath.Ext(req.PictureFilename))
		url, err := s.storage.Upload(ctx, key, req.PictureData, pictureContentType(req.PictureFilename))
		if err != nil {
			return nil, errors.Wrap(errors.ErrStorageService, "failed to upload profile picture", err)
		}

		// Old picture cleanup is best effort.
		if user.ProfilePicture != "" {
			if oldKey := storageKeyFromURL(user.ProfilePicture, s.storage.PublicURL()); oldKey != "" {
				if err := s.storage.Delete(ctx, oldKey); err != nil {
					s.log.Warn().Err(err).Str("key", oldKey).Msg("Failed to delete old profile picture")
				}
			}
		}

		user.ProfilePicture = url
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, errors.InternalWrap("failed to update profile", err)
	}
	return user, nil
}

// History returns all of the user's sessions with challenge and result.
func (s *ProfileService) History(ctx context.Context, userID int64) ([]*repository.SessionDetail, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.InternalWrap("failed to load practice history", err)
	}
	return sessions, nil
}

// ShareSummary renders a plain-text progress summary.
func (s *ProfileService) ShareSummary(ctx context.Context, user *repository.User) (string, error) {
	stats, err := s.sessions.StatsByUser(ctx, user.ID)
	if err != nil {
		return "", errors.InternalWrap("failed to aggregate statistics", err)
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}

	return fmt.Sprintf(
		"%s's SpeechFlow Progress:\nSessions: %d\nTotal Minutes: %d\nAvg Score: %.1f",
		name, stats.Sessions, stats.Minutes, stats.AverageScore,
	), nil
}

// DeleteAccount verifies the password and removes the user; sessions and
// results cascade in the store.
func (s *ProfileService) DeleteAccount(ctx context.Context, user *repository.User, password string) error {
	if !user.IsGuest {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return errors.Unauthorized("invalid password")
		}
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return errors.InternalWrap("failed to delete account", err)
	}
	return nil
}

func pictureContentType(filename string) string {
	switch filepath.Ext(filename) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func storageKeyFromURL(url, publicURL string) string {
	if publicURL == "" || len(url) <= len(publicURL)+1 {
		return ""
	}
	if url[:len(publicURL)] != publicURL {
		return ""
	}
	return url[len(publicURL)+1:]
}
