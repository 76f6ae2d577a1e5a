package service

import (
	"context"
	"fmt"
	"time"

	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/repository"
)

const sessionNameTimeFormat = "Jan 02, 2006 03:04 PM"

// SessionService handles practice session lifecycle outside of recording
// intake: starting, listing, and showing sessions.
type SessionService struct {
	sessions repository.SessionRepository
	catalog  repository.CatalogRepository
	now      func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions repository.SessionRepository, catalog repository.CatalogRepository) *SessionService {
	return &SessionService{
		sessions: sessions,
		catalog:  catalog,
		now:      time.Now,
	}
}

// StartSessionReq is the request to begin a practice session.
type StartSessionReq struct {
	ChallengeID int64  `json:"challenge_id"`
	Name        string `json:"name"`
}

// Start creates a session for the challenge. When no name is given it is
// derived from the challenge title and the current time.
func (s *SessionService) Start(ctx context.Context, userID int64, req StartSessionReq) (*repository.SessionDetail, error) {
	challenge, err := s.catalog.GetChallenge(ctx, req.ChallengeID)
	if err != nil {
		return nil, errors.InternalWrap("failed to load challenge", err)
	}
	if challenge == nil {
		return nil, errors.NotFound("challenge")
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s Practice - %s", challenge.Title, s.now().Format(sessionNameTimeFormat))
	}

	session := &repository.PracticeSession{
		UserID:      userID,
		ChallengeID: req.ChallengeID,
		Name:        name,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.InternalWrap("failed to create practice session", err)
	}

	return &repository.SessionDetail{
		PracticeSession: *session,
		Challenge:       challenge,
	}, nil
}

// List returns the user's sessions, newest first.
func (s *SessionService) List(ctx context.Context, userID int64) ([]*repository.SessionDetail, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.InternalWrap("failed to list practice sessions", err)
	}
	return sessions, nil
}

// Get returns one of the user's sessions with challenge and result loaded.
func (s *SessionService) Get(ctx context.Context, userID, sessionID int64) (*repository.SessionDetail, error) {
	detail, err := s.sessions.GetDetail(ctx, sessionID)
	if err != nil {
		return nil, errors.InternalWrap("failed to load practice session", err)
	}
	if detail == nil {
		return nil, errors.NotFound("practice session")
	}
	if detail.UserID != userID {
		return nil, errors.Forbidden("practice session does not belong to the authenticated user")
	}
	return detail, nil
}
