package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/speechflow/backend/internal/client"
)

// Practice session statuses. A session is created as StatusStarted and moves
// to StatusProcessed or StatusFailed exactly once, when a recording is
// submitted. CompletedAt is set iff the status is one of the latter two.
const (
	StatusStarted   = "started"
	StatusRecorded  = "recorded"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// PracticeSession is a single practice attempt by a user against a challenge.
type PracticeSession struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"-"`
	ChallengeID int64      `json:"-"`
	Name        string     `json:"name"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Status      string     `json:"status"`
}

// Finalized reports whether the session already went through analysis.
func (s *PracticeSession) Finalized() bool {
	return s.Status == StatusProcessed || s.Status == StatusFailed
}

// PracticeResult is the one-to-one analysis outcome attached to a session.
type PracticeResult struct {
	ID                int64           `json:"id"`
	PracticeSessionID int64           `json:"-"`
	Transcription     string          `json:"transcription"`
	Feedback          string          `json:"feedback"`
	ImprovedText      *string         `json:"improved_text"`
	Score             float64         `json:"score"`
	Metadata          json.RawMessage `json:"metadata"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SessionDetail is a session with its challenge tree and result resolved,
// the shape returned to clients.
type SessionDetail struct {
	PracticeSession
	Challenge *ChallengeDetail `json:"challenge,omitempty"`
	Result    *PracticeResult  `json:"result,omitempty"`
}

// UserStats aggregates a user's practice history for the profile view.
type UserStats struct {
	Sessions     int     `json:"sessions"`
	Minutes      int     `json:"minutes"`
	AverageScore float64 `json:"avg_score"`
}

// SessionRepository provides access to practice sessions and their results.
type SessionRepository interface {
	Create(ctx context.Context, session *PracticeSession) error
	GetByID(ctx context.Context, id int64) (*PracticeSession, error)
	GetDetail(ctx context.Context, id int64) (*SessionDetail, error)
	ListByUser(ctx context.Context, userID int64) ([]*SessionDetail, error)
	GetResult(ctx context.Context, sessionID int64) (*PracticeResult, error)
	// Finalize inserts the result and flips the session to status with
	// completed_at = now, as a single atomic unit. Populates result.ID and
	// result.CreatedAt, and returns the completion timestamp.
	Finalize(ctx context.Context, sessionID int64, status string, result *PracticeResult) (time.Time, error)
	StatsByUser(ctx context.Context, userID int64) (*UserStats, error)
}

// PostgresSessionRepository implements SessionRepository with PostgreSQL.
type PostgresSessionRepository struct {
	db *client.PostgresClient
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository.
func NewPostgresSessionRepository(db *client.PostgresClient) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Create inserts a new practice session.
func (r *PostgresSessionRepository) Create(ctx context.Context, session *PracticeSession) error {
	query := `
		INSERT INTO practice_sessions (user_id, challenge_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, started_at, status
	`

	err := r.db.Pool.QueryRow(ctx, query,
		session.UserID,
		session.ChallengeID,
		session.Name,
	).Scan(&session.ID, &session.StartedAt, &session.Status)

	if err != nil {
		return fmt.Errorf("failed to create practice session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by id. Returns nil when absent.
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id int64) (*PracticeSession, error) {
	query := `
		SELECT id, user_id, challenge_id, name, started_at, completed_at, status
		FROM practice_sessions
		WHERE id = $1
	`

	var s PracticeSession
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.ChallengeID, &s.Name, &s.StartedAt, &s.CompletedAt, &s.Status,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get practice session: %w", err)
	}
	return &s, nil
}

const sessionDetailQuery = `
	SELECT s.id, s.user_id, s.challenge_id, s.name, s.started_at, s.completed_at, s.status,
		ch.id, ch.category_id, ch.level_id, ch.title, ch.suggested_time_minutes,
		ch.hints_available, ch.tips,
		c.id, c.parent_id, c.slug, c.name, c.description, c.icon, c.sort_order,
		l.id, l.slug, l.name, l.description, l.color, l.min_score, l.sort_order,
		pr.id, pr.transcription, pr.feedback, pr.improved_text, pr.score, pr.metadata, pr.created_at
	FROM practice_sessions s
	JOIN challenges ch ON ch.id = s.challenge_id
	JOIN categories c ON c.id = ch.category_id
	JOIN levels l ON l.id = ch.level_id
	LEFT JOIN practice_results pr ON pr.practice_session_id = s.id
`

func scanSessionDetail(row pgx.Row) (*SessionDetail, error) {
	var (
		d  SessionDetail
		ch ChallengeDetail
		c  Category
		l  Level

		resultID      *int64
		transcription *string
		feedback      *string
		improvedText  *string
		score         *float64
		metadata      json.RawMessage
		createdAt     *time.Time
	)

	err := row.Scan(
		&d.ID, &d.UserID, &d.ChallengeID, &d.Name, &d.StartedAt, &d.CompletedAt, &d.Status,
		&ch.ID, &ch.CategoryID, &ch.LevelID, &ch.Title, &ch.SuggestedTimeMinutes,
		&ch.HintsAvailable, &ch.Tips,
		&c.ID, &c.ParentID, &c.Slug, &c.Name, &c.Description, &c.Icon, &c.SortOrder,
		&l.ID, &l.Slug, &l.Name, &l.Description, &l.Color, &l.MinScore, &l.SortOrder,
		&resultID, &transcription, &feedback, &improvedText, &score, &metadata, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	ch.Category = &c
	ch.Level = &l
	d.Challenge = &ch

	if resultID != nil {
		result := &PracticeResult{
			ID:                *resultID,
			PracticeSessionID: d.ID,
			ImprovedText:      improvedText,
			Metadata:          metadata,
		}
		if transcription != nil {
			result.Transcription = *transcription
		}
		if feedback != nil {
			result.Feedback = *feedback
		}
		if score != nil {
			result.Score = *score
		}
		if createdAt != nil {
			result.CreatedAt = *createdAt
		}
		d.Result = result
	}

	return &d, nil
}

// GetDetail retrieves a session with its challenge, category, level, and
// result eagerly loaded. Returns nil when absent.
func (r *PostgresSessionRepository) GetDetail(ctx context.Context, id int64) (*SessionDetail, error) {
	d, err := scanSessionDetail(r.db.Pool.QueryRow(ctx, sessionDetailQuery+" WHERE s.id = $1", id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session detail: %w", err)
	}
	return d, nil
}

// ListByUser returns the user's sessions, newest first, with challenge and
// result resolved.
func (r *PostgresSessionRepository) ListByUser(ctx context.Context, userID int64) ([]*SessionDetail, error) {
	rows, err := r.db.Pool.Query(ctx, sessionDetailQuery+" WHERE s.user_id = $1 ORDER BY s.started_at DESC, s.id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*SessionDetail
	for rows.Next() {
		d, err := scanSessionDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session detail: %w", err)
		}
		sessions = append(sessions, d)
	}
	return sessions, rows.Err()
}

// GetResult returns the session's result, nil when absent.
func (r *PostgresSessionRepository) GetResult(ctx context.Context, sessionID int64) (*PracticeResult, error) {
	query := `
		SELECT id, practice_session_id, transcription, feedback, improved_text, score, metadata, created_at
		FROM practice_results
		WHERE practice_session_id = $1
	`

	var res PracticeResult
	err := r.db.Pool.QueryRow(ctx, query, sessionID).Scan(
		&res.ID, &res.PracticeSessionID, &res.Transcription, &res.Feedback,
		&res.ImprovedText, &res.Score, &res.Metadata, &res.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get practice result: %w", err)
	}
	return &res, nil
}

// Finalize writes the result row and the session status update in one
// transaction so the session/result pair is visible together or not at all.
func (r *PostgresSessionRepository) Finalize(ctx context.Context, sessionID int64, status string, result *PracticeResult) (time.Time, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertResult := `
		INSERT INTO practice_results (practice_session_id, transcription, feedback, improved_text, score, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, insertResult,
		sessionID,
		result.Transcription,
		result.Feedback,
		result.ImprovedText,
		result.Score,
		result.Metadata,
	).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create practice result: %w", err)
	}
	result.PracticeSessionID = sessionID

	var completedAt time.Time
	err = tx.QueryRow(ctx,
		`UPDATE practice_sessions SET status = $1, completed_at = now() WHERE id = $2 RETURNING completed_at`,
		status, sessionID,
	).Scan(&completedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to update session status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, fmt.Errorf("failed to commit session finalize: %w", err)
	}

	return completedAt, nil
}

// StatsByUser aggregates session count, completed practice minutes, and the
// average result score for the profile view.
func (r *PostgresSessionRepository) StatsByUser(ctx context.Context, userID int64) (*UserStats, error) {
	query := `
		SELECT count(s.id),
			coalesce(sum(extract(epoch FROM s.completed_at - s.started_at) / 60)
				FILTER (WHERE s.completed_at IS NOT NULL), 0),
			coalesce(avg(pr.score), 0)
		FROM practice_sessions s
		LEFT JOIN practice_results pr ON pr.practice_session_id = s.id
		WHERE s.user_id = $1
	`

	var (
		stats   UserStats
		minutes float64
	)
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&stats.Sessions, &minutes, &stats.AverageScore)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user stats: %w", err)
	}
	stats.Minutes = int(minutes)
	return &stats, nil
}
