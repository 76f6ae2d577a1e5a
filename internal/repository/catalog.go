package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/speechflow/backend/internal/client"
)

// Category groups challenges. Categories form a two-level hierarchy: parents
// have a nil ParentID, subs point at their parent.
type Category struct {
	ID          int64  `json:"id"`
	ParentID    *int64 `json:"parent_id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"order"`
}

// Level is a challenge difficulty tier.
type Level struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	MinScore    int    `json:"min_score"`
	SortOrder   int    `json:"order"`
}

// Challenge is a practice prompt scoped to a category and a level.
type Challenge struct {
	ID                   int64           `json:"id"`
	CategoryID           int64           `json:"-"`
	LevelID              int64           `json:"-"`
	Title                string          `json:"title"`
	SuggestedTimeMinutes int             `json:"suggested_time_minutes"`
	HintsAvailable       int             `json:"hints_available"`
	Tips                 json.RawMessage `json:"tips,omitempty"`
}

// ChallengeDetail is a challenge with its category and level resolved.
type ChallengeDetail struct {
	Challenge
	Category *Category `json:"category,omitempty"`
	Level    *Level    `json:"level,omitempty"`
}

// ChallengeFilter narrows challenge listing by catalog slugs. Zero value
// means no filtering.
type ChallengeFilter struct {
	CategoryID *int64
	LevelID    *int64
}

// CatalogRepository provides read access to the challenge catalog.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	ListLevels(ctx context.Context) ([]*Level, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	GetLevelBySlug(ctx context.Context, slug string) (*Level, error)
	ListChallenges(ctx context.Context, filter ChallengeFilter) ([]*ChallengeDetail, error)
	GetChallenge(ctx context.Context, id int64) (*ChallengeDetail, error)
}

// PostgresCatalogRepository implements CatalogRepository with PostgreSQL.
type PostgresCatalogRepository struct {
	db *client.PostgresClient
}

// NewPostgresCatalogRepository creates a new PostgresCatalogRepository.
func NewPostgresCatalogRepository(db *client.PostgresClient) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// ListCategories returns all categories ordered for display.
func (r *PostgresCatalogRepository) ListCategories(ctx context.Context) ([]*Category, error) {
	query := `
		SELECT id, parent_id, slug, name, description, icon, sort_order
		FROM categories
		ORDER BY sort_order, id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Slug, &c.Name, &c.Description, &c.Icon, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// ListLevels returns all levels ordered for display.
func (r *PostgresCatalogRepository) ListLevels(ctx context.Context) ([]*Level, error) {
	query := `
		SELECT id, slug, name, description, color, min_score, sort_order
		FROM levels
		ORDER BY sort_order, id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var levels []*Level
	for rows.Next() {
		var l Level
		if err := rows.Scan(&l.ID, &l.Slug, &l.Name, &l.Description, &l.Color, &l.MinScore, &l.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		levels = append(levels, &l)
	}
	return levels, rows.Err()
}

// GetCategoryBySlug returns the category with the given slug, nil when absent.
func (r *PostgresCatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	query := `
		SELECT id, parent_id, slug, name, description, icon, sort_order
		FROM categories
		WHERE slug = $1
	`

	var c Category
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(
		&c.ID, &c.ParentID, &c.Slug, &c.Name, &c.Description, &c.Icon, &c.SortOrder,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &c, nil
}

// GetLevelBySlug returns the level with the given slug, nil when absent.
func (r *PostgresCatalogRepository) GetLevelBySlug(ctx context.Context, slug string) (*Level, error) {
	query := `
		SELECT id, slug, name, description, color, min_score, sort_order
		FROM levels
		WHERE slug = $1
	`

	var l Level
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(
		&l.ID, &l.Slug, &l.Name, &l.Description, &l.Color, &l.MinScore, &l.SortOrder,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get level by slug: %w", err)
	}
	return &l, nil
}

const challengeDetailQuery = `
	SELECT ch.id, ch.category_id, ch.level_id, ch.title, ch.suggested_time_minutes,
		ch.hints_available, ch.tips,
		c.id, c.parent_id, c.slug, c.name, c.description, c.icon, c.sort_order,
		l.id, l.slug, l.name, l.description, l.color, l.min_score, l.sort_order
	FROM challenges ch
	JOIN categories c ON c.id = ch.category_id
	JOIN levels l ON l.id = ch.level_id
`

func scanChallengeDetail(row pgx.Row) (*ChallengeDetail, error) {
	var (
		d ChallengeDetail
		c Category
		l Level
	)
	err := row.Scan(
		&d.ID, &d.CategoryID, &d.LevelID, &d.Title, &d.SuggestedTimeMinutes,
		&d.HintsAvailable, &d.Tips,
		&c.ID, &c.ParentID, &c.Slug, &c.Name, &c.Description, &c.Icon, &c.SortOrder,
		&l.ID, &l.Slug, &l.Name, &l.Description, &l.Color, &l.MinScore, &l.SortOrder,
	)
	if err != nil {
		return nil, err
	}
	d.Category = &c
	d.Level = &l
	return &d, nil
}

// ListChallenges returns challenges with category and level resolved,
// optionally filtered.
func (r *PostgresCatalogRepository) ListChallenges(ctx context.Context, filter ChallengeFilter) ([]*ChallengeDetail, error) {
	query := challengeDetailQuery
	args := []interface{}{}

	clause := "WHERE"
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" %s ch.category_id = $%d", clause, len(args))
		clause = "AND"
	}
	if filter.LevelID != nil {
		args = append(args, *filter.LevelID)
		query += fmt.Sprintf(" %s ch.level_id = $%d", clause, len(args))
	}
	query += " ORDER BY ch.id"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*ChallengeDetail
	for rows.Next() {
		d, err := scanChallengeDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, d)
	}
	return challenges, rows.Err()
}

// GetChallenge returns one challenge with category and level, nil when absent.
func (r *PostgresCatalogRepository) GetChallenge(ctx context.Context, id int64) (*ChallengeDetail, error) {
	d, err := scanChallengeDetail(r.db.Pool.QueryRow(ctx, challengeDetailQuery+" WHERE ch.id = $1", id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return d, nil
}
