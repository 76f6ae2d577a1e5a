// Command seed loads the challenge catalog (levels, categories, challenges)
// into the database. Safe to re-run: rows are upserted by slug/title.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type level struct {
	Slug        string
	Name        string
	Description string
	Color       string
	MinScore    int
	Order       int
}

type category struct {
	Slug        string
	Name        string
	Description string
	Icon        string
	Order       int
	Subs        []category
}

type challenge struct {
	Category string // sub-category slug
	Level    string // level slug
	Title    string
	Mins     int
	Hints    int
	Tips     []string
}

var levels = []level{
	{Slug: "easy", Name: "Easy", Description: "Basic warm-up questions", Color: "#4CAF50", MinScore: 0, Order: 10},
	{Slug: "medium", Name: "Medium", Description: "Moderate difficulty", Color: "#FF9800", MinScore: 40, Order: 20},
	{Slug: "hard", Name: "Hard", Description: "Advanced / stressful", Color: "#F44336", MinScore: 70, Order: 30},
}

var categories = []category{
	{
		Slug: "interview", Name: "Interview", Description: "Practice answering common interview questions", Icon: "mic", Order: 10,
		Subs: []category{
			{Slug: "interview-behavioral", Name: "Behavioral", Description: "STAR method and situation-based questions", Icon: "star", Order: 1},
			{Slug: "interview-technical", Name: "Technical", Description: "Technical and role-specific questions", Icon: "code", Order: 2},
			{Slug: "interview-hr-general", Name: "HR & General", Description: "General and HR interview questions", Icon: "users", Order: 3},
		},
	},
	{
		Slug: "presentation", Name: "Presentation", Description: "Practice explaining concepts clearly", Icon: "chart", Order: 20,
		Subs: []category{
			{Slug: "presentation-pitch", Name: "Pitch", Description: "Elevator pitches and product pitches", Icon: "zap", Order: 1},
			{Slug: "presentation-explainer", Name: "Explainer", Description: "Explain complex ideas simply", Icon: "book-open", Order: 2},
			{Slug: "presentation-training", Name: "Training", Description: "Training and instructional delivery", Icon: "graduation-cap", Order: 3},
		},
	},
	{
		Slug: "debate", Name: "Debate", Description: "Practice defending a position", Icon: "balance", Order: 30,
		Subs: []category{
			{Slug: "debate-formal", Name: "Formal Debate", Description: "Structured debate formats", Icon: "gavel", Order: 1},
			{Slug: "debate-persuasive", Name: "Persuasive Speech", Description: "Persuade and influence", Icon: "message-circle", Order: 2},
		},
	},
	{
		Slug: "storytelling", Name: "Storytelling", Description: "Practice engaging narratives", Icon: "book", Order: 40,
		Subs: []category{
			{Slug: "storytelling-personal", Name: "Personal Story", Description: "Personal anecdotes and experiences", Icon: "heart", Order: 1},
			{Slug: "storytelling-brand", Name: "Brand Narrative", Description: "Brand and company stories", Icon: "award", Order: 2},
		},
	},
	{
		Slug: "impromptu", Name: "Impromptu", Description: "Practice thinking on your feet", Icon: "lightbulb", Order: 50,
		Subs: []category{
			{Slug: "impromptu-quick-fire", Name: "Quick Fire", Description: "Short, spontaneous responses", Icon: "clock", Order: 1},
			{Slug: "impromptu-table-topics", Name: "Table Topics", Description: "Table topics style prompts", Icon: "message-square", Order: 2},
		},
	},
}

var challenges = []challenge{
	// Interview / Behavioral
	{Category: "interview-behavioral", Level: "easy", Title: "Describe a time when you had to work with a difficult team member. What was the outcome?", Mins: 2, Hints: 3},
	{Category: "interview-behavioral", Level: "easy", Title: "Tell me about a goal you set and how you achieved it.", Mins: 2, Hints: 3},
	{Category: "interview-behavioral", Level: "medium", Title: "Describe a challenging situation at work and how you handled it.", Mins: 3, Hints: 3},
	{Category: "interview-behavioral", Level: "medium", Title: "Give an example of when you failed and what you learned from it.", Mins: 3, Hints: 3},
	{Category: "interview-behavioral", Level: "hard", Title: "Describe a time you had to make an unpopular decision. How did you communicate it?", Mins: 3, Hints: 2},
	// Interview / Technical
	{Category: "interview-technical", Level: "medium", Title: "Walk me through your approach to debugging a complex production issue.", Mins: 4, Hints: 2, Tips: []string{"Structure your answer", "Mention tools and logs"}},
	{Category: "interview-technical", Level: "medium", Title: "Explain a technical concept from your field to a non-technical stakeholder.", Mins: 3, Hints: 2},
	{Category: "interview-technical", Level: "hard", Title: "Describe the most challenging technical problem you solved recently.", Mins: 4, Hints: 2},
	// Interview / HR & General
	{Category: "interview-hr-general", Level: "easy", Title: "Tell me about yourself and your professional background.", Mins: 2, Hints: 3},
	{Category: "interview-hr-general", Level: "easy", Title: "What is your greatest strength and how has it helped you professionally?", Mins: 2, Hints: 3},
	{Category: "interview-hr-general", Level: "medium", Title: "Where do you see yourself in five years?", Mins: 2, Hints: 3},
	{Category: "interview-hr-general", Level: "medium", Title: "Why do you want to leave your current role?", Mins: 2, Hints: 2},
	{Category: "interview-hr-general", Level: "hard", Title: "What is your biggest weakness and how are you working on it?", Mins: 2, Hints: 2},
	// Presentation / Pitch
	{Category: "presentation-pitch", Level: "easy", Title: "Give a 60-second elevator pitch for a product you use daily.", Mins: 1, Hints: 3},
	{Category: "presentation-pitch", Level: "medium", Title: "Pitch an idea to improve your workplace to a skeptical audience.", Mins: 2, Hints: 2},
	{Category: "presentation-pitch", Level: "hard", Title: "Pitch a new product as if to investors in under three minutes.", Mins: 3, Hints: 2},
	// Presentation / Explainer
	{Category: "presentation-explainer", Level: "medium", Title: "Explain a complex concept from your field to someone with no background in it.", Mins: 3, Hints: 0, Tips: []string{"Use analogies", "Avoid jargon", "Check for understanding"}},
	{Category: "presentation-explainer", Level: "easy", Title: "Explain how the internet works in two minutes.", Mins: 2, Hints: 3},
	{Category: "presentation-explainer", Level: "hard", Title: "Explain machine learning to a group of high school students.", Mins: 4, Hints: 2},
	// Presentation / Training
	{Category: "presentation-training", Level: "medium", Title: "Teach a colleague how to use a tool or process you know well.", Mins: 3, Hints: 2},
	{Category: "presentation-training", Level: "easy", Title: "Give a short safety or onboarding briefing for new team members.", Mins: 2, Hints: 3},
	// Debate
	{Category: "debate-formal", Level: "medium", Title: "Argue for: Remote work should be the default for knowledge workers.", Mins: 3, Hints: 2},
	{Category: "debate-formal", Level: "medium", Title: "Argue against: AI will do more harm than good in the next decade.", Mins: 3, Hints: 2},
	{Category: "debate-formal", Level: "hard", Title: "Present both sides of the debate on universal basic income.", Mins: 4, Hints: 2},
	{Category: "debate-persuasive", Level: "easy", Title: "Convince someone to try a hobby you enjoy.", Mins: 2, Hints: 3},
	{Category: "debate-persuasive", Level: "medium", Title: "Persuade your manager to approve a training budget increase.", Mins: 3, Hints: 2},
	{Category: "debate-persuasive", Level: "hard", Title: "Make a case for changing an existing company policy.", Mins: 3, Hints: 2},
	// Storytelling
	{Category: "storytelling-personal", Level: "easy", Title: "Share a short story about a lesson you learned from a mistake.", Mins: 2, Hints: 3},
	{Category: "storytelling-personal", Level: "medium", Title: "Tell the story of a time you overcame a fear or obstacle.", Mins: 3, Hints: 2},
	{Category: "storytelling-personal", Level: "hard", Title: "Narrate a turning point in your career or life in under three minutes.", Mins: 3, Hints: 2},
	{Category: "storytelling-brand", Level: "medium", Title: "Tell the story of how your company or product started.", Mins: 3, Hints: 2},
	{Category: "storytelling-brand", Level: "hard", Title: "Present a customer success story that highlights your product impact.", Mins: 4, Hints: 2},
	// Impromptu
	{Category: "impromptu-quick-fire", Level: "easy", Title: "If you could have dinner with anyone, living or dead, who would it be and why?", Mins: 1, Hints: 3},
	{Category: "impromptu-quick-fire", Level: "easy", Title: "What is one thing you would change about your morning routine?", Mins: 1, Hints: 3},
	{Category: "impromptu-quick-fire", Level: "medium", Title: "You have 60 seconds to defend the importance of reading books.", Mins: 1, Hints: 2},
	{Category: "impromptu-quick-fire", Level: "hard", Title: "Give an impromptu one-minute talk on a random word drawn from a hat.", Mins: 1, Hints: 1},
	{Category: "impromptu-table-topics", Level: "medium", Title: "Table topic: What does success mean to you?", Mins: 2, Hints: 2},
	{Category: "impromptu-table-topics", Level: "medium", Title: "Table topic: Describe your ideal day from wake-up to sleep.", Mins: 2, Hints: 2},
	{Category: "impromptu-table-topics", Level: "hard", Title: "Table topic: If you could live in any era, which would you choose and why?", Mins: 2, Hints: 2},
}

func main() {
	var dbURL string
	flag.StringVar(&dbURL, "db", "", "Database URL (or set DATABASE_URL env var)")
	flag.Parse()

	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("Database URL is required. Set -db flag or DATABASE_URL env var")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := seed(ctx, pool); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	fmt.Printf("Seeded %d levels, %d category trees, %d challenges\n", len(levels), len(categories), len(challenges))
}

func seed(ctx context.Context, pool *pgxpool.Pool) error {
	levelIDs := make(map[string]int64)
	for _, l := range levels {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO levels (slug, name, description, color, min_score, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (slug) DO UPDATE SET
				name = excluded.name, description = excluded.description,
				color = excluded.color, min_score = excluded.min_score,
				sort_order = excluded.sort_order
			RETURNING id
		`, l.Slug, l.Name, l.Description, l.Color, l.MinScore, l.Order).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed level %s: %w", l.Slug, err)
		}
		levelIDs[l.Slug] = id
	}

	categoryIDs := make(map[string]int64)
	upsertCategory := func(c category, parentID *int64) (int64, error) {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO categories (parent_id, slug, name, description, icon, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (slug) DO UPDATE SET
				parent_id = excluded.parent_id, name = excluded.name,
				description = excluded.description, icon = excluded.icon,
				sort_order = excluded.sort_order
			RETURNING id
		`, parentID, c.Slug, c.Name, c.Description, c.Icon, c.Order).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
		return id, nil
	}

	for _, parent := range categories {
		parentID, err := upsertCategory(parent, nil)
		if err != nil {
			return err
		}
		categoryIDs[parent.Slug] = parentID
		for _, sub := range parent.Subs {
			subID, err := upsertCategory(sub, &parentID)
			if err != nil {
				return err
			}
			categoryIDs[sub.Slug] = subID
		}
	}

	for _, c := range challenges {
		categoryID, ok := categoryIDs[c.Category]
		if !ok {
			return fmt.Errorf("challenge %q references unknown category %s", c.Title, c.Category)
		}
		levelID, ok := levelIDs[c.Level]
		if !ok {
			return fmt.Errorf("challenge %q references unknown level %s", c.Title, c.Level)
		}

		var tips []byte
		if len(c.Tips) > 0 {
			var err error
			tips, err = json.Marshal(c.Tips)
			if err != nil {
				return fmt.Errorf("marshal tips for %q: %w", c.Title, err)
			}
		}

		// Challenges have no natural unique key; match on category+title.
		var existing int64
		err := pool.QueryRow(ctx,
			`SELECT id FROM challenges WHERE category_id = $1 AND title = $2`,
			categoryID, c.Title,
		).Scan(&existing)
		switch {
		case err == nil:
			_, err = pool.Exec(ctx, `
				UPDATE challenges SET level_id = $1, suggested_time_minutes = $2,
					hints_available = $3, tips = $4
				WHERE id = $5
			`, levelID, c.Mins, c.Hints, tips, existing)
			if err != nil {
				return fmt.Errorf("update challenge %q: %w", c.Title, err)
			}
		case err == pgx.ErrNoRows:
			_, err = pool.Exec(ctx, `
				INSERT INTO challenges (category_id, level_id, title, suggested_time_minutes, hints_available, tips)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, categoryID, levelID, c.Title, c.Mins, c.Hints, tips)
			if err != nil {
				return fmt.Errorf("insert challenge %q: %w", c.Title, err)
			}
		default:
			return fmt.Errorf("lookup challenge %q: %w", c.Title, err)
		}
	}

	return nil
}
