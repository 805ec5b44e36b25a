package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avion00/medicare-backend/internal/crawl"
)

// ErrNotFound is returned when a website does not exist or belongs to another user.
var ErrNotFound = errors.New("website not found")

// Entry is one crawl of one site: every page summary joined into a single text.
type Entry struct {
	ID         int64     `json:"id"`
	WebsiteURL string    `json:"website_url"`
	Summary    string    `json:"summary"`
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, userID int64, websiteURL, summary string) (Entry, error) {
	if userID <= 0 {
		return Entry{}, errors.New("user id is required")
	}
	if strings.TrimSpace(websiteURL) == "" {
		return Entry{}, errors.New("website url is required")
	}

	entry := Entry{WebsiteURL: websiteURL, Summary: summary, UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO knowledge_base (website_url, summary, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, websiteURL, summary, userID).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("create knowledge entry: %w", err)
	}
	return entry, nil
}

// Get loads a website by id, scoped to its owner.
func (s *Store) Get(ctx context.Context, userID, websiteID int64) (Entry, error) {
	var entry Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, website_url, summary, user_id, created_at
		FROM knowledge_base
		WHERE id = $1 AND user_id = $2
	`, websiteID, userID).Scan(&entry.ID, &entry.WebsiteURL, &entry.Summary, &entry.UserID, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get knowledge entry: %w", err)
	}
	return entry, nil
}

func (s *Store) List(ctx context.Context, userID int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, website_url, summary, user_id, created_at
		FROM knowledge_base
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list knowledge entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.WebsiteURL, &entry.Summary, &entry.UserID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan knowledge entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge entries: %w", err)
	}
	return entries, nil
}

// CombineSummaries joins page summaries in crawl order with a single space.
func CombineSummaries(pages []crawl.PageSummary) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Summary)
	}
	return strings.Join(parts, " ")
}
