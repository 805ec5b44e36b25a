package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avion00/medicare-backend/internal/knowledge"
)

// Turn is one exchange in a website's conversation log.
type Turn struct {
	ID                int64     `json:"id"`
	WebsiteID         int64     `json:"website_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	CreatedAt         time.Time `json:"created_at"`
}

// HistoryStore reads and appends conversation turns, always scoped through
// the owning knowledge_base row.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Recent returns up to limit turns, newest first.
func (s *HistoryStore) Recent(ctx context.Context, userID, websiteID int64, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.website_id, h.user_message, h.assistant_response, h.created_at
		FROM conversation_history h
		JOIN knowledge_base k ON k.id = h.website_id
		WHERE h.website_id = $1 AND k.user_id = $2
		ORDER BY h.id DESC
		LIMIT $3
	`, websiteID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.WebsiteID, &t.UserMessage, &t.AssistantResponse, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation history: %w", err)
	}
	return turns, nil
}

// Append records a turn. It returns knowledge.ErrNotFound when the website
// is not owned by userID.
func (s *HistoryStore) Append(ctx context.Context, userID, websiteID int64, userMessage, response string) error {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO conversation_history (website_id, user_message, assistant_response)
		SELECT k.id, $2, $3
		FROM knowledge_base k
		WHERE k.id = $1 AND k.user_id = $4
		RETURNING id
	`, websiteID, userMessage, response, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return knowledge.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("append conversation turn: %w", err)
	}
	return nil
}
