package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPair is returned when a question or answer is blank.
var ErrInvalidPair = errors.New("question and answer are required")

// TrainingPair is a curated question with its canonical answer.
type TrainingPair struct {
	ID        int64  `json:"id"`
	WebsiteID int64  `json:"website_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// TrainingStore reads and writes curated pairs. Every statement joins
// knowledge_base so only the website owner can see or change them.
type TrainingStore struct {
	db *sql.DB
}

func NewTrainingStore(db *sql.DB) *TrainingStore {
	return &TrainingStore{db: db}
}

// List returns the website's pairs in insertion order.
func (s *TrainingStore) List(ctx context.Context, userID, websiteID int64) ([]TrainingPair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.website_id, t.question, t.answer
		FROM training_data t
		JOIN knowledge_base k ON k.id = t.website_id
		WHERE t.website_id = $1 AND k.user_id = $2
		ORDER BY t.id ASC
	`, websiteID, userID)
	if err != nil {
		return nil, fmt.Errorf("list training data: %w", err)
	}
	defer rows.Close()

	var pairs []TrainingPair
	for rows.Next() {
		var p TrainingPair
		if err := rows.Scan(&p.ID, &p.WebsiteID, &p.Question, &p.Answer); err != nil {
			return nil, fmt.Errorf("scan training pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training data: %w", err)
	}
	return pairs, nil
}

func (s *TrainingStore) Add(ctx context.Context, userID, websiteID int64, question, answer string) (TrainingPair, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return TrainingPair{}, ErrInvalidPair
	}

	pair := TrainingPair{WebsiteID: websiteID, Question: question, Answer: answer}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO training_data (website_id, question, answer)
		SELECT k.id, $2, $3
		FROM knowledge_base k
		WHERE k.id = $1 AND k.user_id = $4
		RETURNING id
	`, websiteID, question, answer, userID).Scan(&pair.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return TrainingPair{}, ErrNotFound
	}
	if err != nil {
		return TrainingPair{}, fmt.Errorf("add training pair: %w", err)
	}
	return pair, nil
}

func (s *TrainingStore) Delete(ctx context.Context, userID, pairID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM training_data t
		USING knowledge_base k
		WHERE t.id = $1 AND t.website_id = k.id AND k.user_id = $2
	`, pairID, userID)
	if err != nil {
		return fmt.Errorf("delete training pair: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete training pair: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
