package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/survey-campaign-bot/internal/domain"
)

// ResponseRepository appends survey answers. Rows are never updated.
type ResponseRepository struct {
	db *sqlx.DB
}

func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) SaveAnswer(ctx context.Context, answer domain.Answer) error {
	query := r.db.Rebind(`
		INSERT INTO survey_responses (phone_number, question_id, question_text, answer, received_at)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		answer.Contact, answer.QuestionID, answer.QuestionText, answer.Text, answer.ReceivedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	return nil
}

// ListByContact returns a contact's answers in arrival order.
func (r *ResponseRepository) ListByContact(ctx context.Context, contact string) ([]domain.Answer, error) {
	query := r.db.Rebind(`
		SELECT phone_number, question_id, question_text, answer, received_at
		FROM survey_responses
		WHERE phone_number = ?
		ORDER BY id ASC
	`)

	answers := []domain.Answer{}
	if err := r.db.SelectContext(ctx, &answers, query, contact); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	return answers, nil
}
