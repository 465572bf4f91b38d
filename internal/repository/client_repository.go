package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/survey-campaign-bot/internal/domain"
)

// ClientRepository is the contact directory backed by the clients table.
type ClientRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db, now: time.Now}
}

type clientRow struct {
	ID         int64          `db:"id"`
	LastName   string         `db:"last_name"`
	FirstName  string         `db:"first_name"`
	Number     string         `db:"phone_number"`
	SurveyID   sql.NullString `db:"survey_id"`
	SurveyLink sql.NullString `db:"survey_link"`
	Status     string         `db:"status"`
}

func (r clientRow) toDomain() *domain.Client {
	return &domain.Client{
		ID:         r.ID,
		LastName:   r.LastName,
		FirstName:  r.FirstName,
		Number:     r.Number,
		SurveyID:   r.SurveyID.String,
		SurveyLink: r.SurveyLink.String,
		Status:     domain.ClientStatus(r.Status),
	}
}

// FindByNumber returns (nil, nil) when no client has the number.
func (r *ClientRepository) FindByNumber(ctx context.Context, number string) (*domain.Client, error) {
	query := r.db.Rebind(`
		SELECT id, last_name, first_name, phone_number, survey_id, survey_link, status
		FROM clients
		WHERE phone_number = ?
	`)

	var row clientRow
	if err := r.db.GetContext(ctx, &row, query, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return row.toDomain(), nil
}

func (r *ClientRepository) ListPending(ctx context.Context) ([]domain.Client, error) {
	query := r.db.Rebind(`
		SELECT id, last_name, first_name, phone_number, survey_id, survey_link, status
		FROM clients
		WHERE status = ?
		ORDER BY id ASC
	`)

	var rows []clientRow
	if err := r.db.SelectContext(ctx, &rows, query, domain.ClientStatusPending); err != nil {
		return nil, fmt.Errorf("failed to list pending clients: %w", err)
	}

	clients := make([]domain.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, *row.toDomain())
	}

	return clients, nil
}

// MarkResponded sets the terminal status. Marking an already responded
// client again is not an error.
func (r *ClientRepository) MarkResponded(ctx context.Context, number string) error {
	query := r.db.Rebind(`
		UPDATE clients
		SET status = ?, updated_at = ?
		WHERE phone_number = ?
	`)

	result, err := r.db.ExecContext(ctx, query, domain.ClientStatusResponded, r.now().UTC(), number)
	if err != nil {
		return fmt.Errorf("failed to mark client as responded: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("no client found with number %s", number)
	}

	return nil
}
