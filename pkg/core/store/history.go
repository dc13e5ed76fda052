package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Exchange is one question/answer pair with its routing decision.
type Exchange struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Route     string    `json:"route"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepo persists conversation exchanges. A nil pool makes every
// operation a no-op so the assistant runs without a database.
type HistoryRepo struct {
	pool *pgxpool.Pool
}

// NewHistoryRepo creates a history repository
func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// SaveExchange stores one question/answer pair
func (r *HistoryRepo) SaveExchange(ctx context.Context, sessionID, question, answer, route string) (string, error) {
	if r.pool == nil {
		return "", nil
	}

	id := uuid.New().String()
	query := `
		INSERT INTO assistant_exchanges (
			id, session_id, question, answer, route, created_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
	`

	if _, err := r.pool.Exec(ctx, query, id, sessionID, question, answer, route); err != nil {
		return "", fmt.Errorf("failed to save exchange: %w", err)
	}
	return id, nil
}

// ListRecent returns the latest exchanges for a session, newest first
func (r *HistoryRepo) ListRecent(ctx context.Context, sessionID string, limit int) ([]Exchange, error) {
	if r.pool == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, session_id, question, answer, route, created_at
		FROM assistant_exchanges
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Question, &e.Answer, &e.Route, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange row: %w", err)
		}
		exchanges = append(exchanges, e)
	}

	return exchanges, nil
}
