// AngelaMos | 2026
// repository.go

package progress

import (
	"context"
	"fmt"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Progress, error)
	Upsert(ctx context.Context, p *Progress) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Progress, error) {
	query := `
		SELECT id, user_id, category, step, completed, notes, created_at, completed_at
		FROM user_progress
		WHERE user_id = $1
		ORDER BY category, created_at`

	items := []Progress{}
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return items, nil
}

// Upsert inserts p or updates the existing row for the same
// (user, category, step). completed_at follows the completed flag.
func (r *repository) Upsert(ctx context.Context, p *Progress) error {
	query := `
		INSERT INTO user_progress (id, user_id, category, step, completed, notes, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $5 THEN NOW() END)
		ON CONFLICT ON CONSTRAINT user_progress_step_uniq DO UPDATE
		SET completed = EXCLUDED.completed,
		    notes = EXCLUDED.notes,
		    completed_at = CASE
		        WHEN NOT EXCLUDED.completed THEN NULL
		        WHEN user_progress.completed THEN user_progress.completed_at
		        ELSE NOW()
		    END
		RETURNING id, created_at, completed_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.UserID,
		p.Category,
		p.Step,
		p.Completed,
		p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.CompletedAt)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}

	return nil
}
