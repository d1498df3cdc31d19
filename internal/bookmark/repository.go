// AngelaMos | 2026
// repository.go

package bookmark

import (
	"context"
	"fmt"

	"github.com/Mamadou98606/etudiantesolidaire-backend/internal/core"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Bookmark, error)
	Create(ctx context.Context, b *Bookmark) error
	Delete(ctx context.Context, id, userID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Bookmark, error) {
	query := `
		SELECT id, user_id, title, url, category, created_at
		FROM user_bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC`

	items := []Bookmark{}
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, b *Bookmark) error {
	query := `
		INSERT INTO user_bookmarks (id, user_id, title, url, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if err := r.db.GetContext(ctx, &b.CreatedAt, query,
		b.ID, b.UserID, b.Title, b.URL, b.Category,
	); err != nil {
		return fmt.Errorf("create bookmark: %w", err)
	}
	return nil
}

// Delete removes the bookmark only when userID owns it.
func (r *repository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM user_bookmarks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete bookmark: %w", core.ErrNotFound)
	}

	return nil
}
