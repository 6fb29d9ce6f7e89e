package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"novelreader-backend/internal/features/novel/models"
	"novelreader-backend/internal/features/novel/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.NovelRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*models.Novel, error) {
	query := `
		SELECT id, title, author, description, genre, cover_url, created_at, updated_at
		FROM novels
		WHERE id = $1 AND hidden = FALSE
	`

	var n models.Novel
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.Title, &n.Author, &n.Description, &n.Genre, &n.CoverURL,
		&n.CreatedAt, &n.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNovelNotFound
		}
		return nil, fmt.Errorf("failed to get novel: %w", err)
	}

	return &n, nil
}

func (r *postgresRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Novel, error) {
	query := `
		SELECT id, title, author, description, genre, cover_url, created_at, updated_at
		FROM novels
		WHERE hidden = FALSE AND ($1 = '' OR genre = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, filter.Genre, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list novels: %w", err)
	}
	defer rows.Close()

	var novels []models.Novel
	for rows.Next() {
		var n models.Novel
		if err := rows.Scan(&n.ID, &n.Title, &n.Author, &n.Description, &n.Genre, &n.CoverURL,
			&n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan novel: %w", err)
		}
		novels = append(novels, n)
	}

	return novels, rows.Err()
}
