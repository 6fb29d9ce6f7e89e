package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"novelreader-backend/internal/features/chapter/models"
	"novelreader-backend/internal/features/chapter/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.ChapterRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByNumber(ctx context.Context, novelID string, number int) (*models.Chapter, error) {
	query := `
		SELECT id, novel_id, number, title, content, locked, price, views, created_at
		FROM chapters
		WHERE novel_id = $1 AND number = $2 AND hidden = FALSE
	`

	var ch models.Chapter
	err := r.db.QueryRowContext(ctx, query, novelID, number).Scan(
		&ch.ID, &ch.NovelID, &ch.Number, &ch.Title, &ch.Content,
		&ch.Locked, &ch.Price, &ch.Views, &ch.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrChapterNotFound
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}

	return &ch, nil
}

func (r *postgresRepository) ListByNovel(ctx context.Context, novelID string) ([]models.ChapterSummary, error) {
	query := `
		SELECT id, number, title, locked, price, views, created_at
		FROM chapters
		WHERE novel_id = $1 AND hidden = FALSE
		ORDER BY number
	`

	rows, err := r.db.QueryContext(ctx, query, novelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []models.ChapterSummary
	for rows.Next() {
		var ch models.ChapterSummary
		if err := rows.Scan(&ch.ID, &ch.Number, &ch.Title, &ch.Locked, &ch.Price, &ch.Views, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}

	return chapters, rows.Err()
}

func (r *postgresRepository) AddViews(ctx context.Context, chapterID string, delta int64) error {
	query := `UPDATE chapters SET views = views + $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, chapterID, delta); err != nil {
		return fmt.Errorf("failed to add views: %w", err)
	}

	return nil
}

func (r *postgresRepository) IsUnlocked(ctx context.Context, userID, chapterID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM chapter_unlocks WHERE user_id = $1 AND chapter_id = $2)`

	var unlocked bool
	if err := r.db.QueryRowContext(ctx, query, userID, chapterID).Scan(&unlocked); err != nil {
		return false, fmt.Errorf("failed to check unlock: %w", err)
	}

	return unlocked, nil
}
