package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetOwned(ctx context.Context, userID, id int64) (*models.Post, error)
	ListByBrand(ctx context.Context, userID, brandID int64, status string) ([]*models.Post, error)
	ListDue(ctx context.Context, from, to time.Time) ([]*models.Post, error)
	Update(ctx context.Context, id int64, expectedStatus string, changes *models.PostChanges) (*models.Post, error)
	Transition(ctx context.Context, id int64, change models.StatusChange) (*models.Post, error)
	Remove(ctx context.Context, userID, id int64) error
}

const postColumns = `p.id, p.brand_id, p.media_id, p.status, p.scheduled_for, p.platforms,
	p.generated_caption, p.final_caption, p.posted_at, p.error_message, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.BrandID, &post.MediaID, &post.Status, &post.ScheduledFor,
		pq.Array(&post.Platforms), &post.GeneratedCaption, &post.FinalCaption, &post.PostedAt,
		&post.ErrorMessage, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (brand_id, media_id, status, scheduled_for, platforms, generated_caption, final_caption)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	// pq encodes a nil slice as NULL
	platforms := post.Platforms
	if platforms == nil {
		platforms = []string{}
	}

	err := r.db.QueryRowContext(ctx, query,
		post.BrandID,
		post.MediaID,
		post.Status,
		post.ScheduledFor,
		pq.Array(platforms),
		post.GeneratedCaption,
		post.FinalCaption,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return post.ID, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetOwned(ctx context.Context, userID, id int64) (*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.id = $1 AND b.user_id = $2
	`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByBrand(ctx context.Context, userID, brandID int64, status string) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.brand_id = $1 AND b.user_id = $2 AND ($3 = '' OR p.status = $3)
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, brandID, userID, status)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListDue spans every brand; it backs the background sweep, not a user session.
func (r *postRepository) ListDue(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		WHERE p.status = $1 AND p.scheduled_for BETWEEN $2 AND $3
		ORDER BY p.scheduled_for
	`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func collectPosts(rows *sql.Rows) ([]*models.Post, error) {
	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, id int64, expectedStatus string, changes *models.PostChanges) (*models.Post, error) {
	query := `
		UPDATE posts p
		SET
			status = COALESCE($1, p.status),
			final_caption = COALESCE($2, p.final_caption),
			platforms = COALESCE($3, p.platforms),
			scheduled_for = COALESCE($4, p.scheduled_for),
			updated_at = NOW()
		WHERE p.id = $5 AND p.status = $6
		RETURNING ` + postColumns

	var platforms any
	if changes.Platforms != nil {
		platforms = pq.Array(changes.Platforms)
	}

	post, err := scanPost(r.db.QueryRowContext(ctx, query,
		changes.Status,
		changes.FinalCaption,
		platforms,
		changes.ScheduledFor,
		id,
		expectedStatus,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRowsAffected
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// Transition moves a post from change.From to change.To only if the stored
// status still equals change.From, and scheduled_for still equals
// change.ScheduledFor when that is set. posted_at is written once.
func (r *postRepository) Transition(ctx context.Context, id int64, change models.StatusChange) (*models.Post, error) {
	query := `
		UPDATE posts p
		SET
			status = $1::text,
			posted_at = CASE WHEN $1::text = 'posted' THEN COALESCE(p.posted_at, $2) ELSE p.posted_at END,
			error_message = CASE
				WHEN $1::text = 'posted' THEN NULL
				WHEN $1::text = 'failed' THEN $3
				ELSE p.error_message
			END,
			updated_at = $2
		WHERE p.id = $4 AND p.status = $5
			AND (NOT $6::boolean OR p.scheduled_for IS NOT DISTINCT FROM $7::timestamptz)
		RETURNING ` + postColumns

	var scheduledFor sql.NullTime
	if change.ScheduledFor != nil {
		scheduledFor = *change.ScheduledFor
	}

	post, err := scanPost(r.db.QueryRowContext(ctx, query,
		change.To,
		change.At,
		change.ErrorMessage,
		id,
		change.From,
		change.ScheduledFor != nil,
		scheduledFor,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRowsAffected
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) Remove(ctx context.Context, userID, id int64) error {
	query := `
		DELETE FROM posts p
		USING brands b
		WHERE p.id = $1 AND p.brand_id = b.id AND b.user_id = $2
	`
	return execAffectingOne(ctx, r.db, query, id, userID)
}
