package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
)

type BrandRepository interface {
	Create(ctx context.Context, brand *models.Brand) (int64, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Brand, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Brand, error)
	Update(ctx context.Context, brand *models.Brand) error
	Remove(ctx context.Context, userID, id int64) error
}

type brandRepository struct {
	db *sql.DB
}

func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) Create(ctx context.Context, brand *models.Brand) (int64, error) {
	query := `
		INSERT INTO brands (user_id, name, description, voice, audience, hashtags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, brand.UserID, brand.Name, brand.Description,
		brand.Voice, brand.Audience, brand.Hashtags).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *brandRepository) GetByID(ctx context.Context, userID, id int64) (*models.Brand, error) {
	query := `
		SELECT id, user_id, name, description, voice, audience, hashtags, created_at, updated_at
		FROM brands
		WHERE id = $1 AND user_id = $2
	`

	var b models.Brand
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&b.ID, &b.UserID, &b.Name, &b.Description,
		&b.Voice, &b.Audience, &b.Hashtags, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &b, nil
}

func (r *brandRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Brand, error) {
	query := `
		SELECT id, user_id, name, description, voice, audience, hashtags, created_at, updated_at
		FROM brands
		WHERE user_id = $1
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Description,
			&b.Voice, &b.Audience, &b.Hashtags, &b.CreatedAt, &b.UpdatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		brands = append(brands, &b)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return brands, nil
}

func (r *brandRepository) Update(ctx context.Context, brand *models.Brand) error {
	query := `
		UPDATE brands
		SET
			name = $1,
			description = $2,
			voice = $3,
			audience = $4,
			hashtags = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $6 AND user_id = $7
	`
	return execAffectingOne(ctx, r.db, query, brand.Name, brand.Description, brand.Voice,
		brand.Audience, brand.Hashtags, brand.ID, brand.UserID)
}

func (r *brandRepository) Remove(ctx context.Context, userID, id int64) error {
	query := `DELETE FROM brands WHERE id = $1 AND user_id = $2`
	return execAffectingOne(ctx, r.db, query, id, userID)
}
