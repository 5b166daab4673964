package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	ListByBrand(ctx context.Context, userID, brandID int64) ([]*models.SocialAccount, error)
	ListActiveForBrand(ctx context.Context, brandID int64, platforms []string) ([]*models.SocialAccount, error)
	SetActive(ctx context.Context, userID, id int64, active bool) error
	Remove(ctx context.Context, userID, id int64) error
}

const socialAccountColumns = `sa.id, sa.brand_id, sa.platform, sa.account_id, sa.account_username,
	sa.page_id, sa.access_token, sa.is_active, sa.created_at, sa.updated_at`

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// Upsert keeps one credential row per (brand, platform); reconnecting a
// platform replaces the token and reactivates the row.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts (
			brand_id,
			platform,
			account_id,
			account_username,
			page_id,
			access_token,
			is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (brand_id, platform) DO UPDATE
		SET
			account_id = EXCLUDED.account_id,
			account_username = EXCLUDED.account_username,
			page_id = EXCLUDED.page_id,
			access_token = EXCLUDED.access_token,
			is_active = TRUE,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sa.BrandID,
		sa.Platform,
		sa.AccountID,
		sa.AccountUsername,
		sa.PageID,
		sa.AccessToken,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialAccountRepository) ListByBrand(ctx context.Context, userID, brandID int64) ([]*models.SocialAccount, error) {
	query := `
		SELECT ` + socialAccountColumns + `
		FROM social_accounts sa
		JOIN brands b ON b.id = sa.brand_id
		WHERE sa.brand_id = $1 AND b.user_id = $2
		ORDER BY sa.platform
	`
	rows, err := r.db.QueryContext(ctx, query, brandID, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectSocialAccounts(rows)
}

// ListActiveForBrand joins through brands so a dangling or foreign brand id
// yields no credentials.
func (r *socialAccountRepository) ListActiveForBrand(ctx context.Context, brandID int64, platforms []string) ([]*models.SocialAccount, error) {
	query := `
		SELECT ` + socialAccountColumns + `
		FROM social_accounts sa
		JOIN brands b ON b.id = sa.brand_id
		WHERE sa.brand_id = $1 AND sa.is_active AND sa.platform = ANY($2)
	`
	rows, err := r.db.QueryContext(ctx, query, brandID, pq.Array(platforms))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectSocialAccounts(rows)
}

func collectSocialAccounts(rows *sql.Rows) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.BrandID, &sa.Platform, &sa.AccountID, &sa.AccountUsername,
			&sa.PageID, &sa.AccessToken, &sa.IsActive, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) SetActive(ctx context.Context, userID, id int64, active bool) error {
	query := `
		UPDATE social_accounts sa
		SET is_active = $1, updated_at = CURRENT_TIMESTAMP
		FROM brands b
		WHERE sa.id = $2 AND sa.brand_id = b.id AND b.user_id = $3
	`
	return execAffectingOne(ctx, r.db, query, active, id, userID)
}

func (r *socialAccountRepository) Remove(ctx context.Context, userID, id int64) error {
	query := `
		DELETE FROM social_accounts sa
		USING brands b
		WHERE sa.id = $1 AND sa.brand_id = b.id AND b.user_id = $2
	`
	return execAffectingOne(ctx, r.db, query, id, userID)
}

func execAffectingOne(ctx context.Context, db *sql.DB, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
