package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

type settingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettingRepository creates a new settings repository
func NewSettingRepository(db *sql.DB, logger *zap.Logger) *settingRepository {
	return &settingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *settingRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var setting domain.Setting
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM settings WHERE key = $1`, key,
	).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "setting", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get setting", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &setting, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		r.logger.Error("Failed to upsert setting", zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}
