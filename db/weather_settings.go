package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	dbtx "sentdebot/db/tx"
	"sentdebot/models"
)

type PostgresWeatherSettingsRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresWeatherSettingsRepository(db *sqlx.DB, schema string) *PostgresWeatherSettingsRepository {
	return &PostgresWeatherSettingsRepository{db: db, schema: schema}
}

func (r *PostgresWeatherSettingsRepository) GetWeatherSettings(
	ctx context.Context,
	userID string,
) (mo.Option[*models.WeatherSettings], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`SELECT user_id, place FROM %s.weather_settings WHERE user_id = $1`, r.schema)

	var settings models.WeatherSettings
	err := db.GetContext(ctx, &settings, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.WeatherSettings](), nil
		}
		return mo.None[*models.WeatherSettings](), fmt.Errorf("failed to get weather settings: %w", err)
	}

	return mo.Some(&settings), nil
}

func (r *PostgresWeatherSettingsRepository) UpsertWeatherSettings(
	ctx context.Context,
	settings *models.WeatherSettings,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.weather_settings (user_id, place)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET place = EXCLUDED.place`,
		r.schema)

	if _, err := db.ExecContext(ctx, query, settings.UserID, settings.Place); err != nil {
		return fmt.Errorf("failed to upsert weather settings: %w", err)
	}

	return nil
}

func (r *PostgresWeatherSettingsRepository) DeleteWeatherSettings(ctx context.Context, userID string) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.weather_settings WHERE user_id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete weather settings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
