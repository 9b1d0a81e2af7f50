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

type PostgresChannelsRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresChannelsRepository(db *sqlx.DB, schema string) *PostgresChannelsRepository {
	return &PostgresChannelsRepository{db: db, schema: schema}
}

func (r *PostgresChannelsRepository) UpsertChannel(ctx context.Context, channel *models.Channel) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.channels (id, guild_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		r.schema)

	if _, err := db.ExecContext(ctx, query, channel.ID, channel.GuildID, channel.Name); err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}

	return nil
}

func (r *PostgresChannelsRepository) UpsertThread(ctx context.Context, thread *models.Thread) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.threads (id, channel_id, name, archived, locked)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, archived = EXCLUDED.archived, locked = EXCLUDED.locked`,
		r.schema)

	if _, err := db.ExecContext(ctx, query, thread.ID, thread.ChannelID, thread.Name, thread.Archived, thread.Locked); err != nil {
		return fmt.Errorf("failed to upsert thread: %w", err)
	}

	return nil
}

func (r *PostgresChannelsRepository) GetThread(ctx context.Context, id string) (mo.Option[*models.Thread], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		SELECT id, channel_id, name, archived, locked
		FROM %s.threads
		WHERE id = $1`,
		r.schema)

	var thread models.Thread
	err := db.GetContext(ctx, &thread, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Thread](), nil
		}
		return mo.None[*models.Thread](), fmt.Errorf("failed to get thread: %w", err)
	}

	return mo.Some(&thread), nil
}

func (r *PostgresChannelsRepository) SetThreadState(ctx context.Context, id string, archived, locked bool) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.threads
		SET archived = $1, locked = $2
		WHERE id = $3`,
		r.schema)

	if _, err := db.ExecContext(ctx, query, archived, locked, id); err != nil {
		return fmt.Errorf("failed to set thread state: %w", err)
	}

	return nil
}

func (r *PostgresChannelsRepository) DeleteChannel(ctx context.Context, id string) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.channels WHERE id = $1`, r.schema)
	if _, err := db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

func (r *PostgresChannelsRepository) DeleteThread(ctx context.Context, id string) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.threads WHERE id = $1`, r.schema)
	if _, err := db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}
