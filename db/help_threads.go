package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	dbtx "sentdebot/db/tx"
	"sentdebot/models"
)

type PostgresHelpThreadsRepository struct {
	db     *sqlx.DB
	schema string
}

var helpThreadsColumns = []string{
	"thread_id",
	"owner_id",
	"tags",
	"last_activity_at",
}

func NewPostgresHelpThreadsRepository(db *sqlx.DB, schema string) *PostgresHelpThreadsRepository {
	return &PostgresHelpThreadsRepository{db: db, schema: schema}
}

func (r *PostgresHelpThreadsRepository) CreateHelpThread(ctx context.Context, thread *models.HelpThread) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.help_threads (thread_id, owner_id, tags, last_activity_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (thread_id) DO NOTHING`,
		r.schema)

	if _, err := db.ExecContext(ctx, query, thread.ThreadID, thread.OwnerID, thread.Tags, thread.LastActivityAt); err != nil {
		return fmt.Errorf("failed to create help thread: %w", err)
	}

	return nil
}

func (r *PostgresHelpThreadsRepository) GetHelpThread(
	ctx context.Context,
	threadID string,
) (mo.Option[*models.HelpThread], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(helpThreadsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.help_threads
		WHERE thread_id = $1`,
		columnsStr, r.schema)

	var thread models.HelpThread
	err := db.GetContext(ctx, &thread, query, threadID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.HelpThread](), nil
		}
		return mo.None[*models.HelpThread](), fmt.Errorf("failed to get help thread: %w", err)
	}

	return mo.Some(&thread), nil
}

func (r *PostgresHelpThreadsRepository) UpdateThreadActivity(
	ctx context.Context,
	threadID string,
	lastActivityAt time.Time,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.help_threads
		SET last_activity_at = $1
		WHERE thread_id = $2`,
		r.schema)

	if _, err := db.ExecContext(ctx, query, lastActivityAt, threadID); err != nil {
		return fmt.Errorf("failed to update help thread activity: %w", err)
	}

	return nil
}

func (r *PostgresHelpThreadsRepository) ListAllHelpThreads(ctx context.Context) ([]*models.HelpThread, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(helpThreadsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.help_threads
		ORDER BY last_activity_at DESC`,
		columnsStr, r.schema)

	var threads []models.HelpThread
	if err := db.SelectContext(ctx, &threads, query); err != nil {
		return nil, fmt.Errorf("failed to list help threads: %w", err)
	}

	result := make([]*models.HelpThread, len(threads))
	for i := range threads {
		result[i] = &threads[i]
	}

	return result, nil
}

// ListInactiveHelpThreads returns rows whose last activity is strictly older
// than the given number of days.
func (r *PostgresHelpThreadsRepository) ListInactiveHelpThreads(
	ctx context.Context,
	days int,
) ([]*models.HelpThread, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(helpThreadsColumns, ", ")
	threshold := time.Now().UTC().AddDate(0, 0, -days)
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.help_threads
		WHERE last_activity_at < $1
		ORDER BY last_activity_at ASC`,
		columnsStr, r.schema)

	var threads []models.HelpThread
	if err := db.SelectContext(ctx, &threads, query, threshold); err != nil {
		return nil, fmt.Errorf("failed to list inactive help threads: %w", err)
	}

	result := make([]*models.HelpThread, len(threads))
	for i := range threads {
		result[i] = &threads[i]
	}

	return result, nil
}

func (r *PostgresHelpThreadsRepository) DeleteHelpThread(ctx context.Context, threadID string) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.help_threads WHERE thread_id = $1`, r.schema)
	if _, err := db.ExecContext(ctx, query, threadID); err != nil {
		return fmt.Errorf("failed to delete help thread: %w", err)
	}
	return nil
}
