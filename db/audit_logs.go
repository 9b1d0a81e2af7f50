package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	dbtx "sentdebot/db/tx"
	"sentdebot/models"
)

type PostgresAuditLogsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for audit_log table
var auditLogsColumns = []string{
	"id",
	"log_type",
	"user_id",
	"guild_id",
	"channel_id",
	"timestamp",
	"data",
}

func NewPostgresAuditLogsRepository(db *sqlx.DB, schema string) *PostgresAuditLogsRepository {
	return &PostgresAuditLogsRepository{db: db, schema: schema}
}

func (r *PostgresAuditLogsRepository) CreateAuditLogEntry(ctx context.Context, entry *models.AuditLogEntry) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.audit_log (id, log_type, user_id, guild_id, channel_id, timestamp, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.schema)

	_, err := db.ExecContext(
		ctx,
		query,
		entry.ID,
		string(entry.LogType),
		entry.UserID,
		entry.GuildID,
		entry.ChannelID,
		entry.Timestamp,
		entry.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}

	return nil
}

func (r *PostgresAuditLogsRepository) GetAuditLogEntries(
	ctx context.Context,
	guildID string,
	from, to time.Time,
) ([]*models.AuditLogEntry, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(auditLogsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.audit_log
		WHERE guild_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC`,
		columnsStr, r.schema)

	var entries []models.AuditLogEntry
	if err := db.SelectContext(ctx, &entries, query, guildID, from, to); err != nil {
		return nil, fmt.Errorf("failed to get audit log entries: %w", err)
	}

	result := make([]*models.AuditLogEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}

	return result, nil
}

// DeleteAuditLogsOlderThan removes entries strictly older than the given
// number of days. An entry exactly at the boundary survives.
func (r *PostgresAuditLogsRepository) DeleteAuditLogsOlderThan(ctx context.Context, days int) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	threshold := time.Now().UTC().AddDate(0, 0, -days)
	query := fmt.Sprintf(`DELETE FROM %s.audit_log WHERE timestamp < $1`, r.schema)

	result, err := db.ExecContext(ctx, query, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit log entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
