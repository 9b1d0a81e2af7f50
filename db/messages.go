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

type PostgresMessagesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for messages table
var messagesColumns = []string{
	"id",
	"author_id",
	"guild_id",
	"channel_id",
	"thread_id",
	"content",
	"created_at",
	"edited_at",
	"use_for_metrics",
}

func NewPostgresMessagesRepository(db *sqlx.DB, schema string) *PostgresMessagesRepository {
	return &PostgresMessagesRepository{db: db, schema: schema}
}

func (r *PostgresMessagesRepository) GetMessageByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Message], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(messagesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.messages
		WHERE id = $1`,
		columnsStr, r.schema)

	var message models.Message
	err := db.GetContext(ctx, &message, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Message](), nil
		}
		return mo.None[*models.Message](), fmt.Errorf("failed to get message: %w", err)
	}

	return mo.Some(&message), nil
}

func (r *PostgresMessagesRepository) GetMessageAttachments(
	ctx context.Context,
	messageID string,
) ([]models.MessageAttachment, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		SELECT id, message_id, filename, url
		FROM %s.message_attachments
		WHERE message_id = $1
		ORDER BY id ASC`,
		r.schema)

	var attachments []models.MessageAttachment
	if err := db.SelectContext(ctx, &attachments, query, messageID); err != nil {
		return nil, fmt.Errorf("failed to get message attachments: %w", err)
	}

	return attachments, nil
}

// InsertMessage inserts a new message row. Returns false without error if a
// row with the same id already exists.
func (r *PostgresMessagesRepository) InsertMessage(ctx context.Context, message *models.Message) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.messages (id, author_id, guild_id, channel_id, thread_id, content, created_at, edited_at, use_for_metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		r.schema)

	result, err := db.ExecContext(
		ctx,
		query,
		message.ID,
		message.AuthorID,
		message.GuildID,
		message.ChannelID,
		message.ThreadID,
		message.Content,
		message.CreatedAt,
		message.EditedAt,
		message.UseForMetrics,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// UpdateMessageContent mutates content and edit timestamp in place. Returns
// false if no row with the id exists.
func (r *PostgresMessagesRepository) UpdateMessageContent(
	ctx context.Context,
	id string,
	content *string,
	editedAt *time.Time,
) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.messages
		SET content = $1, edited_at = $2
		WHERE id = $3`,
		r.schema)

	result, err := db.ExecContext(ctx, query, content, editedAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to update message content: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ReplaceMessageAttachments replaces the attachment set of a message.
func (r *PostgresMessagesRepository) ReplaceMessageAttachments(
	ctx context.Context,
	messageID string,
	attachments []models.MessageAttachment,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	deleteQuery := fmt.Sprintf(`DELETE FROM %s.message_attachments WHERE message_id = $1`, r.schema)
	if _, err := db.ExecContext(ctx, deleteQuery, messageID); err != nil {
		return fmt.Errorf("failed to delete message attachments: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s.message_attachments (id, message_id, filename, url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		r.schema)
	for _, attachment := range attachments {
		if _, err := db.ExecContext(ctx, insertQuery, attachment.ID, messageID, attachment.Filename, attachment.URL); err != nil {
			return fmt.Errorf("failed to insert message attachment: %w", err)
		}
	}

	return nil
}

// GetLastMetricAuthor returns the author of the most recent metrics-flagged
// message in the given (channel, thread) scope.
func (r *PostgresMessagesRepository) GetLastMetricAuthor(
	ctx context.Context,
	channelID string,
	threadID *string,
) (mo.Option[string], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		SELECT author_id
		FROM %s.messages
		WHERE channel_id = $1 AND thread_id IS NOT DISTINCT FROM $2 AND use_for_metrics = TRUE
		ORDER BY created_at DESC
		LIMIT 1`,
		r.schema)

	var authorID string
	err := db.GetContext(ctx, &authorID, query, channelID, threadID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[string](), nil
		}
		return mo.None[string](), fmt.Errorf("failed to get last metric author: %w", err)
	}

	return mo.Some(authorID), nil
}

func (r *PostgresMessagesRepository) GetMessageMetrics(
	ctx context.Context,
	guildID string,
	daysBack int,
) ([]*models.MessageMetric, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	threshold := time.Now().UTC().AddDate(0, 0, -daysBack)
	query := fmt.Sprintf(`
		SELECT id, created_at, author_id, channel_id
		FROM %s.messages
		WHERE guild_id = $1 AND created_at > $2 AND use_for_metrics = TRUE
		ORDER BY created_at DESC`,
		r.schema)

	var metrics []models.MessageMetric
	if err := db.SelectContext(ctx, &metrics, query, guildID, threshold); err != nil {
		return nil, fmt.Errorf("failed to get message metrics: %w", err)
	}

	result := make([]*models.MessageMetric, len(metrics))
	for i := range metrics {
		result[i] = &metrics[i]
	}

	return result, nil
}

// ListGuildMessagesPage returns one page of guild messages ordered newest
// first, using created_at keyset pagination. beforeCreatedAt is nil for the
// first page; authorID optionally filters to one author.
func (r *PostgresMessagesRepository) ListGuildMessagesPage(
	ctx context.Context,
	guildID string,
	authorID *string,
	beforeCreatedAt *time.Time,
	limit int,
) ([]*models.Message, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(messagesColumns, ", ")

	conditions := []string{"guild_id = $1"}
	args := []interface{}{guildID}
	if authorID != nil {
		args = append(args, *authorID)
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if beforeCreatedAt != nil {
		args = append(args, *beforeCreatedAt)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.messages
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d`,
		columnsStr, r.schema, strings.Join(conditions, " AND "), len(args))

	var messages []models.Message
	if err := db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list guild messages: %w", err)
	}

	result := make([]*models.Message, len(messages))
	for i := range messages {
		result[i] = &messages[i]
	}

	return result, nil
}

func (r *PostgresMessagesRepository) GetMessagesOfMember(
	ctx context.Context,
	userID, guildID string,
	hoursBack float64,
) ([]*models.Message, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(messagesColumns, ", ")
	threshold := time.Now().UTC().Add(-time.Duration(hoursBack * float64(time.Hour)))
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.messages
		WHERE author_id = $1 AND guild_id = $2 AND created_at > $3
		ORDER BY created_at DESC`,
		columnsStr, r.schema)

	var messages []models.Message
	if err := db.SelectContext(ctx, &messages, query, userID, guildID, threshold); err != nil {
		return nil, fmt.Errorf("failed to get messages of member: %w", err)
	}

	result := make([]*models.Message, len(messages))
	for i := range messages {
		result[i] = &messages[i]
	}

	return result, nil
}

func (r *PostgresMessagesRepository) DeleteMessage(ctx context.Context, id string) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.messages WHERE id = $1`, r.schema)
	if _, err := db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// DeleteMessagesOlderThan removes messages strictly older than the given
// number of days. A row exactly at the boundary survives.
func (r *PostgresMessagesRepository) DeleteMessagesOlderThan(ctx context.Context, days int) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	threshold := time.Now().UTC().AddDate(0, 0, -days)
	query := fmt.Sprintf(`DELETE FROM %s.messages WHERE created_at < $1`, r.schema)

	result, err := db.ExecContext(ctx, query, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old messages: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
