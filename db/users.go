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

type PostgresUsersRepository struct {
	db     *sqlx.DB
	schema string
}

var usersColumns = []string{
	"id",
	"name",
	"created_at",
	"is_bot",
	"is_system",
}

var membersColumns = []string{
	"id",
	"guild_id",
	"nick",
	"icon_url",
	"premium",
	"collect_data",
	"joined_at",
	"left_at",
}

func NewPostgresUsersRepository(db *sqlx.DB, schema string) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, schema: schema}
}

func (r *PostgresUsersRepository) GetUserByID(ctx context.Context, id string) (mo.Option[*models.User], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(usersColumns, ", ")
	query := fmt.Sprintf(`SELECT %s FROM %s.users WHERE id = $1`, columnsStr, r.schema)

	var user models.User
	err := db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.User](), nil
		}
		return mo.None[*models.User](), fmt.Errorf("failed to get user: %w", err)
	}

	return mo.Some(&user), nil
}

// UpsertUser inserts the user or refreshes its name if it already exists.
func (r *PostgresUsersRepository) UpsertUser(ctx context.Context, user *models.User) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.users (id, name, created_at, is_bot, is_system)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		r.schema)

	_, err := db.ExecContext(ctx, query, user.ID, user.Name, user.CreatedAt, user.IsBot, user.IsSystem)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

func (r *PostgresUsersRepository) GetMember(
	ctx context.Context,
	userID, guildID string,
) (mo.Option[*models.Member], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(membersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.members
		WHERE id = $1 AND guild_id = $2`,
		columnsStr, r.schema)

	var member models.Member
	err := db.GetContext(ctx, &member, query, userID, guildID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Member](), nil
		}
		return mo.None[*models.Member](), fmt.Errorf("failed to get member: %w", err)
	}

	return mo.Some(&member), nil
}

// UpsertMember inserts the member or refreshes its profile fields. A rejoin
// clears left_at. collect_data is left untouched on update; it defaults to
// true on first insert.
func (r *PostgresUsersRepository) UpsertMember(ctx context.Context, member *models.Member) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		INSERT INTO %s.members (id, guild_id, nick, icon_url, premium, collect_data, joined_at, left_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, NULL)
		ON CONFLICT (id, guild_id) DO UPDATE
		SET nick = EXCLUDED.nick, icon_url = EXCLUDED.icon_url, premium = EXCLUDED.premium, left_at = NULL`,
		r.schema)

	_, err := db.ExecContext(
		ctx,
		query,
		member.ID,
		member.GuildID,
		member.Nick,
		member.IconURL,
		member.Premium,
		member.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}

	return nil
}

func (r *PostgresUsersRepository) SetMemberLeft(ctx context.Context, userID, guildID string, leftAt time.Time) error {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.members
		SET left_at = $1
		WHERE id = $2 AND guild_id = $3`,
		r.schema)

	if _, err := db.ExecContext(ctx, query, leftAt, userID, guildID); err != nil {
		return fmt.Errorf("failed to set member left: %w", err)
	}

	return nil
}

func (r *PostgresUsersRepository) SetMemberCollectData(
	ctx context.Context,
	userID, guildID string,
	collectData bool,
) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.members
		SET collect_data = $1
		WHERE id = $2 AND guild_id = $3`,
		r.schema)

	result, err := db.ExecContext(ctx, query, collectData, userID, guildID)
	if err != nil {
		return false, fmt.Errorf("failed to set member collect_data: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// GetMemberCollectData reports whether content may be persisted for the
// member. Unknown members default to true, matching first-insert behavior.
func (r *PostgresUsersRepository) GetMemberCollectData(ctx context.Context, userID, guildID string) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		SELECT collect_data
		FROM %s.members
		WHERE id = $1 AND guild_id = $2`,
		r.schema)

	var collectData bool
	err := db.GetContext(ctx, &collectData, query, userID, guildID)
	if err != nil {
		if err == sql.ErrNoRows {
			return true, nil
		}
		return false, fmt.Errorf("failed to get member collect_data: %w", err)
	}

	return collectData, nil
}

func (r *PostgresUsersRepository) ListMembersJoinedBetween(
	ctx context.Context,
	guildID string,
	from, to time.Time,
) ([]*models.Member, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(membersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.members
		WHERE guild_id = $1 AND joined_at >= $2 AND joined_at <= $3
		ORDER BY joined_at DESC`,
		columnsStr, r.schema)

	var members []models.Member
	if err := db.SelectContext(ctx, &members, query, guildID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list members joined between: %w", err)
	}

	result := make([]*models.Member, len(members))
	for i := range members {
		result[i] = &members[i]
	}

	return result, nil
}

// DeleteLeftMembersOlderThan removes member rows whose departure is strictly
// older than the given number of days. A row exactly at the boundary
// survives.
func (r *PostgresUsersRepository) DeleteLeftMembersOlderThan(ctx context.Context, days int) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	threshold := time.Now().UTC().AddDate(0, 0, -days)
	query := fmt.Sprintf(`
		DELETE FROM %s.members
		WHERE left_at IS NOT NULL AND left_at < $1`,
		r.schema)

	result, err := db.ExecContext(ctx, query, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to delete departed members: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// DeleteOrphanUsers removes users left with zero member rows across all
// guilds.
func (r *PostgresUsersRepository) DeleteOrphanUsers(ctx context.Context) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		DELETE FROM %s.users u
		WHERE NOT EXISTS (
			SELECT 1 FROM %s.members m WHERE m.id = u.id
		)`,
		r.schema, r.schema)

	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan users: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
