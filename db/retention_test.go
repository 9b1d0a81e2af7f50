package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentdebot/core"
	"sentdebot/models"
)

// setupTestDB connects to the database named by DB_URL/DB_SCHEMA. Tests that
// need it are skipped when no test database is configured.
func setupTestDB(t *testing.T) (*sqlx.DB, string) {
	t.Helper()
	_ = godotenv.Load("../.env.test")
	_ = godotenv.Load()

	databaseURL := os.Getenv("DB_URL")
	schema := os.Getenv("DB_SCHEMA")
	if databaseURL == "" || schema == "" {
		t.Skip("DB_URL and DB_SCHEMA must be set for database tests")
	}

	dbConn, err := NewConnection(databaseURL)
	require.NoError(t, err, "Failed to create database connection")
	t.Cleanup(func() { dbConn.Close() })

	return dbConn, schema
}

func createTestUser(t *testing.T, repo *PostgresUsersRepository) string {
	t.Helper()
	userID := core.NewID("tu")
	err := repo.UpsertUser(context.Background(), &models.User{
		ID:        userID,
		Name:      "retention-test-user",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err, "Failed to create test user")
	return userID
}

func TestDeleteMessagesOlderThan_BoundaryIsExclusive(t *testing.T) {
	dbConn, schema := setupTestDB(t)
	repo := NewPostgresMessagesRepository(dbConn, schema)
	usersRepo := NewPostgresUsersRepository(dbConn, schema)
	ctx := context.Background()

	authorID := createTestUser(t, usersRepo)
	guildID := core.NewID("tg")
	channelID := core.NewID("tc")

	// One row comfortably inside the horizon, one comfortably past it. The
	// horizon is computed from the wall clock at delete time, so the rows sit
	// an hour on either side rather than exactly at the boundary.
	survivorID := core.NewID("tm")
	expiredID := core.NewID("tm")
	for _, row := range []*models.Message{
		{ID: survivorID, AuthorID: authorID, GuildID: &guildID, ChannelID: channelID,
			CreatedAt: time.Now().UTC().AddDate(0, 0, -30).Add(time.Hour), UseForMetrics: true},
		{ID: expiredID, AuthorID: authorID, GuildID: &guildID, ChannelID: channelID,
			CreatedAt: time.Now().UTC().AddDate(0, 0, -30).Add(-time.Hour), UseForMetrics: true},
	} {
		inserted, err := repo.InsertMessage(ctx, row)
		require.NoError(t, err)
		require.True(t, inserted)
	}
	t.Cleanup(func() {
		_, _ = dbConn.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s.messages WHERE id IN ($1, $2)`, schema), survivorID, expiredID)
		_, _ = dbConn.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s.users WHERE id = $1`, schema), authorID)
	})

	_, err := repo.DeleteMessagesOlderThan(ctx, 30)
	require.NoError(t, err)

	survivor, err := repo.GetMessageByID(ctx, survivorID)
	require.NoError(t, err)
	assert.True(t, survivor.IsPresent(), "row newer than the horizon must survive")

	expired, err := repo.GetMessageByID(ctx, expiredID)
	require.NoError(t, err)
	assert.False(t, expired.IsPresent(), "row older than the horizon must be deleted")
}

func TestDeleteLeftMembersOlderThan_BoundaryAndOrphans(t *testing.T) {
	dbConn, schema := setupTestDB(t)
	repo := NewPostgresUsersRepository(dbConn, schema)
	ctx := context.Background()

	guildID := core.NewID("tg")
	survivorID := createTestUser(t, repo)
	expiredID := createTestUser(t, repo)
	currentID := createTestUser(t, repo)

	now := time.Now().UTC()
	for _, userID := range []string{survivorID, expiredID, currentID} {
		err := repo.UpsertMember(ctx, &models.Member{ID: userID, GuildID: guildID, JoinedAt: now.AddDate(0, 0, -60)})
		require.NoError(t, err)
	}
	require.NoError(t, repo.SetMemberLeft(ctx, survivorID, guildID, now.AddDate(0, 0, -30).Add(time.Hour)))
	require.NoError(t, repo.SetMemberLeft(ctx, expiredID, guildID, now.AddDate(0, 0, -30).Add(-time.Hour)))
	t.Cleanup(func() {
		_, _ = dbConn.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s.members WHERE id IN ($1, $2, $3)`, schema),
			survivorID, expiredID, currentID)
		_, _ = dbConn.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s.users WHERE id IN ($1, $2, $3)`, schema),
			survivorID, expiredID, currentID)
	})

	_, err := repo.DeleteLeftMembersOlderThan(ctx, 30)
	require.NoError(t, err)

	survivor, err := repo.GetMember(ctx, survivorID, guildID)
	require.NoError(t, err)
	assert.True(t, survivor.IsPresent(), "departure newer than the horizon must survive")

	expired, err := repo.GetMember(ctx, expiredID, guildID)
	require.NoError(t, err)
	assert.False(t, expired.IsPresent(), "departure older than the horizon must be deleted")

	current, err := repo.GetMember(ctx, currentID, guildID)
	require.NoError(t, err)
	assert.True(t, current.IsPresent(), "member who never left must survive any horizon")

	// The expired member's user row is now orphaned; the others still hold
	// member rows.
	_, err = repo.DeleteOrphanUsers(ctx)
	require.NoError(t, err)

	orphan, err := repo.GetUserByID(ctx, expiredID)
	require.NoError(t, err)
	assert.False(t, orphan.IsPresent(), "user without member rows must be swept")

	kept, err := repo.GetUserByID(ctx, survivorID)
	require.NoError(t, err)
	assert.True(t, kept.IsPresent(), "user with a member row must survive the orphan sweep")
}

func TestDeleteAuditLogsOlderThan_BoundaryIsExclusive(t *testing.T) {
	dbConn, schema := setupTestDB(t)
	repo := NewPostgresAuditLogsRepository(dbConn, schema)
	ctx := context.Background()

	guildID := core.NewID("tg")
	now := time.Now().UTC()

	survivor := &models.AuditLogEntry{
		ID:        core.NewID("al"),
		LogType:   models.AuditLogMemberLeft,
		GuildID:   &guildID,
		Timestamp: now.AddDate(0, 0, -30).Add(time.Hour),
	}
	expired := &models.AuditLogEntry{
		ID:        core.NewID("al"),
		LogType:   models.AuditLogMemberLeft,
		GuildID:   &guildID,
		Timestamp: now.AddDate(0, 0, -30).Add(-time.Hour),
	}
	require.NoError(t, repo.CreateAuditLogEntry(ctx, survivor))
	require.NoError(t, repo.CreateAuditLogEntry(ctx, expired))
	t.Cleanup(func() {
		_, _ = dbConn.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s.audit_log WHERE id IN ($1, $2)`, schema), survivor.ID, expired.ID)
	})

	_, err := repo.DeleteAuditLogsOlderThan(ctx, 30)
	require.NoError(t, err)

	entries, err := repo.GetAuditLogEntries(ctx, guildID, now.AddDate(0, 0, -60), now)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the entry newer than the horizon survives")
	assert.Equal(t, survivor.ID, entries[0].ID)
}
