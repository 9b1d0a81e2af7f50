package clients

import (
	"context"
	"errors"

	"sentdebot/models"
)

// Sentinel errors the discord client maps upstream HTTP failures onto, so
// callers can branch with errors.Is instead of inspecting SDK error types.
var (
	// ErrRateLimited signals upstream throttling; the unit of work may be
	// retried after a cooldown.
	ErrRateLimited = errors.New("gateway rate limited")
	// ErrForbidden signals a hard permission denial; never retried.
	ErrForbidden = errors.New("gateway access forbidden")
	// ErrNotFound signals the referenced object no longer exists upstream.
	ErrNotFound = errors.New("gateway object not found")
)

// Gateway is the upstream chat platform surface consumed by the pipeline:
// on-demand fetches used by the resolver and lifecycle sweep, and the paged
// bulk-read APIs used by backfill. All calls are subject to throttling and
// permission-denial signals.
type Gateway interface {
	GetBotUser(ctx context.Context) (*models.GatewayUser, error)
	FetchMessage(ctx context.Context, channelID, messageID string) (*models.GatewayMessage, error)
	FetchMember(ctx context.Context, guildID, userID string) (*models.GatewayMember, error)
	FetchUser(ctx context.Context, userID string) (*models.GatewayUser, error)
	FetchChannel(ctx context.Context, channelID string) (*models.GatewayChannel, error)

	// ListGuildChannels returns the guild's message channels (not threads).
	ListGuildChannels(ctx context.Context, guildID string) ([]*models.GatewayChannel, error)
	// ListActiveThreads returns the guild's active threads.
	ListActiveThreads(ctx context.Context, guildID string) ([]*models.GatewayChannel, error)
	// ListGuildMembers pages through the guild member list; afterUserID is
	// the cursor, empty for the first page.
	ListGuildMembers(ctx context.Context, guildID, afterUserID string, limit int) ([]*models.GatewayMember, error)
	// ChannelMessages pages through channel history in chronological order;
	// afterMessageID is the cursor, empty for the first page.
	ChannelMessages(ctx context.Context, channelID, afterMessageID string, limit int) ([]*models.GatewayMessage, error)

	SendChannelMessage(ctx context.Context, channelID, content string) error
	// LockThread archives and locks a thread upstream.
	LockThread(ctx context.Context, threadID, reason string) error
}
