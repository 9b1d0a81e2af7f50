package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"sentdebot/models"
)

// MessagesService defines the interface for message persistence and metrics
type MessagesService interface {
	UpsertMessage(ctx context.Context, message *models.GatewayMessage) error
	GetMessageByID(ctx context.Context, id string) (mo.Option[*models.Message], error)
	GetMessageAttachments(ctx context.Context, messageID string) ([]models.MessageAttachment, error)
	GetMessageMetrics(ctx context.Context, guildID string, daysBack int) ([]*models.MessageMetric, error)
	GetMessagesOfMember(ctx context.Context, userID, guildID string, hoursBack float64) ([]*models.Message, error)
	SearchMessages(ctx context.Context, guildID, term string, limit int) ([]*models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessagesOlderThan(ctx context.Context, days int) (int64, error)
}

// AuditLogService defines the interface for audit trail operations
type AuditLogService interface {
	RecordMemberJoined(ctx context.Context, member *models.GatewayMember) error
	RecordMemberLeft(ctx context.Context, guildID, userID string) error
	RecordMemberUpdated(ctx context.Context, before, after *models.GatewayMember) error
	RecordUserUpdated(ctx context.Context, before, after *models.GatewayUser) error
	RecordMessageEdited(ctx context.Context, before models.BeforeMessageContext, after *models.GatewayMessage) error
	RecordMessageDeleted(ctx context.Context, before models.BeforeMessageContext, channelID, guildID string) error
	GetAuditLogEntries(ctx context.Context, guildID string, from, to time.Time) ([]*models.AuditLogEntry, error)
	DeleteAuditLogsOlderThan(ctx context.Context, days int) (int64, error)
}

// UsersService defines the interface for user and member registry operations
type UsersService interface {
	UpsertUser(ctx context.Context, user *models.GatewayUser) error
	UpsertMember(ctx context.Context, member *models.GatewayMember) error
	GetMember(ctx context.Context, userID, guildID string) (mo.Option[*models.Member], error)
	SetMemberLeft(ctx context.Context, userID, guildID string, leftAt time.Time) error
	SetMemberCollectData(ctx context.Context, userID, guildID string, collectData bool) (bool, error)
	GetMemberCollectData(ctx context.Context, userID, guildID string) (bool, error)
	ListMembersJoinedBetween(ctx context.Context, guildID string, from, to time.Time) ([]*models.Member, error)
	DeleteLeftMembersOlderThan(ctx context.Context, days int) (int64, error)
	DeleteOrphanUsers(ctx context.Context) (int64, error)
}

// ChannelsService defines the interface for channel and thread registry operations
type ChannelsService interface {
	UpsertChannel(ctx context.Context, channel *models.GatewayChannel) error
	UpsertThread(ctx context.Context, thread *models.GatewayChannel) error
	GetThread(ctx context.Context, id string) (mo.Option[*models.Thread], error)
	SetThreadState(ctx context.Context, id string, archived, locked bool) error
	DeleteChannel(ctx context.Context, id string) error
	DeleteThread(ctx context.Context, id string) error
}

// HelpThreadsService defines the interface for help request tracking
type HelpThreadsService interface {
	RegisterHelpThread(ctx context.Context, threadID, ownerID string, tags *string, createdAt time.Time) error
	GetHelpThread(ctx context.Context, threadID string) (mo.Option[*models.HelpThread], error)
	TouchActivity(ctx context.Context, threadID string, at time.Time) error
	ListAll(ctx context.Context) ([]*models.HelpThread, error)
	ListInactive(ctx context.Context, days int) ([]*models.HelpThread, error)
	Resolve(ctx context.Context, threadID string) error
}

// WeatherSettingsService defines the interface for per-user weather preferences
type WeatherSettingsService interface {
	GetWeatherSettings(ctx context.Context, userID string) (mo.Option[*models.WeatherSettings], error)
	SetWeatherSettings(ctx context.Context, userID, place string) error
	ClearWeatherSettings(ctx context.Context, userID string) (bool, error)
}

// TransactionManager defines the interface for transaction management operations
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
