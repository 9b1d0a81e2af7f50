// Package auditing subscribes to reconciled events and maintains the
// append-only audit trail.
package auditing

import (
	"context"
	"log"

	"sentdebot/models"
	"sentdebot/services"
	"sentdebot/usecases/events"
)

type Consumer struct {
	events.BaseConsumer

	auditLogService services.AuditLogService
	usersService    services.UsersService
}

func NewConsumer(auditLogService services.AuditLogService, usersService services.UsersService) *Consumer {
	return &Consumer{
		auditLogService: auditLogService,
		usersService:    usersService,
	}
}

func (c *Consumer) Name() string { return "auditing" }

func (c *Consumer) OnMemberJoined(ctx context.Context, member *models.GatewayMember) error {
	return c.auditLogService.RecordMemberJoined(ctx, member)
}

func (c *Consumer) OnMemberLeft(ctx context.Context, guildID, userID string) error {
	return c.auditLogService.RecordMemberLeft(ctx, guildID, userID)
}

// OnMemberUpdated falls back to the stored member row when the event carried
// no before-state, so diffs stay meaningful across cache evictions.
func (c *Consumer) OnMemberUpdated(ctx context.Context, before, after *models.GatewayMember) error {
	if before == nil && after != nil {
		before = c.rebuildStoredMember(ctx, after.User.ID, after.GuildID)
	}
	return c.auditLogService.RecordMemberUpdated(ctx, before, after)
}

func (c *Consumer) OnUserUpdated(ctx context.Context, before, after *models.GatewayUser) error {
	return c.auditLogService.RecordUserUpdated(ctx, before, after)
}

func (c *Consumer) OnMessageEdited(
	ctx context.Context,
	before models.BeforeMessageContext,
	after *models.GatewayMessage,
) error {
	return c.auditLogService.RecordMessageEdited(ctx, before, after)
}

func (c *Consumer) OnMessageDeleted(
	ctx context.Context,
	before models.BeforeMessageContext,
	channelID, guildID string,
) error {
	return c.auditLogService.RecordMessageDeleted(ctx, before, channelID, guildID)
}

func (c *Consumer) rebuildStoredMember(ctx context.Context, userID, guildID string) *models.GatewayMember {
	stored, err := c.usersService.GetMember(ctx, userID, guildID)
	if err != nil {
		log.Printf("❌ Failed to load stored member %s for audit diff: %v", userID, err)
		return nil
	}
	row, ok := stored.Get()
	if !ok {
		return nil
	}

	member := &models.GatewayMember{
		User:     models.GatewayUser{ID: row.ID},
		GuildID:  row.GuildID,
		Premium:  row.Premium,
		JoinedAt: row.JoinedAt,
	}
	if row.Nick != nil {
		member.Nick = *row.Nick
	}
	if row.IconURL != nil {
		member.AvatarURL = *row.IconURL
	}
	return member
}
