package events

import (
	"context"

	"sentdebot/models"
)

// Consumer receives reconciled platform events. Implementations must be safe
// for concurrent use; hooks for different consumers run in parallel during a
// dispatch cycle.
type Consumer interface {
	Name() string

	OnMessageCreated(ctx context.Context, message *models.GatewayMessage) error
	OnMessageEdited(ctx context.Context, before models.BeforeMessageContext, after *models.GatewayMessage) error
	OnMessageDeleted(ctx context.Context, before models.BeforeMessageContext, channelID, guildID string) error

	OnMemberJoined(ctx context.Context, member *models.GatewayMember) error
	OnMemberLeft(ctx context.Context, guildID, userID string) error
	OnMemberUpdated(ctx context.Context, before, after *models.GatewayMember) error
	OnUserUpdated(ctx context.Context, before, after *models.GatewayUser) error

	OnReactionAdded(ctx context.Context, event *models.ReactionEvent) error

	OnChannelCreated(ctx context.Context, channel *models.GatewayChannel) error
	OnChannelDeleted(ctx context.Context, channelID, guildID string) error
	OnThreadCreated(ctx context.Context, thread *models.GatewayChannel) error
	OnThreadUpdated(ctx context.Context, thread *models.GatewayChannel) error
	OnThreadDeleted(ctx context.Context, threadID, parentID string) error
}

// BaseConsumer is a no-op implementation of every hook except Name. Concrete
// consumers embed it and override only the hooks they care about.
type BaseConsumer struct{}

func (BaseConsumer) OnMessageCreated(ctx context.Context, message *models.GatewayMessage) error {
	return nil
}

func (BaseConsumer) OnMessageEdited(
	ctx context.Context,
	before models.BeforeMessageContext,
	after *models.GatewayMessage,
) error {
	return nil
}

func (BaseConsumer) OnMessageDeleted(
	ctx context.Context,
	before models.BeforeMessageContext,
	channelID, guildID string,
) error {
	return nil
}

func (BaseConsumer) OnMemberJoined(ctx context.Context, member *models.GatewayMember) error {
	return nil
}

func (BaseConsumer) OnMemberLeft(ctx context.Context, guildID, userID string) error {
	return nil
}

func (BaseConsumer) OnMemberUpdated(ctx context.Context, before, after *models.GatewayMember) error {
	return nil
}

func (BaseConsumer) OnUserUpdated(ctx context.Context, before, after *models.GatewayUser) error {
	return nil
}

func (BaseConsumer) OnReactionAdded(ctx context.Context, event *models.ReactionEvent) error {
	return nil
}

func (BaseConsumer) OnChannelCreated(ctx context.Context, channel *models.GatewayChannel) error {
	return nil
}

func (BaseConsumer) OnChannelDeleted(ctx context.Context, channelID, guildID string) error {
	return nil
}

func (BaseConsumer) OnThreadCreated(ctx context.Context, thread *models.GatewayChannel) error {
	return nil
}

func (BaseConsumer) OnThreadUpdated(ctx context.Context, thread *models.GatewayChannel) error {
	return nil
}

func (BaseConsumer) OnThreadDeleted(ctx context.Context, threadID, parentID string) error {
	return nil
}
