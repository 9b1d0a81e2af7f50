// Package collection subscribes to reconciled events and keeps the durable
// message store, member registry, channel registry and help request tracking
// in sync with the live platform.
package collection

import (
	"context"
	"fmt"
	"log"
	"time"

	"sentdebot/models"
	"sentdebot/services"
	"sentdebot/usecases/events"
)

type Consumer struct {
	events.BaseConsumer

	messagesService    services.MessagesService
	usersService       services.UsersService
	channelsService    services.ChannelsService
	helpThreadsService services.HelpThreadsService
	helpForumID        string
}

func NewConsumer(
	messagesService services.MessagesService,
	usersService services.UsersService,
	channelsService services.ChannelsService,
	helpThreadsService services.HelpThreadsService,
	helpForumID string,
) *Consumer {
	return &Consumer{
		messagesService:    messagesService,
		usersService:       usersService,
		channelsService:    channelsService,
		helpThreadsService: helpThreadsService,
		helpForumID:        helpForumID,
	}
}

func (c *Consumer) Name() string { return "collection" }

// OnMessageCreated persists the message and, when it lands in a tracked help
// thread, bumps that thread's activity clock.
func (c *Consumer) OnMessageCreated(ctx context.Context, message *models.GatewayMessage) error {
	if err := c.messagesService.UpsertMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to persist message: %w", err)
	}

	if message.ThreadID != nil {
		if err := c.touchHelpThread(ctx, *message.ThreadID, message.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consumer) OnMessageEdited(
	ctx context.Context,
	before models.BeforeMessageContext,
	after *models.GatewayMessage,
) error {
	if err := c.messagesService.UpsertMessage(ctx, after); err != nil {
		return fmt.Errorf("failed to persist edited message: %w", err)
	}
	return nil
}

func (c *Consumer) OnMessageDeleted(
	ctx context.Context,
	before models.BeforeMessageContext,
	channelID, guildID string,
) error {
	if err := c.messagesService.DeleteMessage(ctx, before.MessageID); err != nil {
		return fmt.Errorf("failed to remove deleted message: %w", err)
	}
	return nil
}

func (c *Consumer) OnMemberJoined(ctx context.Context, member *models.GatewayMember) error {
	return c.usersService.UpsertMember(ctx, member)
}

func (c *Consumer) OnMemberLeft(ctx context.Context, guildID, userID string) error {
	return c.usersService.SetMemberLeft(ctx, userID, guildID, time.Now().UTC())
}

func (c *Consumer) OnMemberUpdated(ctx context.Context, before, after *models.GatewayMember) error {
	return c.usersService.UpsertMember(ctx, after)
}

func (c *Consumer) OnUserUpdated(ctx context.Context, before, after *models.GatewayUser) error {
	return c.usersService.UpsertUser(ctx, after)
}

// OnReactionAdded keeps help thread activity fresh; a reaction inside a
// tracked thread counts as activity just like a message.
func (c *Consumer) OnReactionAdded(ctx context.Context, event *models.ReactionEvent) error {
	if event.ThreadID == nil {
		return nil
	}
	return c.touchHelpThread(ctx, *event.ThreadID, time.Now().UTC())
}

func (c *Consumer) OnChannelCreated(ctx context.Context, channel *models.GatewayChannel) error {
	return c.channelsService.UpsertChannel(ctx, channel)
}

func (c *Consumer) OnChannelDeleted(ctx context.Context, channelID, guildID string) error {
	return c.channelsService.DeleteChannel(ctx, channelID)
}

// OnThreadCreated registers the thread and, when it was opened in the help
// forum, starts tracking it as a help request.
func (c *Consumer) OnThreadCreated(ctx context.Context, thread *models.GatewayChannel) error {
	if err := c.channelsService.UpsertThread(ctx, thread); err != nil {
		return err
	}

	if c.helpForumID != "" && thread.ParentID == c.helpForumID {
		if thread.OwnerID == "" {
			log.Printf("❌ Help thread %s has no owner, not tracking", thread.ID)
			return nil
		}
		if err := c.helpThreadsService.RegisterHelpThread(
			ctx, thread.ID, thread.OwnerID, nil, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to track help thread: %w", err)
		}
	}
	return nil
}

func (c *Consumer) OnThreadUpdated(ctx context.Context, thread *models.GatewayChannel) error {
	return c.channelsService.UpsertThread(ctx, thread)
}

// OnThreadDeleted drops both the registry row and, if tracked, the help
// request row; a deleted thread can never be answered.
func (c *Consumer) OnThreadDeleted(ctx context.Context, threadID, parentID string) error {
	if err := c.channelsService.DeleteThread(ctx, threadID); err != nil {
		return err
	}

	tracked, err := c.helpThreadsService.GetHelpThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("failed to check help thread tracking: %w", err)
	}
	if _, ok := tracked.Get(); ok {
		if err := c.helpThreadsService.Resolve(ctx, threadID); err != nil {
			return fmt.Errorf("failed to untrack deleted help thread: %w", err)
		}
	}
	return nil
}

func (c *Consumer) touchHelpThread(ctx context.Context, threadID string, at time.Time) error {
	tracked, err := c.helpThreadsService.GetHelpThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("failed to check help thread tracking: %w", err)
	}
	if _, ok := tracked.Get(); !ok {
		return nil
	}
	if err := c.helpThreadsService.TouchActivity(ctx, threadID, at); err != nil {
		return fmt.Errorf("failed to bump help thread activity: %w", err)
	}
	return nil
}
