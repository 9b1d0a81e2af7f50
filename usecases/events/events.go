package events

import (
	"context"
	"log"
	"strings"

	"sentdebot/cache"
	"sentdebot/clients"
	"sentdebot/models"
)

// EventsUseCase is the single entry point for raw gateway notifications. It
// filters noise, reconciles partial payloads into full snapshots, fans the
// result out to every consumer and maintains the live message cache. The
// cache is updated only after dispatch so consumers observe the pre-event
// state through the resolver.
type EventsUseCase struct {
	gateway       clients.Gateway
	dispatcher    *Dispatcher
	resolver      *Resolver
	messageCache  *cache.MessageCache
	botUserID     string
	commandPrefix string
}

func NewEventsUseCase(
	gateway clients.Gateway,
	dispatcher *Dispatcher,
	resolver *Resolver,
	messageCache *cache.MessageCache,
	botUserID string,
	commandPrefix string,
) *EventsUseCase {
	return &EventsUseCase{
		gateway:       gateway,
		dispatcher:    dispatcher,
		resolver:      resolver,
		messageCache:  messageCache,
		botUserID:     botUserID,
		commandPrefix: commandPrefix,
	}
}

// shouldIgnore applies the central message filter: nothing authored by the
// bot itself, other bots, system users, or carrying the command prefix ever
// reaches a consumer.
func (u *EventsUseCase) shouldIgnore(message *models.GatewayMessage) bool {
	if message == nil {
		return true
	}
	if message.Author.Bot || message.Author.System {
		return true
	}
	if message.Author.ID == u.botUserID {
		return true
	}
	if u.commandPrefix != "" && strings.HasPrefix(message.Content, u.commandPrefix) {
		return true
	}
	return false
}

func (u *EventsUseCase) ProcessMessageCreated(ctx context.Context, message *models.GatewayMessage) {
	if u.shouldIgnore(message) {
		return
	}

	u.dispatcher.Dispatch(ctx, "message_created", func(ctx context.Context, c Consumer) error {
		return c.OnMessageCreated(ctx, message)
	})

	u.messageCache.Put(message)
}

// ProcessMessageUpdated reconciles a raw update. A partial payload without
// the after-state triggers a fetch; if the fetch fails the event is dropped,
// a stale dispatch would be worse than none.
func (u *EventsUseCase) ProcessMessageUpdated(ctx context.Context, event models.RawMessageUpdate) {
	after := event.After
	if after == nil {
		fetched, err := u.gateway.FetchMessage(ctx, event.ChannelID, event.MessageID)
		if err != nil {
			log.Printf("❌ Dropping message update for %s, after-state unavailable: %v", event.MessageID, err)
			return
		}
		after = fetched
	}

	if u.shouldIgnore(after) {
		return
	}

	before := u.resolver.ResolveBefore(ctx, event.MessageID, event.CachedBefore)

	u.dispatcher.Dispatch(ctx, "message_edited", func(ctx context.Context, c Consumer) error {
		return c.OnMessageEdited(ctx, before, after)
	})

	u.messageCache.Put(after)
}

func (u *EventsUseCase) ProcessMessageDeleted(ctx context.Context, event models.RawMessageDelete) {
	before := u.resolver.ResolveBefore(ctx, event.MessageID, event.CachedBefore)

	// When the prior state is known the central filter still applies.
	if before.Message != nil && u.shouldIgnore(before.Message) {
		u.messageCache.Remove(event.MessageID)
		return
	}

	u.dispatcher.Dispatch(ctx, "message_deleted", func(ctx context.Context, c Consumer) error {
		return c.OnMessageDeleted(ctx, before, event.ChannelID, event.GuildID)
	})

	u.messageCache.Remove(event.MessageID)
}

func (u *EventsUseCase) ProcessMemberJoined(ctx context.Context, member *models.GatewayMember) {
	if member == nil {
		return
	}
	u.dispatcher.Dispatch(ctx, "member_joined", func(ctx context.Context, c Consumer) error {
		return c.OnMemberJoined(ctx, member)
	})
}

func (u *EventsUseCase) ProcessMemberLeft(ctx context.Context, guildID, userID string) {
	if guildID == "" || userID == "" {
		return
	}
	u.dispatcher.Dispatch(ctx, "member_left", func(ctx context.Context, c Consumer) error {
		return c.OnMemberLeft(ctx, guildID, userID)
	})
}

func (u *EventsUseCase) ProcessMemberUpdated(ctx context.Context, event models.MemberUpdateEvent) {
	if event.After == nil {
		return
	}
	u.dispatcher.Dispatch(ctx, "member_updated", func(ctx context.Context, c Consumer) error {
		return c.OnMemberUpdated(ctx, event.Before, event.After)
	})
}

func (u *EventsUseCase) ProcessUserUpdated(ctx context.Context, event models.UserUpdateEvent) {
	if event.After == nil {
		return
	}
	u.dispatcher.Dispatch(ctx, "user_updated", func(ctx context.Context, c Consumer) error {
		return c.OnUserUpdated(ctx, event.Before, event.After)
	})
}

// ProcessReactionAdded resolves the raw reaction location into a
// (channel, thread) pair before dispatch. Unresolvable payloads are dropped.
func (u *EventsUseCase) ProcessReactionAdded(
	ctx context.Context,
	guildID, rawChannelID, messageID, userID, emojiName string,
) {
	if userID == u.botUserID {
		return
	}

	channel, err := u.gateway.FetchChannel(ctx, rawChannelID)
	if err != nil {
		log.Printf("❌ Dropping reaction on %s, channel %s unresolvable: %v", messageID, rawChannelID, err)
		return
	}

	event := &models.ReactionEvent{
		GuildID:   guildID,
		ChannelID: channel.ID,
		MessageID: messageID,
		UserID:    userID,
		EmojiName: emojiName,
	}
	if channel.IsThread {
		threadID := channel.ID
		event.ThreadID = &threadID
		event.ChannelID = channel.ParentID
	}

	u.dispatcher.Dispatch(ctx, "reaction_added", func(ctx context.Context, c Consumer) error {
		return c.OnReactionAdded(ctx, event)
	})
}

func (u *EventsUseCase) ProcessChannelCreated(ctx context.Context, channel *models.GatewayChannel) {
	if channel == nil || channel.IsThread {
		return
	}
	u.dispatcher.Dispatch(ctx, "channel_created", func(ctx context.Context, c Consumer) error {
		return c.OnChannelCreated(ctx, channel)
	})
}

func (u *EventsUseCase) ProcessChannelDeleted(ctx context.Context, channelID, guildID string) {
	if channelID == "" {
		return
	}
	u.dispatcher.Dispatch(ctx, "channel_deleted", func(ctx context.Context, c Consumer) error {
		return c.OnChannelDeleted(ctx, channelID, guildID)
	})
}

func (u *EventsUseCase) ProcessThreadCreated(ctx context.Context, thread *models.GatewayChannel) {
	if thread == nil || !thread.IsThread {
		return
	}
	u.dispatcher.Dispatch(ctx, "thread_created", func(ctx context.Context, c Consumer) error {
		return c.OnThreadCreated(ctx, thread)
	})
}

func (u *EventsUseCase) ProcessThreadUpdated(ctx context.Context, thread *models.GatewayChannel) {
	if thread == nil || !thread.IsThread {
		return
	}
	u.dispatcher.Dispatch(ctx, "thread_updated", func(ctx context.Context, c Consumer) error {
		return c.OnThreadUpdated(ctx, thread)
	})
}

func (u *EventsUseCase) ProcessThreadDeleted(ctx context.Context, threadID, parentID string) {
	if threadID == "" {
		return
	}
	u.dispatcher.Dispatch(ctx, "thread_deleted", func(ctx context.Context, c Consumer) error {
		return c.OnThreadDeleted(ctx, threadID, parentID)
	})
}
