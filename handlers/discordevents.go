package handlers

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"sentdebot/clients/discord"
	"sentdebot/middleware"
	"sentdebot/models"
	"sentdebot/usecases/events"
)

// DiscordEventsHandler maps raw discordgo gateway events into the event
// pipeline. It does no business logic of its own; normalization and a call
// into the use case is all that happens here.
type DiscordEventsHandler struct {
	session       *discordgo.Session
	eventsUseCase *events.EventsUseCase
	alerts        *middleware.ErrorAlertMiddleware
}

func NewDiscordEventsHandler(
	session *discordgo.Session,
	eventsUseCase *events.EventsUseCase,
	alerts *middleware.ErrorAlertMiddleware,
) *DiscordEventsHandler {
	return &DiscordEventsHandler{
		session:       session,
		eventsUseCase: eventsUseCase,
		alerts:        alerts,
	}
}

// Register wires the handlers and the gateway intents they need.
func (h *DiscordEventsHandler) Register() {
	h.session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentMessageContent

	h.session.AddHandler(h.onMessageCreate)
	h.session.AddHandler(h.onMessageUpdate)
	h.session.AddHandler(h.onMessageDelete)
	h.session.AddHandler(h.onGuildMemberAdd)
	h.session.AddHandler(h.onGuildMemberRemove)
	h.session.AddHandler(h.onGuildMemberUpdate)
	h.session.AddHandler(h.onUserUpdate)
	h.session.AddHandler(h.onMessageReactionAdd)
	h.session.AddHandler(h.onChannelCreate)
	h.session.AddHandler(h.onChannelDelete)
	h.session.AddHandler(h.onThreadCreate)
	h.session.AddHandler(h.onThreadUpdate)
	h.session.AddHandler(h.onThreadDelete)

	log.Printf("📋 Discord event handlers registered")
}

// stateChannel resolves a channel from the session state cache so thread
// messages can be rebased onto their parent without a REST round trip.
func (h *DiscordEventsHandler) stateChannel(channelID string) *models.GatewayChannel {
	channel, err := h.session.State.Channel(channelID)
	if err != nil {
		return nil
	}
	return discord.NormalizeChannel(channel)
}

func (h *DiscordEventsHandler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.alerts.WrapEventHandler("message_create", func() {
		message := discord.NormalizeMessage(m.Message, h.stateChannel(m.ChannelID))
		h.eventsUseCase.ProcessMessageCreated(context.Background(), message)
	})()
}

func (h *DiscordEventsHandler) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	h.alerts.WrapEventHandler("message_update", func() {
		event := models.RawMessageUpdate{
			MessageID: m.ID,
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
		}
		channel := h.stateChannel(m.ChannelID)
		if m.BeforeUpdate != nil {
			event.CachedBefore = discord.NormalizeMessage(m.BeforeUpdate, channel)
		}
		// Partial update payloads arrive without an author; those force a
		// fetch inside the use case.
		if m.Author != nil {
			event.After = discord.NormalizeMessage(m.Message, channel)
		}
		h.eventsUseCase.ProcessMessageUpdated(context.Background(), event)
	})()
}

func (h *DiscordEventsHandler) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	h.alerts.WrapEventHandler("message_delete", func() {
		event := models.RawMessageDelete{
			MessageID: m.ID,
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
		}
		if m.BeforeDelete != nil {
			event.CachedBefore = discord.NormalizeMessage(m.BeforeDelete, h.stateChannel(m.ChannelID))
		}
		h.eventsUseCase.ProcessMessageDeleted(context.Background(), event)
	})()
}

func (h *DiscordEventsHandler) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	h.alerts.WrapEventHandler("guild_member_add", func() {
		h.eventsUseCase.ProcessMemberJoined(context.Background(), discord.NormalizeMember(m.GuildID, m.Member))
	})()
}

func (h *DiscordEventsHandler) onGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	h.alerts.WrapEventHandler("guild_member_remove", func() {
		if m.User == nil {
			return
		}
		h.eventsUseCase.ProcessMemberLeft(context.Background(), m.GuildID, m.User.ID)
	})()
}

func (h *DiscordEventsHandler) onGuildMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	h.alerts.WrapEventHandler("guild_member_update", func() {
		event := models.MemberUpdateEvent{
			After: discord.NormalizeMember(m.GuildID, m.Member),
		}
		if m.BeforeUpdate != nil {
			event.Before = discord.NormalizeMember(m.GuildID, m.BeforeUpdate)
		}
		h.eventsUseCase.ProcessMemberUpdated(context.Background(), event)
	})()
}

func (h *DiscordEventsHandler) onUserUpdate(s *discordgo.Session, u *discordgo.UserUpdate) {
	h.alerts.WrapEventHandler("user_update", func() {
		// The gateway carries no before-state for user updates; the audit
		// layer records a full snapshot diff against nil.
		h.eventsUseCase.ProcessUserUpdated(context.Background(), models.UserUpdateEvent{
			After: discord.NormalizeUser(u.User),
		})
	})()
}

func (h *DiscordEventsHandler) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	h.alerts.WrapEventHandler("message_reaction_add", func() {
		h.eventsUseCase.ProcessReactionAdded(
			context.Background(), r.GuildID, r.ChannelID, r.MessageID, r.UserID, r.Emoji.Name,
		)
	})()
}

func (h *DiscordEventsHandler) onChannelCreate(s *discordgo.Session, c *discordgo.ChannelCreate) {
	h.alerts.WrapEventHandler("channel_create", func() {
		h.eventsUseCase.ProcessChannelCreated(context.Background(), discord.NormalizeChannel(c.Channel))
	})()
}

func (h *DiscordEventsHandler) onChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	h.alerts.WrapEventHandler("channel_delete", func() {
		h.eventsUseCase.ProcessChannelDeleted(context.Background(), c.ID, c.GuildID)
	})()
}

func (h *DiscordEventsHandler) onThreadCreate(s *discordgo.Session, t *discordgo.ThreadCreate) {
	h.alerts.WrapEventHandler("thread_create", func() {
		h.eventsUseCase.ProcessThreadCreated(context.Background(), discord.NormalizeChannel(t.Channel))
	})()
}

func (h *DiscordEventsHandler) onThreadUpdate(s *discordgo.Session, t *discordgo.ThreadUpdate) {
	h.alerts.WrapEventHandler("thread_update", func() {
		h.eventsUseCase.ProcessThreadUpdated(context.Background(), discord.NormalizeChannel(t.Channel))
	})()
}

func (h *DiscordEventsHandler) onThreadDelete(s *discordgo.Session, t *discordgo.ThreadDelete) {
	h.alerts.WrapEventHandler("thread_delete", func() {
		h.eventsUseCase.ProcessThreadDeleted(context.Background(), t.ID, t.ParentID)
	})()
}
