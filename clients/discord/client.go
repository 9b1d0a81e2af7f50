package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"sentdebot/clients"
	"sentdebot/models"
)

// GatewayClient implements the clients.Gateway interface on top of an open
// discordgo session.
type GatewayClient struct {
	session *discordgo.Session
}

func NewGatewayClient(session *discordgo.Session) *GatewayClient {
	return &GatewayClient{session: session}
}

func (c *GatewayClient) GetBotUser(ctx context.Context) (*models.GatewayUser, error) {
	user, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to fetch bot user", err)
	}
	return NormalizeUser(user), nil
}

func (c *GatewayClient) FetchMessage(ctx context.Context, channelID, messageID string) (*models.GatewayMessage, error) {
	message, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to fetch message", err)
	}
	channel, err := c.FetchChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return NormalizeMessage(message, channel), nil
}

func (c *GatewayClient) FetchMember(ctx context.Context, guildID, userID string) (*models.GatewayMember, error) {
	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to fetch guild member", err)
	}
	return NormalizeMember(guildID, member), nil
}

func (c *GatewayClient) FetchUser(ctx context.Context, userID string) (*models.GatewayUser, error) {
	user, err := c.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to fetch user", err)
	}
	return NormalizeUser(user), nil
}

func (c *GatewayClient) FetchChannel(ctx context.Context, channelID string) (*models.GatewayChannel, error) {
	channel, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to fetch channel", err)
	}
	return NormalizeChannel(channel), nil
}

func (c *GatewayClient) ListGuildChannels(ctx context.Context, guildID string) ([]*models.GatewayChannel, error) {
	channels, err := c.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to list guild channels", err)
	}
	result := make([]*models.GatewayChannel, 0, len(channels))
	for _, channel := range channels {
		if !isMessageChannel(channel.Type) {
			continue
		}
		result = append(result, NormalizeChannel(channel))
	}
	return result, nil
}

func (c *GatewayClient) ListActiveThreads(ctx context.Context, guildID string) ([]*models.GatewayChannel, error) {
	threads, err := c.session.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to list active threads", err)
	}
	result := make([]*models.GatewayChannel, 0, len(threads.Threads))
	for _, thread := range threads.Threads {
		result = append(result, NormalizeChannel(thread))
	}
	return result, nil
}

func (c *GatewayClient) ListGuildMembers(ctx context.Context, guildID, afterUserID string, limit int) ([]*models.GatewayMember, error) {
	members, err := c.session.GuildMembers(guildID, afterUserID, limit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to list guild members", err)
	}
	result := make([]*models.GatewayMember, 0, len(members))
	for _, member := range members {
		result = append(result, NormalizeMember(guildID, member))
	}
	return result, nil
}

func (c *GatewayClient) ChannelMessages(ctx context.Context, channelID, afterMessageID string, limit int) ([]*models.GatewayMessage, error) {
	channel, err := c.FetchChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	messages, err := c.session.ChannelMessages(channelID, limit, "", afterMessageID, "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("failed to fetch channel history page", err)
	}
	result := make([]*models.GatewayMessage, 0, len(messages))
	// The history endpoint returns newest first; backfill wants
	// chronological order.
	for i := len(messages) - 1; i >= 0; i-- {
		result = append(result, NormalizeMessage(messages[i], channel))
	}
	return result, nil
}

func (c *GatewayClient) SendChannelMessage(ctx context.Context, channelID, content string) error {
	if _, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return mapError("failed to send channel message", err)
	}
	return nil
}

func (c *GatewayClient) LockThread(ctx context.Context, threadID, reason string) error {
	archived := true
	locked := true
	_, err := c.session.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return mapError(fmt.Sprintf("failed to lock thread (%s)", reason), err)
	}
	return nil
}

// mapError translates discordgo failures onto the gateway sentinel errors so
// callers can branch without importing the SDK.
func mapError(msg string, err error) error {
	var rateLimitErr *discordgo.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: %w", msg, clients.ErrRateLimited)
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w", msg, clients.ErrRateLimited)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w", msg, clients.ErrForbidden)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", msg, clients.ErrNotFound)
		}
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func isMessageChannel(channelType discordgo.ChannelType) bool {
	switch channelType {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildStageVoice,
		discordgo.ChannelTypeGuildForum:
		return true
	}
	return false
}

func isThreadChannel(channelType discordgo.ChannelType) bool {
	return channelType == discordgo.ChannelTypeGuildPublicThread ||
		channelType == discordgo.ChannelTypeGuildPrivateThread ||
		channelType == discordgo.ChannelTypeGuildNewsThread
}

// NormalizeUser maps a Discord SDK user onto our gateway model. The account
// creation time is decoded from the snowflake id.
func NormalizeUser(user *discordgo.User) *models.GatewayUser {
	createdAt, _ := discordgo.SnowflakeTimestamp(user.ID)
	return &models.GatewayUser{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL(""),
		Bot:       user.Bot,
		System:    user.System,
		CreatedAt: createdAt,
	}
}

func NormalizeMember(guildID string, member *discordgo.Member) *models.GatewayMember {
	nick := member.Nick
	if nick == "" && member.User != nil {
		nick = member.User.Username
	}
	normalized := &models.GatewayMember{
		GuildID:   guildID,
		Nick:      nick,
		AvatarURL: member.AvatarURL(""),
		Premium:   member.PremiumSince != nil,
		JoinedAt:  member.JoinedAt,
	}
	if member.User != nil {
		normalized.User = *NormalizeUser(member.User)
	}
	return normalized
}

func NormalizeChannel(channel *discordgo.Channel) *models.GatewayChannel {
	normalized := &models.GatewayChannel{
		ID:            channel.ID,
		GuildID:       channel.GuildID,
		Name:          channel.Name,
		IsThread:      isThreadChannel(channel.Type),
		ParentID:      channel.ParentID,
		OwnerID:       channel.OwnerID,
		LastMessageID: channel.LastMessageID,
	}
	if channel.ThreadMetadata != nil {
		normalized.Archived = channel.ThreadMetadata.Archived
		normalized.Locked = channel.ThreadMetadata.Locked
	}
	return normalized
}

// NormalizeMessage maps a Discord SDK message onto our gateway model,
// resolving thread messages to their parent channel. channel describes the
// channel the message was fetched from and may be a thread.
func NormalizeMessage(message *discordgo.Message, channel *models.GatewayChannel) *models.GatewayMessage {
	normalized := &models.GatewayMessage{
		ID:        message.ID,
		GuildID:   message.GuildID,
		ChannelID: message.ChannelID,
		Content:   message.Content,
		CreatedAt: message.Timestamp,
		EditedAt:  message.EditedTimestamp,
	}
	if channel != nil && channel.IsThread {
		threadID := channel.ID
		normalized.ChannelID = channel.ParentID
		normalized.ThreadID = &threadID
	}
	if normalized.GuildID == "" && channel != nil {
		normalized.GuildID = channel.GuildID
	}
	if message.Author != nil {
		normalized.Author = *NormalizeUser(message.Author)
	}
	if message.Member != nil && message.Author != nil {
		// Message payloads carry a partial member without the user object.
		member := *message.Member
		member.User = message.Author
		normalized.Member = NormalizeMember(normalized.GuildID, &member)
	}
	for _, attachment := range message.Attachments {
		normalized.Attachments = append(normalized.Attachments, models.GatewayAttachment{
			ID:       attachment.ID,
			Filename: attachment.Filename,
			URL:      attachment.URL,
		})
	}
	return normalized
}
