package events

import (
	"context"
	"sync"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentdebot/cache"
	"sentdebot/clients"
	"sentdebot/clients/discord"
	"sentdebot/models"
	"sentdebot/services/messages"
)

type recordingConsumer struct {
	BaseConsumer

	mu        sync.Mutex
	created   []*models.GatewayMessage
	edited    []models.BeforeMessageContext
	deleted   []models.BeforeMessageContext
	reactions []*models.ReactionEvent
}

func (c *recordingConsumer) Name() string { return "recording" }

func (c *recordingConsumer) OnMessageCreated(ctx context.Context, message *models.GatewayMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, message)
	return nil
}

func (c *recordingConsumer) OnMessageEdited(
	ctx context.Context,
	before models.BeforeMessageContext,
	after *models.GatewayMessage,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edited = append(c.edited, before)
	return nil
}

func (c *recordingConsumer) OnMessageDeleted(
	ctx context.Context,
	before models.BeforeMessageContext,
	channelID, guildID string,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, before)
	return nil
}

func (c *recordingConsumer) OnReactionAdded(ctx context.Context, event *models.ReactionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reactions = append(c.reactions, event)
	return nil
}

type eventsFixture struct {
	usecase  *EventsUseCase
	consumer *recordingConsumer
	gateway  *discord.MockGateway
	msgs     *messages.MockMessagesService
	cache    *cache.MessageCache
}

func newEventsFixture(t *testing.T) *eventsFixture {
	t.Helper()

	gateway := new(discord.MockGateway)
	msgs := new(messages.MockMessagesService)
	consumer := &recordingConsumer{}
	msgCache, err := cache.NewMessageCache(16)
	require.NoError(t, err)

	usecase := NewEventsUseCase(
		gateway,
		NewDispatcher(consumer),
		NewResolver(msgCache, msgs),
		msgCache,
		"bot-user",
		"sentdebot.",
	)
	return &eventsFixture{usecase: usecase, consumer: consumer, gateway: gateway, msgs: msgs, cache: msgCache}
}

func userMessage(id, authorID, content string) *models.GatewayMessage {
	return &models.GatewayMessage{
		ID:        id,
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		Author:    models.GatewayUser{ID: authorID, Username: "name-" + authorID},
		Content:   content,
	}
}

func TestProcessMessageCreated_DispatchesAndCaches(t *testing.T) {
	f := newEventsFixture(t)

	msg := userMessage("msg-1", "user-1", "hello")
	f.usecase.ProcessMessageCreated(context.Background(), msg)

	require.Len(t, f.consumer.created, 1)
	cached, ok := f.cache.Get("msg-1")
	require.True(t, ok)
	assert.Equal(t, msg, cached)
}

func TestProcessMessageCreated_FiltersNoise(t *testing.T) {
	f := newEventsFixture(t)

	botMsg := userMessage("msg-1", "other-bot", "hi")
	botMsg.Author.Bot = true
	f.usecase.ProcessMessageCreated(context.Background(), botMsg)

	ownMsg := userMessage("msg-2", "bot-user", "own message")
	f.usecase.ProcessMessageCreated(context.Background(), ownMsg)

	systemMsg := userMessage("msg-3", "sys", "pin added")
	systemMsg.Author.System = true
	f.usecase.ProcessMessageCreated(context.Background(), systemMsg)

	command := userMessage("msg-4", "user-1", "sentdebot.help")
	f.usecase.ProcessMessageCreated(context.Background(), command)

	assert.Empty(t, f.consumer.created)
	assert.Equal(t, 0, f.cache.Len())
}

func TestProcessMessageUpdated_PartialPayloadFetchesAfterState(t *testing.T) {
	f := newEventsFixture(t)

	fetched := userMessage("msg-1", "user-1", "current text")
	f.gateway.On("FetchMessage", mock.Anything, "chan-1", "msg-1").Return(fetched, nil)
	f.msgs.On("GetMessageByID", mock.Anything, "msg-1").Return(mo.None[*models.Message](), nil)

	f.usecase.ProcessMessageUpdated(context.Background(), models.RawMessageUpdate{
		MessageID: "msg-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
	})

	require.Len(t, f.consumer.edited, 1)
	assert.Equal(t, models.FidelityUnknown, f.consumer.edited[0].Fidelity)

	cached, ok := f.cache.Get("msg-1")
	require.True(t, ok)
	assert.Equal(t, "current text", cached.Content)
}

func TestProcessMessageUpdated_DroppedWhenFetchFails(t *testing.T) {
	f := newEventsFixture(t)

	f.gateway.On("FetchMessage", mock.Anything, "chan-1", "msg-1").
		Return(nil, clients.ErrNotFound)

	f.usecase.ProcessMessageUpdated(context.Background(), models.RawMessageUpdate{
		MessageID: "msg-1",
		ChannelID: "chan-1",
	})

	assert.Empty(t, f.consumer.edited)
}

func TestProcessMessageUpdated_CacheUpdatedOnlyAfterDispatch(t *testing.T) {
	f := newEventsFixture(t)

	original := userMessage("msg-1", "user-1", "original")
	f.cache.Put(original)

	edited := userMessage("msg-1", "user-1", "edited")
	f.usecase.ProcessMessageUpdated(context.Background(), models.RawMessageUpdate{
		MessageID: "msg-1",
		ChannelID: "chan-1",
		After:     edited,
	})

	// Consumer saw the pre-event state via the resolver.
	require.Len(t, f.consumer.edited, 1)
	assert.Equal(t, models.FidelityCache, f.consumer.edited[0].Fidelity)
	assert.Equal(t, "original", f.consumer.edited[0].Message.Content)

	// Cache now holds the post-event state.
	cached, ok := f.cache.Get("msg-1")
	require.True(t, ok)
	assert.Equal(t, "edited", cached.Content)
}

func TestProcessMessageDeleted_RemovesFromCache(t *testing.T) {
	f := newEventsFixture(t)

	f.cache.Put(userMessage("msg-1", "user-1", "bye"))

	f.usecase.ProcessMessageDeleted(context.Background(), models.RawMessageDelete{
		MessageID: "msg-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
	})

	require.Len(t, f.consumer.deleted, 1)
	assert.Equal(t, models.FidelityCache, f.consumer.deleted[0].Fidelity)
	_, ok := f.cache.Get("msg-1")
	assert.False(t, ok)
}

func TestProcessMessageDeleted_UnknownBeforeStillDispatched(t *testing.T) {
	f := newEventsFixture(t)

	f.msgs.On("GetMessageByID", mock.Anything, "msg-1").Return(mo.None[*models.Message](), nil)

	f.usecase.ProcessMessageDeleted(context.Background(), models.RawMessageDelete{
		MessageID: "msg-1",
		ChannelID: "chan-1",
	})

	require.Len(t, f.consumer.deleted, 1)
	assert.Equal(t, models.FidelityUnknown, f.consumer.deleted[0].Fidelity)
}

func TestProcessMessageDeleted_KnownBotMessageFiltered(t *testing.T) {
	f := newEventsFixture(t)

	botMsg := userMessage("msg-1", "other-bot", "bot text")
	botMsg.Author.Bot = true
	f.cache.Put(botMsg)

	f.usecase.ProcessMessageDeleted(context.Background(), models.RawMessageDelete{
		MessageID: "msg-1",
		ChannelID: "chan-1",
	})

	assert.Empty(t, f.consumer.deleted)
	_, ok := f.cache.Get("msg-1")
	assert.False(t, ok)
}

func TestProcessReactionAdded_ResolvesThreadLocation(t *testing.T) {
	f := newEventsFixture(t)

	f.gateway.On("FetchChannel", mock.Anything, "thread-5").Return(&models.GatewayChannel{
		ID:       "thread-5",
		GuildID:  "guild-1",
		IsThread: true,
		ParentID: "chan-1",
	}, nil)

	f.usecase.ProcessReactionAdded(context.Background(), "guild-1", "thread-5", "msg-1", "user-1", "✅")

	require.Len(t, f.consumer.reactions, 1)
	reaction := f.consumer.reactions[0]
	assert.Equal(t, "chan-1", reaction.ChannelID)
	require.NotNil(t, reaction.ThreadID)
	assert.Equal(t, "thread-5", *reaction.ThreadID)
	assert.Equal(t, "✅", reaction.EmojiName)
}

func TestProcessReactionAdded_DroppedWhenChannelUnresolvable(t *testing.T) {
	f := newEventsFixture(t)

	f.gateway.On("FetchChannel", mock.Anything, "chan-gone").Return(nil, clients.ErrNotFound)

	f.usecase.ProcessReactionAdded(context.Background(), "guild-1", "chan-gone", "msg-1", "user-1", "✅")

	assert.Empty(t, f.consumer.reactions)
}

func TestProcessReactionAdded_IgnoresOwnReactions(t *testing.T) {
	f := newEventsFixture(t)

	f.usecase.ProcessReactionAdded(context.Background(), "guild-1", "chan-1", "msg-1", "bot-user", "✅")

	assert.Empty(t, f.consumer.reactions)
	f.gateway.AssertNotCalled(t, "FetchChannel", mock.Anything, mock.Anything)
}
