package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentdebot/cache"
	"sentdebot/models"
	"sentdebot/services/messages"
)

func newResolver(t *testing.T, msgs *messages.MockMessagesService) (*Resolver, *cache.MessageCache) {
	t.Helper()
	c, err := cache.NewMessageCache(16)
	require.NoError(t, err)
	return NewResolver(c, msgs), c
}

func TestResolveBefore_UpstreamPayloadWins(t *testing.T) {
	msgs := new(messages.MockMessagesService)
	r, c := newResolver(t, msgs)

	stale := &models.GatewayMessage{ID: "msg-1", Content: "own cache copy"}
	c.Put(stale)
	upstream := &models.GatewayMessage{ID: "msg-1", Content: "upstream copy"}

	before := r.ResolveBefore(context.Background(), "msg-1", upstream)

	assert.Equal(t, models.FidelityCache, before.Fidelity)
	assert.Equal(t, upstream, before.Message)
	msgs.AssertNotCalled(t, "GetMessageByID", mock.Anything, mock.Anything)
}

func TestResolveBefore_OwnCacheHit(t *testing.T) {
	msgs := new(messages.MockMessagesService)
	r, c := newResolver(t, msgs)

	cached := &models.GatewayMessage{ID: "msg-1", Content: "cached"}
	c.Put(cached)

	before := r.ResolveBefore(context.Background(), "msg-1", nil)

	assert.Equal(t, models.FidelityCache, before.Fidelity)
	assert.Equal(t, cached, before.Message)
}

func TestResolveBefore_StoreFallback(t *testing.T) {
	msgs := new(messages.MockMessagesService)
	r, _ := newResolver(t, msgs)

	guildID := "guild-1"
	content := "persisted"
	now := time.Now().UTC()
	row := &models.Message{
		ID:        "msg-1",
		AuthorID:  "user-1",
		GuildID:   &guildID,
		ChannelID: "chan-1",
		Content:   &content,
		CreatedAt: now,
	}
	msgs.On("GetMessageByID", mock.Anything, "msg-1").Return(mo.Some(row), nil)
	msgs.On("GetMessageAttachments", mock.Anything, "msg-1").Return([]models.MessageAttachment{
		{ID: "att-1", MessageID: "msg-1", Filename: "a.png", URL: "https://cdn.example/a.png"},
	}, nil)

	before := r.ResolveBefore(context.Background(), "msg-1", nil)

	assert.Equal(t, models.FidelityStore, before.Fidelity)
	require.NotNil(t, before.Message)
	assert.Equal(t, "persisted", before.Message.Content)
	assert.Equal(t, "user-1", before.Message.Author.ID)
	assert.Equal(t, "guild-1", before.Message.GuildID)
	require.Len(t, before.Message.Attachments, 1)
	assert.Equal(t, "https://cdn.example/a.png", before.Message.Attachments[0].URL)
}

func TestResolveBefore_AttachmentLookupFailureOmitsAttachments(t *testing.T) {
	msgs := new(messages.MockMessagesService)
	r, _ := newResolver(t, msgs)

	row := &models.Message{ID: "msg-1", AuthorID: "user-1", ChannelID: "chan-1"}
	msgs.On("GetMessageByID", mock.Anything, "msg-1").Return(mo.Some(row), nil)
	msgs.On("GetMessageAttachments", mock.Anything, "msg-1").
		Return(nil, errors.New("connection refused"))

	before := r.ResolveBefore(context.Background(), "msg-1", nil)

	assert.Equal(t, models.FidelityStore, before.Fidelity)
	require.NotNil(t, before.Message)
	assert.Empty(t, before.Message.Attachments)
}

func TestResolveBefore_UnknownWhenNothingRecoverable(t *testing.T) {
	msgs := new(messages.MockMessagesService)
	r, _ := newResolver(t, msgs)

	msgs.On("GetMessageByID", mock.Anything, "msg-1").Return(mo.None[*models.Message](), nil)

	before := r.ResolveBefore(context.Background(), "msg-1", nil)

	assert.Equal(t, models.FidelityUnknown, before.Fidelity)
	assert.Equal(t, "msg-1", before.MessageID)
	assert.Nil(t, before.Message)
}

func TestResolveBefore_StoreErrorDegradesToUnknown(t *testing.T) {
	msgs := new(messages.MockMessagesService)
	r, _ := newResolver(t, msgs)

	msgs.On("GetMessageByID", mock.Anything, "msg-1").
		Return(mo.None[*models.Message](), errors.New("connection refused"))

	before := r.ResolveBefore(context.Background(), "msg-1", nil)

	assert.Equal(t, models.FidelityUnknown, before.Fidelity)
	assert.Nil(t, before.Message)
}

func TestRebuildFromRow_WithheldContentIsEmpty(t *testing.T) {
	row := &models.Message{ID: "msg-1", AuthorID: "user-1", ChannelID: "chan-1"}
	msg := rebuildFromRow(row, nil)

	assert.Equal(t, "", msg.Content)
	assert.Equal(t, "", msg.GuildID)
	assert.Equal(t, "user-1", msg.Author.ID)
}
