package collection

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentdebot/models"
	"sentdebot/services/channels"
	"sentdebot/services/helpthreads"
	"sentdebot/services/messages"
	"sentdebot/services/users"
)

type fixture struct {
	consumer *Consumer
	msgs     *messages.MockMessagesService
	usrs     *users.MockUsersService
	chans    *channels.MockChannelsService
	help     *helpthreads.MockHelpThreadsService
}

func newFixture() *fixture {
	msgs := new(messages.MockMessagesService)
	usrs := new(users.MockUsersService)
	chans := new(channels.MockChannelsService)
	help := new(helpthreads.MockHelpThreadsService)
	return &fixture{
		consumer: NewConsumer(msgs, usrs, chans, help, "forum-1"),
		msgs:     msgs,
		usrs:     usrs,
		chans:    chans,
		help:     help,
	}
}

func TestOnMessageCreated_PersistsMessage(t *testing.T) {
	f := newFixture()

	msg := &models.GatewayMessage{ID: "msg-1", ChannelID: "chan-1"}
	f.msgs.On("UpsertMessage", mock.Anything, msg).Return(nil)

	err := f.consumer.OnMessageCreated(context.Background(), msg)
	require.NoError(t, err)
	f.msgs.AssertExpectations(t)
	f.help.AssertNotCalled(t, "TouchActivity", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnMessageCreated_TrackedThreadActivityBumped(t *testing.T) {
	f := newFixture()

	threadID := "thread-1"
	createdAt := time.Now().UTC()
	msg := &models.GatewayMessage{ID: "msg-1", ChannelID: "chan-1", ThreadID: &threadID, CreatedAt: createdAt}

	f.msgs.On("UpsertMessage", mock.Anything, msg).Return(nil)
	f.help.On("GetHelpThread", mock.Anything, "thread-1").
		Return(mo.Some(&models.HelpThread{ThreadID: "thread-1", OwnerID: "user-1"}), nil)
	f.help.On("TouchActivity", mock.Anything, "thread-1", createdAt).Return(nil)

	err := f.consumer.OnMessageCreated(context.Background(), msg)
	require.NoError(t, err)
	f.help.AssertExpectations(t)
}

func TestOnMessageCreated_UntrackedThreadNotTouched(t *testing.T) {
	f := newFixture()

	threadID := "thread-2"
	msg := &models.GatewayMessage{ID: "msg-1", ChannelID: "chan-1", ThreadID: &threadID}

	f.msgs.On("UpsertMessage", mock.Anything, msg).Return(nil)
	f.help.On("GetHelpThread", mock.Anything, "thread-2").Return(mo.None[*models.HelpThread](), nil)

	err := f.consumer.OnMessageCreated(context.Background(), msg)
	require.NoError(t, err)
	f.help.AssertNotCalled(t, "TouchActivity", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnMessageDeleted_RemovesStoredRow(t *testing.T) {
	f := newFixture()

	f.msgs.On("DeleteMessage", mock.Anything, "msg-1").Return(nil)

	err := f.consumer.OnMessageDeleted(context.Background(), models.UnknownBefore("msg-1"), "chan-1", "guild-1")
	require.NoError(t, err)
	f.msgs.AssertExpectations(t)
}

func TestOnThreadCreated_HelpForumThreadTracked(t *testing.T) {
	f := newFixture()

	thread := &models.GatewayChannel{
		ID:       "thread-1",
		GuildID:  "guild-1",
		Name:     "how do I...",
		IsThread: true,
		ParentID: "forum-1",
		OwnerID:  "user-1",
	}
	f.chans.On("UpsertThread", mock.Anything, thread).Return(nil)
	f.help.On("RegisterHelpThread", mock.Anything, "thread-1", "user-1", (*string)(nil), mock.Anything).Return(nil)

	err := f.consumer.OnThreadCreated(context.Background(), thread)
	require.NoError(t, err)
	f.help.AssertExpectations(t)
}

func TestOnThreadCreated_NonForumThreadNotTracked(t *testing.T) {
	f := newFixture()

	thread := &models.GatewayChannel{
		ID:       "thread-1",
		IsThread: true,
		ParentID: "chan-other",
		OwnerID:  "user-1",
	}
	f.chans.On("UpsertThread", mock.Anything, thread).Return(nil)

	err := f.consumer.OnThreadCreated(context.Background(), thread)
	require.NoError(t, err)
	f.help.AssertNotCalled(t, "RegisterHelpThread",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOnThreadDeleted_TrackedHelpThreadUntracked(t *testing.T) {
	f := newFixture()

	f.chans.On("DeleteThread", mock.Anything, "thread-1").Return(nil)
	f.help.On("GetHelpThread", mock.Anything, "thread-1").
		Return(mo.Some(&models.HelpThread{ThreadID: "thread-1"}), nil)
	f.help.On("Resolve", mock.Anything, "thread-1").Return(nil)

	err := f.consumer.OnThreadDeleted(context.Background(), "thread-1", "forum-1")
	require.NoError(t, err)
	f.help.AssertExpectations(t)
}

func TestOnMemberLeft_MarksDeparture(t *testing.T) {
	f := newFixture()

	f.usrs.On("SetMemberLeft", mock.Anything, "user-1", "guild-1", mock.Anything).Return(nil)

	err := f.consumer.OnMemberLeft(context.Background(), "guild-1", "user-1")
	require.NoError(t, err)
	f.usrs.AssertExpectations(t)
}

func TestOnReactionAdded_ThreadReactionCountsAsActivity(t *testing.T) {
	f := newFixture()

	threadID := "thread-1"
	f.help.On("GetHelpThread", mock.Anything, "thread-1").
		Return(mo.Some(&models.HelpThread{ThreadID: "thread-1"}), nil)
	f.help.On("TouchActivity", mock.Anything, "thread-1", mock.Anything).Return(nil)

	err := f.consumer.OnReactionAdded(context.Background(), &models.ReactionEvent{
		ChannelID: "chan-1",
		ThreadID:  &threadID,
		MessageID: "msg-1",
		UserID:    "user-2",
		EmojiName: "✅",
	})
	require.NoError(t, err)
	f.help.AssertExpectations(t)
}
