package messages

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentdebot/models"
)

type mockMessagesRepo struct {
	mock.Mock
}

func (m *mockMessagesRepo) GetMessageByID(ctx context.Context, id string) (mo.Option[*models.Message], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Message]), args.Error(1)
}

func (m *mockMessagesRepo) GetMessageAttachments(
	ctx context.Context,
	messageID string,
) ([]models.MessageAttachment, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MessageAttachment), args.Error(1)
}

func (m *mockMessagesRepo) InsertMessage(ctx context.Context, message *models.Message) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}

func (m *mockMessagesRepo) UpdateMessageContent(
	ctx context.Context,
	id string,
	content *string,
	editedAt *time.Time,
) (bool, error) {
	args := m.Called(ctx, id, content, editedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockMessagesRepo) ReplaceMessageAttachments(
	ctx context.Context,
	messageID string,
	attachments []models.MessageAttachment,
) error {
	args := m.Called(ctx, messageID, attachments)
	return args.Error(0)
}

func (m *mockMessagesRepo) GetLastMetricAuthor(
	ctx context.Context,
	channelID string,
	threadID *string,
) (mo.Option[string], error) {
	args := m.Called(ctx, channelID, threadID)
	return args.Get(0).(mo.Option[string]), args.Error(1)
}

func (m *mockMessagesRepo) GetMessageMetrics(
	ctx context.Context,
	guildID string,
	daysBack int,
) ([]*models.MessageMetric, error) {
	args := m.Called(ctx, guildID, daysBack)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MessageMetric), args.Error(1)
}

func (m *mockMessagesRepo) ListGuildMessagesPage(
	ctx context.Context,
	guildID string,
	authorID *string,
	beforeCreatedAt *time.Time,
	limit int,
) ([]*models.Message, error) {
	args := m.Called(ctx, guildID, authorID, beforeCreatedAt, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *mockMessagesRepo) GetMessagesOfMember(
	ctx context.Context,
	userID, guildID string,
	hoursBack float64,
) ([]*models.Message, error) {
	args := m.Called(ctx, userID, guildID, hoursBack)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *mockMessagesRepo) DeleteMessage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockMessagesRepo) DeleteMessagesOlderThan(ctx context.Context, days int) (int64, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(int64), args.Error(1)
}

type mockConsentStore struct {
	mock.Mock
}

func (m *mockConsentStore) GetMemberCollectData(ctx context.Context, userID, guildID string) (bool, error) {
	args := m.Called(ctx, userID, guildID)
	return args.Bool(0), args.Error(1)
}

func gatewayMessage(id, authorID, content string) *models.GatewayMessage {
	return &models.GatewayMessage{
		ID:        id,
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		Author:    models.GatewayUser{ID: authorID, Username: "user-" + authorID},
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func TestUpsertMessage_FirstMessageCountsForMetrics(t *testing.T) {
	repo := new(mockMessagesRepo)
	consent := new(mockConsentStore)
	svc := NewMessagesService(repo, consent)

	consent.On("GetMemberCollectData", mock.Anything, "author-a", "guild-1").Return(true, nil)
	repo.On("GetLastMetricAuthor", mock.Anything, "chan-1", (*string)(nil)).Return(mo.None[string](), nil)
	repo.On("InsertMessage", mock.Anything, mock.MatchedBy(func(msg *models.Message) bool {
		return msg.UseForMetrics && msg.Content != nil && *msg.Content == "hello"
	})).Return(true, nil)

	err := svc.UpsertMessage(context.Background(), gatewayMessage("msg-1", "author-a", "hello"))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpsertMessage_ConsecutiveSameAuthorNotCounted(t *testing.T) {
	repo := new(mockMessagesRepo)
	consent := new(mockConsentStore)
	svc := NewMessagesService(repo, consent)

	consent.On("GetMemberCollectData", mock.Anything, "author-a", "guild-1").Return(true, nil)
	repo.On("GetLastMetricAuthor", mock.Anything, "chan-1", (*string)(nil)).Return(mo.Some("author-a"), nil)
	repo.On("InsertMessage", mock.Anything, mock.MatchedBy(func(msg *models.Message) bool {
		return !msg.UseForMetrics
	})).Return(true, nil)

	err := svc.UpsertMessage(context.Background(), gatewayMessage("msg-2", "author-a", "again"))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpsertMessage_DifferentAuthorResetsScope(t *testing.T) {
	repo := new(mockMessagesRepo)
	consent := new(mockConsentStore)
	svc := NewMessagesService(repo, consent)

	consent.On("GetMemberCollectData", mock.Anything, "author-b", "guild-1").Return(true, nil)
	repo.On("GetLastMetricAuthor", mock.Anything, "chan-1", (*string)(nil)).Return(mo.Some("author-a"), nil)
	repo.On("InsertMessage", mock.Anything, mock.MatchedBy(func(msg *models.Message) bool {
		return msg.UseForMetrics
	})).Return(true, nil)

	err := svc.UpsertMessage(context.Background(), gatewayMessage("msg-3", "author-b", "reply"))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpsertMessage_ThreadScopeIndependentOfParent(t *testing.T) {
	repo := new(mockMessagesRepo)
	consent := new(mockConsentStore)
	svc := NewMessagesService(repo, consent)

	threadID := "thread-9"
	msg := gatewayMessage("msg-4", "author-a", "in thread")
	msg.ThreadID = &threadID

	consent.On("GetMemberCollectData", mock.Anything, "author-a", "guild-1").Return(true, nil)
	repo.On("GetLastMetricAuthor", mock.Anything, "chan-1", &threadID).Return(mo.None[string](), nil)
	repo.On("InsertMessage", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
		return m.UseForMetrics && m.ThreadID != nil && *m.ThreadID == "thread-9"
	})).Return(true, nil)

	err := svc.UpsertMessage(context.Background(), msg)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpsertMessage_OptedOutAuthorContentWithheld(t *testing.T) {
	repo := new(mockMessagesRepo)
	consent := new(mockConsentStore)
	svc := NewMessagesService(repo, consent)

	msg := gatewayMessage("msg-5", "author-a", "secret")
	msg.Attachments = []models.GatewayAttachment{{ID: "att-1", Filename: "f.png", URL: "https://x/f.png"}}

	consent.On("GetMemberCollectData", mock.Anything, "author-a", "guild-1").Return(false, nil)
	repo.On("GetLastMetricAuthor", mock.Anything, "chan-1", (*string)(nil)).Return(mo.None[string](), nil)
	repo.On("InsertMessage", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
		// Row still written for metrics, content withheld.
		return m.Content == nil && m.UseForMetrics
	})).Return(true, nil)

	err := svc.UpsertMessage(context.Background(), msg)
	require.NoError(t, err)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "ReplaceMessageAttachments", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpsertMessage_ExistingRowRefreshedNotReinserted(t *testing.T) {
	repo := new(mockMessagesRepo)
	consent := new(mockConsentStore)
	svc := NewMessagesService(repo, consent)

	editedAt := time.Now().UTC()
	msg := gatewayMessage("msg-6", "author-a", "edited text")
	msg.EditedAt = &editedAt

	consent.On("GetMemberCollectData", mock.Anything, "author-a", "guild-1").Return(true, nil)
	repo.On("GetLastMetricAuthor", mock.Anything, "chan-1", (*string)(nil)).Return(mo.Some("author-a"), nil)
	repo.On("InsertMessage", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("UpdateMessageContent", mock.Anything, "msg-6", mock.MatchedBy(func(c *string) bool {
		return c != nil && *c == "edited text"
	}), &editedAt).Return(true, nil)
	repo.On("ReplaceMessageAttachments", mock.Anything, "msg-6", mock.Anything).Return(nil)

	err := svc.UpsertMessage(context.Background(), msg)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpsertMessage_EditRemovingAttachmentsClearsStoredRows(t *testing.T) {
	repo := new(mockMessagesRepo)
	consent := new(mockConsentStore)
	svc := NewMessagesService(repo, consent)

	msg := gatewayMessage("msg-7", "author-a", "text without attachments anymore")

	consent.On("GetMemberCollectData", mock.Anything, "author-a", "guild-1").Return(true, nil)
	repo.On("GetLastMetricAuthor", mock.Anything, "chan-1", (*string)(nil)).Return(mo.Some("author-a"), nil)
	repo.On("InsertMessage", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("UpdateMessageContent", mock.Anything, "msg-7", mock.Anything, mock.Anything).Return(true, nil)
	repo.On("ReplaceMessageAttachments", mock.Anything, "msg-7",
		mock.MatchedBy(func(attachments []models.MessageAttachment) bool {
			return len(attachments) == 0
		})).Return(nil)

	err := svc.UpsertMessage(context.Background(), msg)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpsertMessage_RejectsEmptyIDs(t *testing.T) {
	svc := NewMessagesService(new(mockMessagesRepo), new(mockConsentStore))

	err := svc.UpsertMessage(context.Background(), &models.GatewayMessage{ChannelID: "chan-1"})
	assert.Error(t, err)

	err = svc.UpsertMessage(context.Background(), &models.GatewayMessage{ID: "msg-1"})
	assert.Error(t, err)
}

func strPtr(s string) *string { return &s }

func TestSearchMessages_RanksByEditDistance(t *testing.T) {
	repo := new(mockMessagesRepo)
	svc := NewMessagesService(repo, new(mockConsentStore))

	now := time.Now().UTC()
	page := []*models.Message{
		{ID: "msg-1", Content: strPtr("totally unrelated words"), CreatedAt: now},
		{ID: "msg-2", Content: strPtr("deploi the service"), CreatedAt: now.Add(-time.Minute)},
		{ID: "msg-3", Content: strPtr("time to deploy now"), CreatedAt: now.Add(-2 * time.Minute)},
		{ID: "msg-4", Content: nil, CreatedAt: now.Add(-3 * time.Minute)},
	}
	repo.On("ListGuildMessagesPage", mock.Anything, "guild-1", (*string)(nil), (*time.Time)(nil), searchPageSize).
		Return(page, nil)
	repo.On("ListGuildMessagesPage", mock.Anything, "guild-1", (*string)(nil), mock.Anything, searchPageSize).
		Return([]*models.Message{}, nil)

	results, err := svc.SearchMessages(context.Background(), "guild-1", "deploy", 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "msg-3", results[0].ID)
	assert.Equal(t, "msg-2", results[1].ID)
}

func TestSearchMessages_HonorsLimit(t *testing.T) {
	repo := new(mockMessagesRepo)
	svc := NewMessagesService(repo, new(mockConsentStore))

	now := time.Now().UTC()
	page := []*models.Message{
		{ID: "msg-1", Content: strPtr("hello there"), CreatedAt: now},
		{ID: "msg-2", Content: strPtr("hello again"), CreatedAt: now.Add(-time.Minute)},
		{ID: "msg-3", Content: strPtr("hello third"), CreatedAt: now.Add(-2 * time.Minute)},
	}
	repo.On("ListGuildMessagesPage", mock.Anything, "guild-1", (*string)(nil), (*time.Time)(nil), searchPageSize).
		Return(page, nil)
	repo.On("ListGuildMessagesPage", mock.Anything, "guild-1", (*string)(nil), mock.Anything, searchPageSize).
		Return([]*models.Message{}, nil)

	results, err := svc.SearchMessages(context.Background(), "guild-1", "hello", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchMessages_RejectsInvalidInput(t *testing.T) {
	svc := NewMessagesService(new(mockMessagesRepo), new(mockConsentStore))

	_, err := svc.SearchMessages(context.Background(), "", "term", 10)
	assert.Error(t, err)

	_, err = svc.SearchMessages(context.Background(), "guild-1", "   ", 10)
	assert.Error(t, err)

	_, err = svc.SearchMessages(context.Background(), "guild-1", "term", 0)
	assert.Error(t, err)
}

func TestBestWordDistance(t *testing.T) {
	dist, ok := bestWordDistance("Deploy finished", "deploy")
	require.True(t, ok)
	assert.Equal(t, 0, dist)

	dist, ok = bestWordDistance("deploi finished", "deploy")
	require.True(t, ok)
	assert.Equal(t, 1, dist)

	_, ok = bestWordDistance("   ", "deploy")
	assert.False(t, ok)
}
