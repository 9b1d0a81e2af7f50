package messages

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"sentdebot/models"
)

// MockMessagesService is a mock implementation of the MessagesService interface
type MockMessagesService struct {
	mock.Mock
}

func (m *MockMessagesService) UpsertMessage(ctx context.Context, message *models.GatewayMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessagesService) GetMessageByID(ctx context.Context, id string) (mo.Option[*models.Message], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Message]), args.Error(1)
}

func (m *MockMessagesService) GetMessageAttachments(
	ctx context.Context,
	messageID string,
) ([]models.MessageAttachment, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MessageAttachment), args.Error(1)
}

func (m *MockMessagesService) GetMessageMetrics(
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

func (m *MockMessagesService) GetMessagesOfMember(
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

func (m *MockMessagesService) SearchMessages(
	ctx context.Context,
	guildID, term string,
	limit int,
) ([]*models.Message, error) {
	args := m.Called(ctx, guildID, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockMessagesService) DeleteMessage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessagesService) DeleteMessagesOlderThan(ctx context.Context, days int) (int64, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(int64), args.Error(1)
}
