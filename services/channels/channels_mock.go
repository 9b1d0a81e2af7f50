package channels

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"sentdebot/models"
)

// MockChannelsService is a mock implementation of the ChannelsService interface
type MockChannelsService struct {
	mock.Mock
}

func (m *MockChannelsService) UpsertChannel(ctx context.Context, channel *models.GatewayChannel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockChannelsService) UpsertThread(ctx context.Context, thread *models.GatewayChannel) error {
	args := m.Called(ctx, thread)
	return args.Error(0)
}

func (m *MockChannelsService) GetThread(ctx context.Context, id string) (mo.Option[*models.Thread], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Thread]), args.Error(1)
}

func (m *MockChannelsService) SetThreadState(ctx context.Context, id string, archived, locked bool) error {
	args := m.Called(ctx, id, archived, locked)
	return args.Error(0)
}

func (m *MockChannelsService) DeleteChannel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChannelsService) DeleteThread(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
