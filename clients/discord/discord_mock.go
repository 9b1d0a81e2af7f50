package discord

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sentdebot/models"
)

// MockGateway is a mock implementation of the clients.Gateway interface
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetBotUser(ctx context.Context) (*models.GatewayUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayUser), args.Error(1)
}

func (m *MockGateway) FetchMessage(ctx context.Context, channelID, messageID string) (*models.GatewayMessage, error) {
	args := m.Called(ctx, channelID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayMessage), args.Error(1)
}

func (m *MockGateway) FetchMember(ctx context.Context, guildID, userID string) (*models.GatewayMember, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayMember), args.Error(1)
}

func (m *MockGateway) FetchUser(ctx context.Context, userID string) (*models.GatewayUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayUser), args.Error(1)
}

func (m *MockGateway) FetchChannel(ctx context.Context, channelID string) (*models.GatewayChannel, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GatewayChannel), args.Error(1)
}

func (m *MockGateway) ListGuildChannels(ctx context.Context, guildID string) ([]*models.GatewayChannel, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GatewayChannel), args.Error(1)
}

func (m *MockGateway) ListActiveThreads(ctx context.Context, guildID string) ([]*models.GatewayChannel, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GatewayChannel), args.Error(1)
}

func (m *MockGateway) ListGuildMembers(ctx context.Context, guildID, afterUserID string, limit int) ([]*models.GatewayMember, error) {
	args := m.Called(ctx, guildID, afterUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GatewayMember), args.Error(1)
}

func (m *MockGateway) ChannelMessages(ctx context.Context, channelID, afterMessageID string, limit int) ([]*models.GatewayMessage, error) {
	args := m.Called(ctx, channelID, afterMessageID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GatewayMessage), args.Error(1)
}

func (m *MockGateway) SendChannelMessage(ctx context.Context, channelID, content string) error {
	args := m.Called(ctx, channelID, content)
	return args.Error(0)
}

func (m *MockGateway) LockThread(ctx context.Context, threadID, reason string) error {
	args := m.Called(ctx, threadID, reason)
	return args.Error(0)
}
