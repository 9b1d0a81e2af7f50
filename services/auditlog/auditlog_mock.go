package auditlog

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sentdebot/models"
)

// MockAuditLogService is a mock implementation of the AuditLogService interface
type MockAuditLogService struct {
	mock.Mock
}

func (m *MockAuditLogService) RecordMemberJoined(ctx context.Context, member *models.GatewayMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockAuditLogService) RecordMemberLeft(ctx context.Context, guildID, userID string) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}

func (m *MockAuditLogService) RecordMemberUpdated(ctx context.Context, before, after *models.GatewayMember) error {
	args := m.Called(ctx, before, after)
	return args.Error(0)
}

func (m *MockAuditLogService) RecordUserUpdated(ctx context.Context, before, after *models.GatewayUser) error {
	args := m.Called(ctx, before, after)
	return args.Error(0)
}

func (m *MockAuditLogService) RecordMessageEdited(
	ctx context.Context,
	before models.BeforeMessageContext,
	after *models.GatewayMessage,
) error {
	args := m.Called(ctx, before, after)
	return args.Error(0)
}

func (m *MockAuditLogService) RecordMessageDeleted(
	ctx context.Context,
	before models.BeforeMessageContext,
	channelID, guildID string,
) error {
	args := m.Called(ctx, before, channelID, guildID)
	return args.Error(0)
}

func (m *MockAuditLogService) GetAuditLogEntries(
	ctx context.Context,
	guildID string,
	from, to time.Time,
) ([]*models.AuditLogEntry, error) {
	args := m.Called(ctx, guildID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLogEntry), args.Error(1)
}

func (m *MockAuditLogService) DeleteAuditLogsOlderThan(ctx context.Context, days int) (int64, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(int64), args.Error(1)
}
