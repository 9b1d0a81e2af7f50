package users

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"sentdebot/models"
)

// MockUsersService is a mock implementation of the UsersService interface
type MockUsersService struct {
	mock.Mock
}

func (m *MockUsersService) UpsertUser(ctx context.Context, user *models.GatewayUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsersService) UpsertMember(ctx context.Context, member *models.GatewayMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockUsersService) GetMember(ctx context.Context, userID, guildID string) (mo.Option[*models.Member], error) {
	args := m.Called(ctx, userID, guildID)
	return args.Get(0).(mo.Option[*models.Member]), args.Error(1)
}

func (m *MockUsersService) SetMemberLeft(ctx context.Context, userID, guildID string, leftAt time.Time) error {
	args := m.Called(ctx, userID, guildID, leftAt)
	return args.Error(0)
}

func (m *MockUsersService) SetMemberCollectData(
	ctx context.Context,
	userID, guildID string,
	collectData bool,
) (bool, error) {
	args := m.Called(ctx, userID, guildID, collectData)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersService) GetMemberCollectData(ctx context.Context, userID, guildID string) (bool, error) {
	args := m.Called(ctx, userID, guildID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersService) ListMembersJoinedBetween(
	ctx context.Context,
	guildID string,
	from, to time.Time,
) ([]*models.Member, error) {
	args := m.Called(ctx, guildID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockUsersService) DeleteLeftMembersOlderThan(ctx context.Context, days int) (int64, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsersService) DeleteOrphanUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
