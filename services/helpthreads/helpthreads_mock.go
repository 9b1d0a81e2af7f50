package helpthreads

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"sentdebot/models"
)

// MockHelpThreadsService is a mock implementation of the HelpThreadsService interface
type MockHelpThreadsService struct {
	mock.Mock
}

func (m *MockHelpThreadsService) RegisterHelpThread(
	ctx context.Context,
	threadID, ownerID string,
	tags *string,
	createdAt time.Time,
) error {
	args := m.Called(ctx, threadID, ownerID, tags, createdAt)
	return args.Error(0)
}

func (m *MockHelpThreadsService) GetHelpThread(
	ctx context.Context,
	threadID string,
) (mo.Option[*models.HelpThread], error) {
	args := m.Called(ctx, threadID)
	return args.Get(0).(mo.Option[*models.HelpThread]), args.Error(1)
}

func (m *MockHelpThreadsService) TouchActivity(ctx context.Context, threadID string, at time.Time) error {
	args := m.Called(ctx, threadID, at)
	return args.Error(0)
}

func (m *MockHelpThreadsService) ListAll(ctx context.Context) ([]*models.HelpThread, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HelpThread), args.Error(1)
}

func (m *MockHelpThreadsService) ListInactive(ctx context.Context, days int) ([]*models.HelpThread, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HelpThread), args.Error(1)
}

func (m *MockHelpThreadsService) Resolve(ctx context.Context, threadID string) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}
