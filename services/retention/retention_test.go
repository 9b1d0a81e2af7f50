package retention

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentdebot/services/auditlog"
	"sentdebot/services/messages"
	"sentdebot/services/users"
)

func newMocks() (*messages.MockMessagesService, *auditlog.MockAuditLogService, *users.MockUsersService) {
	return new(messages.MockMessagesService), new(auditlog.MockAuditLogService), new(users.MockUsersService)
}

func TestRunCleanup_AllCategoriesSwept(t *testing.T) {
	msgs, audits, usrs := newMocks()
	svc := NewRetentionService(Config{MessageDays: 60, AuditLogDays: 90, MemberDays: 30}, msgs, audits, usrs)

	msgs.On("DeleteMessagesOlderThan", mock.Anything, 60).Return(int64(12), nil)
	audits.On("DeleteAuditLogsOlderThan", mock.Anything, 90).Return(int64(3), nil)
	usrs.On("DeleteLeftMembersOlderThan", mock.Anything, 30).Return(int64(2), nil)
	usrs.On("DeleteOrphanUsers", mock.Anything).Return(int64(1), nil)

	err := svc.RunCleanup(context.Background())
	require.NoError(t, err)
	msgs.AssertExpectations(t)
	audits.AssertExpectations(t)
	usrs.AssertExpectations(t)
}

func TestRunCleanup_MembersSweptBeforeAuditAndMessages(t *testing.T) {
	msgs, audits, usrs := newMocks()
	svc := NewRetentionService(Config{MessageDays: 60, AuditLogDays: 90, MemberDays: 30}, msgs, audits, usrs)

	var order []string
	usrs.On("DeleteLeftMembersOlderThan", mock.Anything, 30).
		Run(func(mock.Arguments) { order = append(order, "members") }).Return(int64(0), nil)
	usrs.On("DeleteOrphanUsers", mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "orphans") }).Return(int64(0), nil)
	audits.On("DeleteAuditLogsOlderThan", mock.Anything, 90).
		Run(func(mock.Arguments) { order = append(order, "audit") }).Return(int64(0), nil)
	msgs.On("DeleteMessagesOlderThan", mock.Anything, 60).
		Run(func(mock.Arguments) { order = append(order, "messages") }).Return(int64(0), nil)

	err := svc.RunCleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"members", "orphans", "audit", "messages"}, order)
}

func TestRunCleanup_DisabledCategoriesSkipped(t *testing.T) {
	msgs, audits, usrs := newMocks()
	svc := NewRetentionService(Config{MessageDays: 0, AuditLogDays: -1, MemberDays: 30}, msgs, audits, usrs)

	usrs.On("DeleteLeftMembersOlderThan", mock.Anything, 30).Return(int64(0), nil)
	usrs.On("DeleteOrphanUsers", mock.Anything).Return(int64(0), nil)

	err := svc.RunCleanup(context.Background())
	require.NoError(t, err)
	msgs.AssertNotCalled(t, "DeleteMessagesOlderThan", mock.Anything, mock.Anything)
	audits.AssertNotCalled(t, "DeleteAuditLogsOlderThan", mock.Anything, mock.Anything)
	usrs.AssertExpectations(t)
}

func TestRunCleanup_FailedCategoryDoesNotBlockOthers(t *testing.T) {
	msgs, audits, usrs := newMocks()
	svc := NewRetentionService(Config{MessageDays: 60, AuditLogDays: 90, MemberDays: 30}, msgs, audits, usrs)

	boom := errors.New("connection reset")
	msgs.On("DeleteMessagesOlderThan", mock.Anything, 60).Return(int64(0), boom)
	audits.On("DeleteAuditLogsOlderThan", mock.Anything, 90).Return(int64(5), nil)
	usrs.On("DeleteLeftMembersOlderThan", mock.Anything, 30).Return(int64(1), nil)
	usrs.On("DeleteOrphanUsers", mock.Anything).Return(int64(0), nil)

	err := svc.RunCleanup(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	audits.AssertExpectations(t)
	usrs.AssertExpectations(t)
}

func TestRunCleanup_OrphanSweepSkippedWhenMemberSweepFails(t *testing.T) {
	msgs, audits, usrs := newMocks()
	svc := NewRetentionService(Config{MemberDays: 30}, msgs, audits, usrs)

	usrs.On("DeleteLeftMembersOlderThan", mock.Anything, 30).Return(int64(0), errors.New("timeout"))

	err := svc.RunCleanup(context.Background())
	require.Error(t, err)
	usrs.AssertNotCalled(t, "DeleteOrphanUsers", mock.Anything)
}
