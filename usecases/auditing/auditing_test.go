package auditing

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentdebot/models"
	"sentdebot/services/auditlog"
	"sentdebot/services/users"
)

func TestOnMemberUpdated_NilBeforeRebuiltFromStore(t *testing.T) {
	audits := new(auditlog.MockAuditLogService)
	usrs := new(users.MockUsersService)
	consumer := NewConsumer(audits, usrs)

	nick := "stored-nick"
	usrs.On("GetMember", mock.Anything, "user-1", "guild-1").Return(mo.Some(&models.Member{
		ID:       "user-1",
		GuildID:  "guild-1",
		Nick:     &nick,
		Premium:  true,
		JoinedAt: time.Now().UTC(),
	}), nil)

	after := &models.GatewayMember{
		User:    models.GatewayUser{ID: "user-1"},
		GuildID: "guild-1",
		Nick:    "new-nick",
	}
	audits.On("RecordMemberUpdated", mock.Anything, mock.MatchedBy(func(before *models.GatewayMember) bool {
		return before != nil && before.Nick == "stored-nick" && before.Premium
	}), after).Return(nil)

	err := consumer.OnMemberUpdated(context.Background(), nil, after)
	require.NoError(t, err)
	audits.AssertExpectations(t)
}

func TestOnMemberUpdated_NoStoredRowPassesNilBefore(t *testing.T) {
	audits := new(auditlog.MockAuditLogService)
	usrs := new(users.MockUsersService)
	consumer := NewConsumer(audits, usrs)

	usrs.On("GetMember", mock.Anything, "user-1", "guild-1").Return(mo.None[*models.Member](), nil)

	after := &models.GatewayMember{User: models.GatewayUser{ID: "user-1"}, GuildID: "guild-1"}
	audits.On("RecordMemberUpdated", mock.Anything, (*models.GatewayMember)(nil), after).Return(nil)

	err := consumer.OnMemberUpdated(context.Background(), nil, after)
	require.NoError(t, err)
	audits.AssertExpectations(t)
}

func TestOnMemberUpdated_CarriedBeforeUsedDirectly(t *testing.T) {
	audits := new(auditlog.MockAuditLogService)
	usrs := new(users.MockUsersService)
	consumer := NewConsumer(audits, usrs)

	before := &models.GatewayMember{User: models.GatewayUser{ID: "user-1"}, GuildID: "guild-1", Nick: "old"}
	after := &models.GatewayMember{User: models.GatewayUser{ID: "user-1"}, GuildID: "guild-1", Nick: "new"}
	audits.On("RecordMemberUpdated", mock.Anything, before, after).Return(nil)

	err := consumer.OnMemberUpdated(context.Background(), before, after)
	require.NoError(t, err)
	usrs.AssertNotCalled(t, "GetMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnMessageDeleted_ForwardsBeforeContext(t *testing.T) {
	audits := new(auditlog.MockAuditLogService)
	consumer := NewConsumer(audits, new(users.MockUsersService))

	before := models.UnknownBefore("msg-1")
	audits.On("RecordMessageDeleted", mock.Anything, before, "chan-1", "guild-1").Return(nil)

	err := consumer.OnMessageDeleted(context.Background(), before, "chan-1", "guild-1")
	require.NoError(t, err)
	audits.AssertExpectations(t)
}
