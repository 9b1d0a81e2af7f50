package users

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"sentdebot/models"
)

// UsersRepository is the persistence surface the service needs. Satisfied by
// db.PostgresUsersRepository.
type UsersRepository interface {
	GetUserByID(ctx context.Context, id string) (mo.Option[*models.User], error)
	UpsertUser(ctx context.Context, user *models.User) error
	GetMember(ctx context.Context, userID, guildID string) (mo.Option[*models.Member], error)
	UpsertMember(ctx context.Context, member *models.Member) error
	SetMemberLeft(ctx context.Context, userID, guildID string, leftAt time.Time) error
	SetMemberCollectData(ctx context.Context, userID, guildID string, collectData bool) (bool, error)
	GetMemberCollectData(ctx context.Context, userID, guildID string) (bool, error)
	ListMembersJoinedBetween(ctx context.Context, guildID string, from, to time.Time) ([]*models.Member, error)
	DeleteLeftMembersOlderThan(ctx context.Context, days int) (int64, error)
	DeleteOrphanUsers(ctx context.Context) (int64, error)
}

type UsersService struct {
	usersRepo UsersRepository
}

func NewUsersService(usersRepo UsersRepository) *UsersService {
	return &UsersService{usersRepo: usersRepo}
}

func (s *UsersService) UpsertUser(ctx context.Context, user *models.GatewayUser) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if user.ID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	row := &models.User{
		ID:        user.ID,
		Name:      user.Username,
		CreatedAt: user.CreatedAt,
		IsBot:     user.Bot,
		IsSystem:  user.System,
	}
	if err := s.usersRepo.UpsertUser(ctx, row); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpsertMember registers or refreshes a member together with its user row.
// The user row is written first so the member's foreign key always resolves.
func (s *UsersService) UpsertMember(ctx context.Context, member *models.GatewayMember) error {
	log.Printf("📋 Starting to upsert member: %s in guild: %s", member.User.ID, member.GuildID)

	if member.User.ID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if member.GuildID == "" {
		return fmt.Errorf("guild id cannot be empty")
	}

	if err := s.UpsertUser(ctx, &member.User); err != nil {
		return err
	}

	var nick *string
	if member.Nick != "" {
		nick = &member.Nick
	}
	var iconURL *string
	if member.AvatarURL != "" {
		iconURL = &member.AvatarURL
	}

	row := &models.Member{
		ID:       member.User.ID,
		GuildID:  member.GuildID,
		Nick:     nick,
		IconURL:  iconURL,
		Premium:  member.Premium,
		JoinedAt: member.JoinedAt,
	}
	if err := s.usersRepo.UpsertMember(ctx, row); err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}

	log.Printf("📋 Completed successfully - upserted member: %s", member.User.ID)
	return nil
}

func (s *UsersService) GetMember(ctx context.Context, userID, guildID string) (mo.Option[*models.Member], error) {
	if userID == "" || guildID == "" {
		return mo.None[*models.Member](), fmt.Errorf("user id and guild id cannot be empty")
	}
	return s.usersRepo.GetMember(ctx, userID, guildID)
}

func (s *UsersService) SetMemberLeft(ctx context.Context, userID, guildID string, leftAt time.Time) error {
	if userID == "" || guildID == "" {
		return fmt.Errorf("user id and guild id cannot be empty")
	}
	if err := s.usersRepo.SetMemberLeft(ctx, userID, guildID, leftAt); err != nil {
		return fmt.Errorf("failed to mark member departed: %w", err)
	}
	return nil
}

func (s *UsersService) SetMemberCollectData(
	ctx context.Context,
	userID, guildID string,
	collectData bool,
) (bool, error) {
	if userID == "" || guildID == "" {
		return false, fmt.Errorf("user id and guild id cannot be empty")
	}
	return s.usersRepo.SetMemberCollectData(ctx, userID, guildID, collectData)
}

func (s *UsersService) GetMemberCollectData(ctx context.Context, userID, guildID string) (bool, error) {
	if userID == "" || guildID == "" {
		return false, fmt.Errorf("user id and guild id cannot be empty")
	}
	return s.usersRepo.GetMemberCollectData(ctx, userID, guildID)
}

func (s *UsersService) ListMembersJoinedBetween(
	ctx context.Context,
	guildID string,
	from, to time.Time,
) ([]*models.Member, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild id cannot be empty")
	}
	if to.Before(from) {
		return nil, fmt.Errorf("time range end cannot precede start")
	}
	return s.usersRepo.ListMembersJoinedBetween(ctx, guildID, from, to)
}

func (s *UsersService) DeleteLeftMembersOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be positive, got %d", days)
	}
	return s.usersRepo.DeleteLeftMembersOlderThan(ctx, days)
}

func (s *UsersService) DeleteOrphanUsers(ctx context.Context) (int64, error) {
	return s.usersRepo.DeleteOrphanUsers(ctx)
}
