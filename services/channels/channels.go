package channels

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"sentdebot/models"
)

// ChannelsRepository is the persistence surface the service needs. Satisfied
// by db.PostgresChannelsRepository.
type ChannelsRepository interface {
	UpsertChannel(ctx context.Context, channel *models.Channel) error
	UpsertThread(ctx context.Context, thread *models.Thread) error
	GetThread(ctx context.Context, id string) (mo.Option[*models.Thread], error)
	SetThreadState(ctx context.Context, id string, archived, locked bool) error
	DeleteChannel(ctx context.Context, id string) error
	DeleteThread(ctx context.Context, id string) error
}

type ChannelsService struct {
	channelsRepo ChannelsRepository
}

func NewChannelsService(channelsRepo ChannelsRepository) *ChannelsService {
	return &ChannelsService{channelsRepo: channelsRepo}
}

func (s *ChannelsService) UpsertChannel(ctx context.Context, channel *models.GatewayChannel) error {
	if channel == nil || channel.ID == "" {
		return fmt.Errorf("channel id cannot be empty")
	}
	if channel.IsThread {
		return fmt.Errorf("channel %s is a thread, use UpsertThread", channel.ID)
	}

	row := &models.Channel{
		ID:      channel.ID,
		GuildID: channel.GuildID,
		Name:    channel.Name,
	}
	if err := s.channelsRepo.UpsertChannel(ctx, row); err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}
	return nil
}

func (s *ChannelsService) UpsertThread(ctx context.Context, thread *models.GatewayChannel) error {
	if thread == nil || thread.ID == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	if !thread.IsThread {
		return fmt.Errorf("channel %s is not a thread", thread.ID)
	}
	if thread.ParentID == "" {
		return fmt.Errorf("thread %s has no parent channel", thread.ID)
	}

	row := &models.Thread{
		ID:        thread.ID,
		ChannelID: thread.ParentID,
		Name:      thread.Name,
		Archived:  thread.Archived,
		Locked:    thread.Locked,
	}
	if err := s.channelsRepo.UpsertThread(ctx, row); err != nil {
		return fmt.Errorf("failed to upsert thread: %w", err)
	}
	return nil
}

func (s *ChannelsService) GetThread(ctx context.Context, id string) (mo.Option[*models.Thread], error) {
	if id == "" {
		return mo.None[*models.Thread](), fmt.Errorf("thread id cannot be empty")
	}
	return s.channelsRepo.GetThread(ctx, id)
}

func (s *ChannelsService) SetThreadState(ctx context.Context, id string, archived, locked bool) error {
	if id == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	if err := s.channelsRepo.SetThreadState(ctx, id, archived, locked); err != nil {
		return fmt.Errorf("failed to set thread state: %w", err)
	}
	return nil
}

func (s *ChannelsService) DeleteChannel(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("channel id cannot be empty")
	}
	return s.channelsRepo.DeleteChannel(ctx, id)
}

func (s *ChannelsService) DeleteThread(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	return s.channelsRepo.DeleteThread(ctx, id)
}
