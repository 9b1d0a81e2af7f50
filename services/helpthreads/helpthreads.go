package helpthreads

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"sentdebot/models"
)

// HelpThreadsRepository is the persistence surface the service needs.
// Satisfied by db.PostgresHelpThreadsRepository.
type HelpThreadsRepository interface {
	CreateHelpThread(ctx context.Context, thread *models.HelpThread) error
	GetHelpThread(ctx context.Context, threadID string) (mo.Option[*models.HelpThread], error)
	UpdateThreadActivity(ctx context.Context, threadID string, lastActivityAt time.Time) error
	ListAllHelpThreads(ctx context.Context) ([]*models.HelpThread, error)
	ListInactiveHelpThreads(ctx context.Context, days int) ([]*models.HelpThread, error)
	DeleteHelpThread(ctx context.Context, threadID string) error
}

type HelpThreadsService struct {
	helpThreadsRepo HelpThreadsRepository
}

func NewHelpThreadsService(helpThreadsRepo HelpThreadsRepository) *HelpThreadsService {
	return &HelpThreadsService{helpThreadsRepo: helpThreadsRepo}
}

func (s *HelpThreadsService) RegisterHelpThread(
	ctx context.Context,
	threadID, ownerID string,
	tags *string,
	createdAt time.Time,
) error {
	log.Printf("📋 Starting to register help thread: %s owned by: %s", threadID, ownerID)

	if threadID == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	if ownerID == "" {
		return fmt.Errorf("owner id cannot be empty")
	}

	thread := &models.HelpThread{
		ThreadID:       threadID,
		OwnerID:        ownerID,
		Tags:           tags,
		LastActivityAt: createdAt,
	}
	if err := s.helpThreadsRepo.CreateHelpThread(ctx, thread); err != nil {
		return fmt.Errorf("failed to register help thread: %w", err)
	}

	log.Printf("📋 Completed successfully - registered help thread: %s", threadID)
	return nil
}

func (s *HelpThreadsService) GetHelpThread(
	ctx context.Context,
	threadID string,
) (mo.Option[*models.HelpThread], error) {
	if threadID == "" {
		return mo.None[*models.HelpThread](), fmt.Errorf("thread id cannot be empty")
	}
	return s.helpThreadsRepo.GetHelpThread(ctx, threadID)
}

func (s *HelpThreadsService) TouchActivity(ctx context.Context, threadID string, at time.Time) error {
	if threadID == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	if err := s.helpThreadsRepo.UpdateThreadActivity(ctx, threadID, at); err != nil {
		return fmt.Errorf("failed to touch help thread activity: %w", err)
	}
	return nil
}

func (s *HelpThreadsService) ListAll(ctx context.Context) ([]*models.HelpThread, error) {
	return s.helpThreadsRepo.ListAllHelpThreads(ctx)
}

func (s *HelpThreadsService) ListInactive(ctx context.Context, days int) ([]*models.HelpThread, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	return s.helpThreadsRepo.ListInactiveHelpThreads(ctx, days)
}

// Resolve removes the tracking row. The thread itself is closed by the
// caller; tracking and platform state are deliberately decoupled so a failed
// close can be retried without re-registering.
func (s *HelpThreadsService) Resolve(ctx context.Context, threadID string) error {
	if threadID == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	if err := s.helpThreadsRepo.DeleteHelpThread(ctx, threadID); err != nil {
		return fmt.Errorf("failed to resolve help thread: %w", err)
	}
	return nil
}
