package retention

import (
	"context"
	"errors"
	"fmt"
	"log"

	"sentdebot/services"
)

// Config holds per-category retention horizons in days. A horizon of zero or
// less disables that category's sweep entirely.
type Config struct {
	MessageDays  int
	AuditLogDays int
	MemberDays   int
}

// RetentionService periodically prunes aged rows. Each category is swept
// independently; one failing category never blocks the others.
type RetentionService struct {
	config          Config
	messagesService services.MessagesService
	auditLogService services.AuditLogService
	usersService    services.UsersService
}

func NewRetentionService(
	config Config,
	messagesService services.MessagesService,
	auditLogService services.AuditLogService,
	usersService services.UsersService,
) *RetentionService {
	return &RetentionService{
		config:          config,
		messagesService: messagesService,
		auditLogService: auditLogService,
		usersService:    usersService,
	}
}

// RunCleanup executes one retention pass. Returns the combined errors of all
// failed categories after every category has been attempted.
func (s *RetentionService) RunCleanup(ctx context.Context) error {
	log.Printf("📋 Starting retention cleanup pass")

	var errs []error

	if s.config.MemberDays > 0 {
		deleted, err := s.usersService.DeleteLeftMembersOlderThan(ctx, s.config.MemberDays)
		if err != nil {
			log.Printf("❌ Member retention sweep failed: %v", err)
			errs = append(errs, fmt.Errorf("member retention sweep: %w", err))
		} else {
			log.Printf("📋 Deleted %d departed members older than %d days", deleted, s.config.MemberDays)

			orphans, err := s.usersService.DeleteOrphanUsers(ctx)
			if err != nil {
				log.Printf("❌ Orphan user sweep failed: %v", err)
				errs = append(errs, fmt.Errorf("orphan user sweep: %w", err))
			} else {
				log.Printf("📋 Deleted %d orphan users", orphans)
			}
		}
	} else {
		log.Printf("📋 Member retention disabled, skipping")
	}

	if s.config.AuditLogDays > 0 {
		deleted, err := s.auditLogService.DeleteAuditLogsOlderThan(ctx, s.config.AuditLogDays)
		if err != nil {
			log.Printf("❌ Audit log retention sweep failed: %v", err)
			errs = append(errs, fmt.Errorf("audit log retention sweep: %w", err))
		} else {
			log.Printf("📋 Deleted %d audit log entries older than %d days", deleted, s.config.AuditLogDays)
		}
	} else {
		log.Printf("📋 Audit log retention disabled, skipping")
	}

	if s.config.MessageDays > 0 {
		deleted, err := s.messagesService.DeleteMessagesOlderThan(ctx, s.config.MessageDays)
		if err != nil {
			log.Printf("❌ Message retention sweep failed: %v", err)
			errs = append(errs, fmt.Errorf("message retention sweep: %w", err))
		} else {
			log.Printf("📋 Deleted %d messages older than %d days", deleted, s.config.MessageDays)
		}
	} else {
		log.Printf("📋 Message retention disabled, skipping")
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	log.Printf("📋 Completed successfully - retention cleanup pass finished")
	return nil
}
