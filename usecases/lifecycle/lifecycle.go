// Package lifecycle closes help requests that have gone quiet and keeps the
// tracked set honest against live platform state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sentdebot/clients"
	"sentdebot/core"
	"sentdebot/models"
	"sentdebot/services"
)

type Config struct {
	// InactivityDays is how long a help thread may sit without activity
	// before the sweep closes it.
	InactivityDays int
	// SweepDelay is slept between threads during a sweep to bound upstream
	// request rate.
	SweepDelay time.Duration
}

const closingNotice = "This help request has been inactive for a while and is being closed. " +
	"Open a new thread if you still need help."

type LifecycleUseCase struct {
	gateway            clients.Gateway
	helpThreadsService services.HelpThreadsService
	channelsService    services.ChannelsService
	config             Config
}

func NewLifecycleUseCase(
	gateway clients.Gateway,
	helpThreadsService services.HelpThreadsService,
	channelsService services.ChannelsService,
	config Config,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		gateway:            gateway,
		helpThreadsService: helpThreadsService,
		channelsService:    channelsService,
		config:             config,
	}
}

// Sweep examines every help thread whose stored activity is older than the
// inactivity horizon and decides its fate against live state. A failing
// thread is logged and skipped; it gets another chance on the next sweep.
func (u *LifecycleUseCase) Sweep(ctx context.Context, guildID string) error {
	log.Printf("📋 Starting help thread inactivity sweep")

	stale, err := u.helpThreadsService.ListInactive(ctx, u.config.InactivityDays)
	if err != nil {
		return fmt.Errorf("failed to list inactive help threads: %w", err)
	}

	closed := 0
	for i, tracked := range stale {
		if i > 0 {
			if err := sleepCtx(ctx, u.config.SweepDelay); err != nil {
				return err
			}
		}

		didClose, err := u.sweepOne(ctx, guildID, tracked)
		if err != nil {
			log.Printf("❌ Sweep failed for thread %s, will retry next pass: %v", tracked.ThreadID, err)
			continue
		}
		if didClose {
			closed++
		}
	}

	log.Printf("📋 Completed successfully - sweep examined %d threads, closed %d", len(stale), closed)
	return nil
}

func (u *LifecycleUseCase) sweepOne(
	ctx context.Context,
	guildID string,
	tracked *models.HelpThread,
) (bool, error) {
	thread, err := u.gateway.FetchChannel(ctx, tracked.ThreadID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) || errors.Is(err, clients.ErrForbidden) {
			// Thread is gone or unreachable; nothing left to close.
			log.Printf("🔄 Thread %s no longer resolvable, dropping tracking", tracked.ThreadID)
			return true, u.helpThreadsService.Resolve(ctx, tracked.ThreadID)
		}
		return false, fmt.Errorf("failed to fetch thread: %w", err)
	}

	if thread.Locked {
		log.Printf("🔄 Thread %s already locked, dropping tracking", tracked.ThreadID)
		return true, u.helpThreadsService.Resolve(ctx, tracked.ThreadID)
	}

	// An owner who left the guild can never mark the request solved; the
	// thread is closed regardless of recent activity.
	if _, err := u.gateway.FetchMember(ctx, guildID, tracked.OwnerID); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			log.Printf("🔄 Owner %s of thread %s unresolvable, closing", tracked.OwnerID, tracked.ThreadID)
			return true, u.closeThread(ctx, tracked.ThreadID, "owner left the guild")
		}
		return false, fmt.Errorf("failed to resolve thread owner: %w", err)
	}

	lastActivity := tracked.LastActivityAt
	if thread.LastMessageID != "" {
		lastMessage, err := u.gateway.FetchMessage(ctx, tracked.ThreadID, thread.LastMessageID)
		if err != nil {
			// Unfetchable last message: the stored timestamp is the best
			// information available and it is already past the horizon.
			log.Printf("⚠️ Last message of thread %s unfetchable, trusting stored activity: %v",
				tracked.ThreadID, err)
		} else if lastMessage.CreatedAt.After(lastActivity) {
			lastActivity = lastMessage.CreatedAt
		}
	}

	horizon := time.Now().UTC().AddDate(0, 0, -u.config.InactivityDays)
	if lastActivity.After(horizon) {
		// The thread was active after all; repair the stored clock and keep
		// the request open.
		if err := u.helpThreadsService.TouchActivity(ctx, tracked.ThreadID, lastActivity); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, u.closeThread(ctx, tracked.ThreadID, "inactivity")
}

func (u *LifecycleUseCase) closeThread(ctx context.Context, threadID, reason string) error {
	if err := u.gateway.SendChannelMessage(ctx, threadID, closingNotice); err != nil {
		log.Printf("⚠️ Failed to post closing notice in thread %s: %v", threadID, err)
	}
	if err := u.gateway.LockThread(ctx, threadID, reason); err != nil {
		return fmt.Errorf("failed to lock thread: %w", err)
	}
	if err := u.channelsService.SetThreadState(ctx, threadID, true, true); err != nil {
		log.Printf("⚠️ Failed to sync registry state of thread %s: %v", threadID, err)
	}
	return u.helpThreadsService.Resolve(ctx, threadID)
}

// MarkSolved closes a help request on demand. Only the owner or a moderator
// may do this.
func (u *LifecycleUseCase) MarkSolved(ctx context.Context, threadID, actorID string, isModerator bool) error {
	log.Printf("📋 Starting to mark help thread solved: %s by: %s", threadID, actorID)

	tracked, err := u.helpThreadsService.GetHelpThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("failed to load help thread: %w", err)
	}
	thread, ok := tracked.Get()
	if !ok {
		return fmt.Errorf("help thread %s: %w", threadID, core.ErrNotFound)
	}

	if actorID != thread.OwnerID && !isModerator {
		return core.ErrNotThreadOwner
	}

	if err := u.closeThread(ctx, threadID, "marked solved"); err != nil {
		return err
	}

	log.Printf("📋 Completed successfully - help thread %s marked solved", threadID)
	return nil
}

// ListActiveRequests returns the open help requests joined with live thread
// state. Rows whose thread is gone, locked or archived are pruned as a side
// effect.
func (u *LifecycleUseCase) ListActiveRequests(
	ctx context.Context,
	guildID string,
) ([]*models.HelpRequestListing, error) {
	tracked, err := u.helpThreadsService.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list help threads: %w", err)
	}

	var listings []*models.HelpRequestListing
	for _, row := range tracked {
		thread, err := u.gateway.FetchChannel(ctx, row.ThreadID)
		if err != nil {
			if errors.Is(err, clients.ErrNotFound) {
				if err := u.helpThreadsService.Resolve(ctx, row.ThreadID); err != nil {
					log.Printf("❌ Failed to prune dead help thread %s: %v", row.ThreadID, err)
				}
				continue
			}
			return nil, fmt.Errorf("failed to fetch thread %s: %w", row.ThreadID, err)
		}
		if thread.Locked || thread.Archived {
			if err := u.helpThreadsService.Resolve(ctx, row.ThreadID); err != nil {
				log.Printf("❌ Failed to prune closed help thread %s: %v", row.ThreadID, err)
			}
			continue
		}

		listing := &models.HelpRequestListing{
			ThreadID:       row.ThreadID,
			ThreadName:     thread.Name,
			OwnerID:        row.OwnerID,
			Tags:           row.Tags,
			LastActivityAt: row.LastActivityAt,
		}
		if member, err := u.gateway.FetchMember(ctx, guildID, row.OwnerID); err == nil {
			listing.OwnerNick = member.Nick
			if listing.OwnerNick == "" {
				listing.OwnerNick = member.User.Username
			}
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
