// Package backfill rebuilds the durable store from upstream history after
// downtime. It is manually triggered, single-flight, and resilient to
// upstream throttling.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"sentdebot/clients"
	"sentdebot/models"
	"sentdebot/services"
)

// ErrBackfillRunning is returned when a trigger arrives while a previous run
// is still in flight.
var ErrBackfillRunning = errors.New("backfill is already running")

// Discord snowflakes encode milliseconds since this epoch in their top bits.
const discordEpochMs = 1420070400000

type Config struct {
	// HistoryDays bounds how far back channel history is walked.
	HistoryDays int
	// PageSize is the history page size; a short page ends the channel walk.
	PageSize int
	// MemberPageSize is the guild member list page size.
	MemberPageSize int
	// PageDelay is slept between history pages regardless of throttling.
	PageDelay time.Duration
	// Cooldown is slept after an upstream throttle signal before retrying
	// the same page.
	Cooldown time.Duration
	// MaxRetries is how many times a throttled page fetch is retried before
	// the channel is abandoned.
	MaxRetries int
}

type BackfillUseCase struct {
	gateway         clients.Gateway
	messagesService services.MessagesService
	usersService    services.UsersService
	channelsService services.ChannelsService
	txManager       services.TransactionManager
	config          Config

	running atomic.Bool
}

func NewBackfillUseCase(
	gateway clients.Gateway,
	messagesService services.MessagesService,
	usersService services.UsersService,
	channelsService services.ChannelsService,
	txManager services.TransactionManager,
	config Config,
) *BackfillUseCase {
	return &BackfillUseCase{
		gateway:         gateway,
		messagesService: messagesService,
		usersService:    usersService,
		channelsService: channelsService,
		txManager:       txManager,
		config:          config,
	}
}

func (u *BackfillUseCase) Running() bool {
	return u.running.Load()
}

// Run executes one full backfill pass over the guild: member list first, then
// every message channel, then every active thread. A failing channel is
// abandoned and logged, the rest of the pass continues.
func (u *BackfillUseCase) Run(ctx context.Context, guildID string) error {
	if !u.running.CompareAndSwap(false, true) {
		return ErrBackfillRunning
	}
	defer u.running.Store(false)

	log.Printf("📋 Starting backfill for guild: %s", guildID)

	if err := u.syncMembers(ctx, guildID); err != nil {
		log.Printf("❌ Member sync failed, continuing with channel history: %v", err)
	}

	channels, err := u.gateway.ListGuildChannels(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to list guild channels: %w", err)
	}

	threads, err := u.gateway.ListActiveThreads(ctx, guildID)
	if err != nil {
		log.Printf("❌ Active thread listing failed, backfilling channels only: %v", err)
	}

	abandoned := 0
	for _, target := range append(channels, threads...) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("backfill cancelled: %w", err)
		}
		if err := u.backfillChannel(ctx, target); err != nil {
			abandoned++
			log.Printf("❌ Abandoned channel %s during backfill: %v", target.ID, err)
		}
	}

	log.Printf("📋 Completed successfully - backfill finished for guild: %s (%d targets, %d abandoned)",
		guildID, len(channels)+len(threads), abandoned)
	return nil
}

func (u *BackfillUseCase) syncMembers(ctx context.Context, guildID string) error {
	log.Printf("🔄 Syncing member list for guild: %s", guildID)

	cursor := ""
	total := 0
	for {
		members, err := u.fetchMembersWithRetry(ctx, guildID, cursor)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			break
		}

		for _, member := range members {
			if err := u.usersService.UpsertMember(ctx, member); err != nil {
				log.Printf("❌ Failed to upsert member %s, skipping: %v", member.User.ID, err)
				continue
			}
			total++
		}

		cursor = members[len(members)-1].User.ID
		if len(members) < u.config.MemberPageSize {
			break
		}
		if err := sleepCtx(ctx, u.config.PageDelay); err != nil {
			return err
		}
	}

	log.Printf("🔄 Member sync done for guild %s: %d members", guildID, total)
	return nil
}

// backfillChannel walks one channel's history inside a single transaction, so
// a crash mid-walk loses at most this channel's progress.
func (u *BackfillUseCase) backfillChannel(ctx context.Context, channel *models.GatewayChannel) error {
	return u.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if channel.IsThread {
			if err := u.channelsService.UpsertThread(ctx, channel); err != nil {
				return err
			}
		} else {
			if err := u.channelsService.UpsertChannel(ctx, channel); err != nil {
				return err
			}
		}

		horizon := time.Now().UTC().AddDate(0, 0, -u.config.HistoryDays)
		cursor := snowflakeForTime(horizon)
		stored := 0

		for {
			page, err := u.fetchPageWithRetry(ctx, channel.ID, cursor)
			if err != nil {
				return err
			}
			if len(page) == 0 {
				break
			}

			for _, message := range page {
				if message.Author.Bot || message.Author.System {
					continue
				}
				if err := u.messagesService.UpsertMessage(ctx, message); err != nil {
					log.Printf("❌ Failed to store message %s during backfill, skipping: %v", message.ID, err)
					continue
				}
				stored++
			}

			cursor = page[len(page)-1].ID
			if len(page) < u.config.PageSize {
				break
			}
			if err := sleepCtx(ctx, u.config.PageDelay); err != nil {
				return err
			}
		}

		log.Printf("🔄 Backfilled channel %s: %d messages stored", channel.ID, stored)
		return nil
	})
}

// fetchPageWithRetry fetches one history page, sleeping through up to
// MaxRetries consecutive throttle signals before giving up. Permission
// denials and other errors abandon immediately.
func (u *BackfillUseCase) fetchPageWithRetry(
	ctx context.Context,
	channelID, afterMessageID string,
) ([]*models.GatewayMessage, error) {
	for attempt := 0; ; attempt++ {
		page, err := u.gateway.ChannelMessages(ctx, channelID, afterMessageID, u.config.PageSize)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, clients.ErrRateLimited) {
			return nil, fmt.Errorf("failed to fetch history page: %w", err)
		}
		if attempt >= u.config.MaxRetries {
			return nil, fmt.Errorf("giving up after %d throttled attempts: %w", attempt+1, err)
		}
		log.Printf("⚠️ Throttled fetching history of %s, cooling down (attempt %d/%d)",
			channelID, attempt+1, u.config.MaxRetries)
		if err := sleepCtx(ctx, u.config.Cooldown); err != nil {
			return nil, err
		}
	}
}

func (u *BackfillUseCase) fetchMembersWithRetry(
	ctx context.Context,
	guildID, afterUserID string,
) ([]*models.GatewayMember, error) {
	for attempt := 0; ; attempt++ {
		page, err := u.gateway.ListGuildMembers(ctx, guildID, afterUserID, u.config.MemberPageSize)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, clients.ErrRateLimited) {
			return nil, fmt.Errorf("failed to fetch member page: %w", err)
		}
		if attempt >= u.config.MaxRetries {
			return nil, fmt.Errorf("giving up after %d throttled attempts: %w", attempt+1, err)
		}
		if err := sleepCtx(ctx, u.config.Cooldown); err != nil {
			return nil, err
		}
	}
}

// snowflakeForTime builds the smallest message id created at or after t, used
// as the paging cursor for the history horizon.
func snowflakeForTime(t time.Time) string {
	ms := t.UnixMilli() - discordEpochMs
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms<<22, 10)
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
