package auditlog

import (
	"context"
	"fmt"
	"log"
	"time"

	"sentdebot/core"
	"sentdebot/models"
)

// AuditLogRepository is the persistence surface the service needs. Satisfied
// by db.PostgresAuditLogsRepository.
type AuditLogRepository interface {
	CreateAuditLogEntry(ctx context.Context, entry *models.AuditLogEntry) error
	GetAuditLogEntries(ctx context.Context, guildID string, from, to time.Time) ([]*models.AuditLogEntry, error)
	DeleteAuditLogsOlderThan(ctx context.Context, days int) (int64, error)
}

// ConsentStore reports whether a member allows content persistence. Satisfied
// by db.PostgresUsersRepository.
type ConsentStore interface {
	GetMemberCollectData(ctx context.Context, userID, guildID string) (bool, error)
}

type AuditLogService struct {
	auditRepo    AuditLogRepository
	consentStore ConsentStore
}

func NewAuditLogService(auditRepo AuditLogRepository, consentStore ConsentStore) *AuditLogService {
	return &AuditLogService{
		auditRepo:    auditRepo,
		consentStore: consentStore,
	}
}

func (s *AuditLogService) RecordMemberJoined(ctx context.Context, member *models.GatewayMember) error {
	if member == nil {
		return fmt.Errorf("member cannot be nil")
	}

	entry := &models.AuditLogEntry{
		ID:        core.NewID("al"),
		LogType:   models.AuditLogMemberJoined,
		UserID:    &member.User.ID,
		GuildID:   &member.GuildID,
		Timestamp: time.Now().UTC(),
		Data: models.JSONMap{
			"username":  member.User.Username,
			"nick":      member.Nick,
			"joined_at": member.JoinedAt.UTC().Format(time.RFC3339),
		},
	}

	if err := s.auditRepo.CreateAuditLogEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record member joined: %w", err)
	}
	return nil
}

func (s *AuditLogService) RecordMemberLeft(ctx context.Context, guildID, userID string) error {
	if guildID == "" || userID == "" {
		return fmt.Errorf("guild id and user id cannot be empty")
	}

	entry := &models.AuditLogEntry{
		ID:        core.NewID("al"),
		LogType:   models.AuditLogMemberLeft,
		UserID:    &userID,
		GuildID:   &guildID,
		Timestamp: time.Now().UTC(),
	}

	if err := s.auditRepo.CreateAuditLogEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record member left: %w", err)
	}
	return nil
}

// RecordMemberUpdated writes a field-level diff between the two member
// snapshots. A nil before means no prior state was recoverable; every field
// is then recorded with a nil old value. No entry is written when nothing
// changed.
func (s *AuditLogService) RecordMemberUpdated(ctx context.Context, before, after *models.GatewayMember) error {
	if after == nil {
		return fmt.Errorf("after state cannot be nil")
	}

	changes := models.JSONMap{}
	if before == nil {
		changes["nick"] = fieldChange(nil, after.Nick)
		changes["avatar_url"] = fieldChange(nil, after.AvatarURL)
		changes["premium"] = fieldChange(nil, after.Premium)
	} else {
		if before.Nick != after.Nick {
			changes["nick"] = fieldChange(before.Nick, after.Nick)
		}
		if before.AvatarURL != after.AvatarURL {
			changes["avatar_url"] = fieldChange(before.AvatarURL, after.AvatarURL)
		}
		if before.Premium != after.Premium {
			changes["premium"] = fieldChange(before.Premium, after.Premium)
		}
	}

	if len(changes) == 0 {
		log.Printf("📋 Member update for %s carried no observable changes, skipping entry", after.User.ID)
		return nil
	}

	entry := &models.AuditLogEntry{
		ID:        core.NewID("al"),
		LogType:   models.AuditLogMemberUpdated,
		UserID:    &after.User.ID,
		GuildID:   &after.GuildID,
		Timestamp: time.Now().UTC(),
		Data:      changes,
	}

	if err := s.auditRepo.CreateAuditLogEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record member updated: %w", err)
	}
	return nil
}

// RecordUserUpdated writes a field-level diff of guild-independent profile
// fields. No entry is written when nothing changed.
func (s *AuditLogService) RecordUserUpdated(ctx context.Context, before, after *models.GatewayUser) error {
	if after == nil {
		return fmt.Errorf("after state cannot be nil")
	}

	changes := models.JSONMap{}
	if before == nil {
		changes["username"] = fieldChange(nil, after.Username)
		changes["avatar_url"] = fieldChange(nil, after.AvatarURL)
	} else {
		if before.Username != after.Username {
			changes["username"] = fieldChange(before.Username, after.Username)
		}
		if before.AvatarURL != after.AvatarURL {
			changes["avatar_url"] = fieldChange(before.AvatarURL, after.AvatarURL)
		}
	}

	if len(changes) == 0 {
		return nil
	}

	entry := &models.AuditLogEntry{
		ID:        core.NewID("al"),
		LogType:   models.AuditLogUserUpdated,
		UserID:    &after.ID,
		Timestamp: time.Now().UTC(),
		Data:      changes,
	}

	if err := s.auditRepo.CreateAuditLogEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record user updated: %w", err)
	}
	return nil
}

// RecordMessageEdited writes an entry carrying the prior content at whatever
// fidelity the resolver produced. Content of opted-out authors is withheld
// from the entry at write time.
func (s *AuditLogService) RecordMessageEdited(
	ctx context.Context,
	before models.BeforeMessageContext,
	after *models.GatewayMessage,
) error {
	if after == nil {
		return fmt.Errorf("after state cannot be nil")
	}

	// A known before-state that matches on every tracked field is a no-op
	// edit (embed resolution, pin changes) and produces no entry.
	if before.Message != nil &&
		before.Message.Content == after.Content &&
		sameAttachmentURLs(before.Message.Attachments, after.Attachments) {
		log.Printf("📋 Edit of message %s carried no observable changes, skipping entry", after.ID)
		return nil
	}

	collectData, err := s.consentStore.GetMemberCollectData(ctx, after.Author.ID, after.GuildID)
	if err != nil {
		return fmt.Errorf("failed to check collection consent: %w", err)
	}

	data := models.JSONMap{
		"before_fidelity": before.Fidelity.String(),
	}
	if collectData {
		data["content_after"] = after.Content
		if len(after.Attachments) > 0 {
			data["attachments_after"] = attachmentURLs(after.Attachments)
		}
		if before.Message != nil {
			data["content_before"] = before.Message.Content
			if len(before.Message.Attachments) > 0 {
				data["attachments_before"] = attachmentURLs(before.Message.Attachments)
			}
		}
	}

	entry := &models.AuditLogEntry{
		ID:        core.NewID("al"),
		LogType:   models.AuditLogMessageEdited,
		UserID:    &after.Author.ID,
		ChannelID: &after.ChannelID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if after.GuildID != "" {
		guildID := after.GuildID
		entry.GuildID = &guildID
	}

	if err := s.auditRepo.CreateAuditLogEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record message edited: %w", err)
	}
	return nil
}

// RecordMessageDeleted writes an entry for a removed message. Author and
// content are present only when the resolver recovered a prior snapshot.
func (s *AuditLogService) RecordMessageDeleted(
	ctx context.Context,
	before models.BeforeMessageContext,
	channelID, guildID string,
) error {
	if channelID == "" {
		return fmt.Errorf("channel id cannot be empty")
	}

	data := models.JSONMap{
		"message_id":      before.MessageID,
		"before_fidelity": before.Fidelity.String(),
	}

	entry := &models.AuditLogEntry{
		ID:        core.NewID("al"),
		LogType:   models.AuditLogMessageDeleted,
		ChannelID: &channelID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if guildID != "" {
		entry.GuildID = &guildID
	}

	if before.Message != nil {
		entry.UserID = &before.Message.Author.ID

		collectData := true
		if guildID != "" {
			var err error
			collectData, err = s.consentStore.GetMemberCollectData(ctx, before.Message.Author.ID, guildID)
			if err != nil {
				return fmt.Errorf("failed to check collection consent: %w", err)
			}
		}
		if collectData {
			data["content"] = before.Message.Content
			if len(before.Message.Attachments) > 0 {
				data["attachments"] = attachmentURLs(before.Message.Attachments)
			}
		}
	}

	if err := s.auditRepo.CreateAuditLogEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record message deleted: %w", err)
	}
	return nil
}

func (s *AuditLogService) GetAuditLogEntries(
	ctx context.Context,
	guildID string,
	from, to time.Time,
) ([]*models.AuditLogEntry, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild id cannot be empty")
	}
	if to.Before(from) {
		return nil, fmt.Errorf("time range end cannot precede start")
	}
	return s.auditRepo.GetAuditLogEntries(ctx, guildID, from, to)
}

func (s *AuditLogService) DeleteAuditLogsOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be positive, got %d", days)
	}
	return s.auditRepo.DeleteAuditLogsOlderThan(ctx, days)
}

func fieldChange(old, new any) models.JSONMap {
	return models.JSONMap{"old": old, "new": new}
}

func attachmentURLs(attachments []models.GatewayAttachment) []string {
	urls := make([]string, 0, len(attachments))
	for _, attachment := range attachments {
		urls = append(urls, attachment.URL)
	}
	return urls
}

func sameAttachmentURLs(before, after []models.GatewayAttachment) bool {
	if len(before) != len(after) {
		return false
	}
	for i := range before {
		if before[i].URL != after[i].URL {
			return false
		}
	}
	return true
}
