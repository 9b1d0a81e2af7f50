package messages

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/samber/mo"

	"sentdebot/models"
)

// searchScanLimit caps how many stored messages one search call walks before
// giving up, so a broad term cannot turn into a full table scan.
const (
	searchScanLimit = 2000
	searchPageSize  = 500
	searchMaxDist   = 2
)

// MessagesRepository is the persistence surface the service needs. Satisfied
// by db.PostgresMessagesRepository.
type MessagesRepository interface {
	GetMessageByID(ctx context.Context, id string) (mo.Option[*models.Message], error)
	GetMessageAttachments(ctx context.Context, messageID string) ([]models.MessageAttachment, error)
	InsertMessage(ctx context.Context, message *models.Message) (bool, error)
	UpdateMessageContent(ctx context.Context, id string, content *string, editedAt *time.Time) (bool, error)
	ReplaceMessageAttachments(ctx context.Context, messageID string, attachments []models.MessageAttachment) error
	GetLastMetricAuthor(ctx context.Context, channelID string, threadID *string) (mo.Option[string], error)
	GetMessageMetrics(ctx context.Context, guildID string, daysBack int) ([]*models.MessageMetric, error)
	ListGuildMessagesPage(
		ctx context.Context,
		guildID string,
		authorID *string,
		beforeCreatedAt *time.Time,
		limit int,
	) ([]*models.Message, error)
	GetMessagesOfMember(ctx context.Context, userID, guildID string, hoursBack float64) ([]*models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	DeleteMessagesOlderThan(ctx context.Context, days int) (int64, error)
}

// ConsentStore reports whether a member allows content persistence. Satisfied
// by db.PostgresUsersRepository.
type ConsentStore interface {
	GetMemberCollectData(ctx context.Context, userID, guildID string) (bool, error)
}

type MessagesService struct {
	messagesRepo MessagesRepository
	consentStore ConsentStore
}

func NewMessagesService(messagesRepo MessagesRepository, consentStore ConsentStore) *MessagesService {
	return &MessagesService{
		messagesRepo: messagesRepo,
		consentStore: consentStore,
	}
}

// UpsertMessage persists a live message. New rows get the metrics flag from
// the consecutive-author rule in their (channel, thread) scope; rows that
// already exist only have content, edit timestamp and attachments refreshed,
// the flag decided at creation never changes. Content is withheld at write
// time when the author opted out of collection; the opt-out is not applied
// retroactively to rows written before it.
func (s *MessagesService) UpsertMessage(ctx context.Context, message *models.GatewayMessage) error {
	log.Printf("📋 Starting to upsert message: %s", message.ID)

	if message.ID == "" {
		return fmt.Errorf("message id cannot be empty")
	}
	if message.ChannelID == "" {
		return fmt.Errorf("channel id cannot be empty")
	}

	collectData := true
	if message.GuildID != "" {
		var err error
		collectData, err = s.consentStore.GetMemberCollectData(ctx, message.Author.ID, message.GuildID)
		if err != nil {
			return fmt.Errorf("failed to check collection consent: %w", err)
		}
	}

	var content *string
	if collectData {
		content = &message.Content
	}

	useForMetrics, err := s.decideMetricsFlag(ctx, message)
	if err != nil {
		return err
	}

	var guildID *string
	if message.GuildID != "" {
		guildID = &message.GuildID
	}

	row := &models.Message{
		ID:            message.ID,
		AuthorID:      message.Author.ID,
		GuildID:       guildID,
		ChannelID:     message.ChannelID,
		ThreadID:      message.ThreadID,
		Content:       content,
		CreatedAt:     message.CreatedAt,
		EditedAt:      message.EditedAt,
		UseForMetrics: useForMetrics,
	}

	inserted, err := s.messagesRepo.InsertMessage(ctx, row)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	if !inserted {
		if _, err := s.messagesRepo.UpdateMessageContent(ctx, message.ID, content, message.EditedAt); err != nil {
			return fmt.Errorf("failed to refresh existing message: %w", err)
		}
	}

	// On refresh the stored set must shrink too: an edit that removed every
	// attachment replaces the rows with the empty set.
	if collectData && (len(message.Attachments) > 0 || !inserted) {
		attachments := make([]models.MessageAttachment, 0, len(message.Attachments))
		for _, a := range message.Attachments {
			attachments = append(attachments, models.MessageAttachment{
				ID:        a.ID,
				MessageID: message.ID,
				Filename:  a.Filename,
				URL:       a.URL,
			})
		}
		if err := s.messagesRepo.ReplaceMessageAttachments(ctx, message.ID, attachments); err != nil {
			return fmt.Errorf("failed to store message attachments: %w", err)
		}
	}

	log.Printf("📋 Completed successfully - upserted message: %s (metrics: %t)", message.ID, useForMetrics)
	return nil
}

// decideMetricsFlag applies the consecutive-author rule: a message counts for
// metrics unless the most recent metrics-flagged message in the same
// (channel, thread) scope came from the same author.
func (s *MessagesService) decideMetricsFlag(ctx context.Context, message *models.GatewayMessage) (bool, error) {
	lastAuthor, err := s.messagesRepo.GetLastMetricAuthor(ctx, message.ChannelID, message.ThreadID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve last metric author: %w", err)
	}

	if author, ok := lastAuthor.Get(); ok && author == message.Author.ID {
		return false, nil
	}
	return true, nil
}

func (s *MessagesService) GetMessageByID(ctx context.Context, id string) (mo.Option[*models.Message], error) {
	if id == "" {
		return mo.None[*models.Message](), fmt.Errorf("message id cannot be empty")
	}
	return s.messagesRepo.GetMessageByID(ctx, id)
}

func (s *MessagesService) GetMessageAttachments(
	ctx context.Context,
	messageID string,
) ([]models.MessageAttachment, error) {
	if messageID == "" {
		return nil, fmt.Errorf("message id cannot be empty")
	}
	return s.messagesRepo.GetMessageAttachments(ctx, messageID)
}

func (s *MessagesService) GetMessageMetrics(
	ctx context.Context,
	guildID string,
	daysBack int,
) ([]*models.MessageMetric, error) {
	log.Printf("📋 Starting to get message metrics for guild: %s (%d days)", guildID, daysBack)

	if guildID == "" {
		return nil, fmt.Errorf("guild id cannot be empty")
	}
	if daysBack <= 0 {
		return nil, fmt.Errorf("days back must be positive, got %d", daysBack)
	}

	metrics, err := s.messagesRepo.GetMessageMetrics(ctx, guildID, daysBack)
	if err != nil {
		return nil, fmt.Errorf("failed to get message metrics: %w", err)
	}

	log.Printf("📋 Completed successfully - retrieved %d metric rows", len(metrics))
	return metrics, nil
}

func (s *MessagesService) GetMessagesOfMember(
	ctx context.Context,
	userID, guildID string,
	hoursBack float64,
) ([]*models.Message, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	if guildID == "" {
		return nil, fmt.Errorf("guild id cannot be empty")
	}
	if hoursBack <= 0 {
		return nil, fmt.Errorf("hours back must be positive, got %f", hoursBack)
	}

	return s.messagesRepo.GetMessagesOfMember(ctx, userID, guildID, hoursBack)
}

type scoredMessage struct {
	message  *models.Message
	distance int
}

// SearchMessages walks recent stored messages newest first and ranks them by
// the smallest word-level edit distance to the term. Messages with withheld
// content never match.
func (s *MessagesService) SearchMessages(
	ctx context.Context,
	guildID, term string,
	limit int,
) ([]*models.Message, error) {
	log.Printf("📋 Starting to search messages in guild: %s", guildID)

	if guildID == "" {
		return nil, fmt.Errorf("guild id cannot be empty")
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, fmt.Errorf("search term cannot be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var scored []scoredMessage
	var cursor *time.Time
	scanned := 0

	for scanned < searchScanLimit {
		page, err := s.messagesRepo.ListGuildMessagesPage(ctx, guildID, nil, cursor, searchPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages for search: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, msg := range page {
			scanned++
			if msg.Content == nil {
				continue
			}
			if dist, ok := bestWordDistance(*msg.Content, term); ok && dist <= searchMaxDist {
				scored = append(scored, scoredMessage{message: msg, distance: dist})
			}
		}

		last := page[len(page)-1].CreatedAt
		cursor = &last
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].distance < scored[j].distance
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	result := make([]*models.Message, len(scored))
	for i, sm := range scored {
		result[i] = sm.message
	}

	log.Printf("📋 Completed successfully - found %d matching messages", len(result))
	return result, nil
}

// bestWordDistance returns the smallest edit distance between the term and
// any word of the content. Exact substring matches count as distance zero.
func bestWordDistance(content, term string) (int, bool) {
	content = strings.ToLower(content)
	if strings.Contains(content, term) {
		return 0, true
	}

	best := -1
	for _, word := range strings.Fields(content) {
		d := levenshtein.ComputeDistance(word, term)
		if best == -1 || d < best {
			best = d
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func (s *MessagesService) DeleteMessage(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("message id cannot be empty")
	}
	return s.messagesRepo.DeleteMessage(ctx, id)
}

func (s *MessagesService) DeleteMessagesOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be positive, got %d", days)
	}
	return s.messagesRepo.DeleteMessagesOlderThan(ctx, days)
}
