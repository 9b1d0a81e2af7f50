package events

import (
	"context"
	"log"

	"sentdebot/cache"
	"sentdebot/models"
	"sentdebot/services"
)

// Resolver rebuilds the best available "before" snapshot of a changed
// message. Fidelity degrades in order: upstream cache payload, own live
// cache, persisted row, identifier only. Resolution never fails; a store
// error just degrades the result to unknown.
type Resolver struct {
	messageCache    *cache.MessageCache
	messagesService services.MessagesService
}

func NewResolver(messageCache *cache.MessageCache, messagesService services.MessagesService) *Resolver {
	return &Resolver{
		messageCache:    messageCache,
		messagesService: messagesService,
	}
}

func (r *Resolver) ResolveBefore(
	ctx context.Context,
	messageID string,
	upstreamCached *models.GatewayMessage,
) models.BeforeMessageContext {
	if upstreamCached != nil {
		return models.BeforeMessageContext{
			Fidelity:  models.FidelityCache,
			MessageID: messageID,
			Message:   upstreamCached,
		}
	}

	if cached, ok := r.messageCache.Get(messageID); ok {
		return models.BeforeMessageContext{
			Fidelity:  models.FidelityCache,
			MessageID: messageID,
			Message:   cached,
		}
	}

	stored, err := r.messagesService.GetMessageByID(ctx, messageID)
	if err != nil {
		log.Printf("❌ Failed to load stored message %s for before-context, degrading to unknown: %v", messageID, err)
		return models.UnknownBefore(messageID)
	}
	row, ok := stored.Get()
	if !ok {
		return models.UnknownBefore(messageID)
	}

	// Attachments are best-effort: a failing lookup costs only attachment
	// history, not the whole snapshot.
	attachments, err := r.messagesService.GetMessageAttachments(ctx, messageID)
	if err != nil {
		log.Printf("⚠️ Failed to load attachments of stored message %s, omitting: %v", messageID, err)
		attachments = nil
	}

	return models.BeforeMessageContext{
		Fidelity:  models.FidelityStore,
		MessageID: messageID,
		Message:   rebuildFromRow(row, attachments),
	}
}

// rebuildFromRow lifts a persisted row back into the live message shape.
// Only fields the store actually holds are populated; withheld content
// surfaces as an empty string.
func rebuildFromRow(row *models.Message, attachments []models.MessageAttachment) *models.GatewayMessage {
	msg := &models.GatewayMessage{
		ID:        row.ID,
		ChannelID: row.ChannelID,
		ThreadID:  row.ThreadID,
		Author:    models.GatewayUser{ID: row.AuthorID},
		CreatedAt: row.CreatedAt,
		EditedAt:  row.EditedAt,
	}
	if row.GuildID != nil {
		msg.GuildID = *row.GuildID
	}
	if row.Content != nil {
		msg.Content = *row.Content
	}
	for _, a := range attachments {
		msg.Attachments = append(msg.Attachments, models.GatewayAttachment{
			ID:       a.ID,
			Filename: a.Filename,
			URL:      a.URL,
		})
	}
	return msg
}
