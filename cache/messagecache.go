package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"sentdebot/models"
)

// MessageCache keeps a bounded window of recently seen gateway messages so
// update and delete events can be enriched with the prior revision without a
// round trip. Eviction is LRU; a miss here is normal and callers fall back to
// the durable store.
type MessageCache struct {
	cache *lru.Cache[string, *models.GatewayMessage]
}

func NewMessageCache(size int) (*MessageCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("message cache size must be positive, got %d", size)
	}

	c, err := lru.New[string, *models.GatewayMessage](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create message cache: %w", err)
	}

	return &MessageCache{cache: c}, nil
}

func (c *MessageCache) Put(message *models.GatewayMessage) {
	if message == nil {
		return
	}
	c.cache.Add(message.ID, message)
}

func (c *MessageCache) Get(messageID string) (*models.GatewayMessage, bool) {
	return c.cache.Get(messageID)
}

func (c *MessageCache) Remove(messageID string) {
	c.cache.Remove(messageID)
}

func (c *MessageCache) Len() int {
	return c.cache.Len()
}
