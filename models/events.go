package models

// BeforeFidelity tags the three possible sources of a resolved "before"
// snapshot, in increasing order of fidelity.
type BeforeFidelity int

const (
	// FidelityUnknown carries only the message identifier. Consumers must
	// treat it as "no prior state available", not as "nothing changed".
	FidelityUnknown BeforeFidelity = iota
	// FidelityStore means the snapshot was rebuilt from the persisted row.
	FidelityStore
	// FidelityCache means the full prior object came from the live cache.
	FidelityCache
)

func (f BeforeFidelity) String() string {
	switch f {
	case FidelityCache:
		return "cache"
	case FidelityStore:
		return "store"
	default:
		return "unknown"
	}
}

// BeforeMessageContext is the ephemeral best-effort "before" state of a
// changed message. Message is nil if and only if Fidelity is FidelityUnknown.
// It exists only for the duration of one dispatch cycle and is never
// persisted.
type BeforeMessageContext struct {
	Fidelity  BeforeFidelity
	MessageID string
	Message   *GatewayMessage
}

// UnknownBefore builds the lowest-fidelity context carrying only the id.
func UnknownBefore(messageID string) BeforeMessageContext {
	return BeforeMessageContext{Fidelity: FidelityUnknown, MessageID: messageID}
}

// RawMessageUpdate is a message-updated gateway notification. CachedBefore
// and After are optional; fidelity depends on what the upstream cache still
// held when the event arrived.
type RawMessageUpdate struct {
	MessageID    string
	ChannelID    string
	GuildID      string
	CachedBefore *GatewayMessage
	After        *GatewayMessage
}

// RawMessageDelete is a message-deleted gateway notification.
type RawMessageDelete struct {
	MessageID    string
	ChannelID    string
	GuildID      string
	CachedBefore *GatewayMessage
}

// MemberUpdateEvent carries the before state when the upstream cache still
// had it; Before may be nil.
type MemberUpdateEvent struct {
	Before *GatewayMember
	After  *GatewayMember
}

// UserUpdateEvent carries the before state when available; Before may be nil.
type UserUpdateEvent struct {
	Before *GatewayUser
	After  *GatewayUser
}

// ReactionEvent is a resolved reaction-added event. Unresolvable reaction
// payloads are discarded before dispatch and never produce one of these.
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	ThreadID  *string
	MessageID string
	UserID    string
	EmojiName string
}
