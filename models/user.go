package models

import "time"

// User is a platform-wide identity, independent of any guild membership.
type User struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	IsBot     bool      `db:"is_bot"`
	IsSystem  bool      `db:"is_system"`
}

// Member is a user's membership record within one specific guild. A user has
// one member row per guild joined. CollectData gates whether message content
// and attachments are persisted for this member in this guild.
type Member struct {
	ID          string     `db:"id"`
	GuildID     string     `db:"guild_id"`
	Nick        *string    `db:"nick"`
	IconURL     *string    `db:"icon_url"`
	Premium     bool       `db:"premium"`
	CollectData bool       `db:"collect_data"`
	JoinedAt    time.Time  `db:"joined_at"`
	LeftAt      *time.Time `db:"left_at"`
}
