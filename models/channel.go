package models

// Channel is a registry row for a guild channel, maintained from
// channel-created/deleted gateway events and backfill.
type Channel struct {
	ID      string `db:"id"`
	GuildID string `db:"guild_id"`
	Name    string `db:"name"`
}

// Thread is a registry row for a thread anchored to a channel.
type Thread struct {
	ID        string `db:"id"`
	ChannelID string `db:"channel_id"`
	Name      string `db:"name"`
	Archived  bool   `db:"archived"`
	Locked    bool   `db:"locked"`
}
