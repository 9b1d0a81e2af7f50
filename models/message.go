package models

import "time"

// Message is a persisted message row. Content and attachments are NULL when
// the author's collect_data flag was false at write time. Rows are removed by
// delete events and by the retention sweep.
type Message struct {
	ID            string     `db:"id"`
	AuthorID      string     `db:"author_id"`
	GuildID       *string    `db:"guild_id"`
	ChannelID     string     `db:"channel_id"`
	ThreadID      *string    `db:"thread_id"`
	Content       *string    `db:"content"`
	CreatedAt     time.Time  `db:"created_at"`
	EditedAt      *time.Time `db:"edited_at"`
	UseForMetrics bool       `db:"use_for_metrics"`
}

type MessageAttachment struct {
	ID        string `db:"id"`
	MessageID string `db:"message_id"`
	Filename  string `db:"filename"`
	URL       string `db:"url"`
}

// MessageMetric is one row of the time-windowed activity metrics query.
// Only messages flagged use_for_metrics contribute.
type MessageMetric struct {
	MessageID string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	AuthorID  string    `db:"author_id"`
	ChannelID string    `db:"channel_id"`
}
