package models

import "time"

// GatewayUser is the normalized live view of a platform user.
type GatewayUser struct {
	ID        string
	Username  string
	AvatarURL string
	Bot       bool
	System    bool
	CreatedAt time.Time
}

// GatewayMember is the normalized live view of a member within a guild.
type GatewayMember struct {
	User      GatewayUser
	GuildID   string
	Nick      string
	AvatarURL string
	Premium   bool
	JoinedAt  time.Time
}

type GatewayAttachment struct {
	ID       string
	Filename string
	URL      string
}

// GatewayMessage is the normalized live view of a message. ChannelID always
// refers to the parent channel; ThreadID is set when the message was posted
// inside a thread.
type GatewayMessage struct {
	ID          string
	GuildID     string
	ChannelID   string
	ThreadID    *string
	Author      GatewayUser
	Member      *GatewayMember
	Content     string
	Attachments []GatewayAttachment
	CreatedAt   time.Time
	EditedAt    *time.Time
}

// GatewayChannel describes a channel or thread as seen upstream. OwnerID is
// set only for threads and names the user who opened the thread.
type GatewayChannel struct {
	ID            string
	GuildID       string
	Name          string
	IsThread      bool
	ParentID      string
	OwnerID       string
	Archived      bool
	Locked        bool
	LastMessageID string
}
