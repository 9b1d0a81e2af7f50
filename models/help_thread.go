package models

import "time"

// HelpThread tracks an open help request. The row is removed when the request
// is solved, the thread is found locked or gone, the owner can no longer be
// resolved, or the inactivity sweep closes it.
type HelpThread struct {
	ThreadID       string    `db:"thread_id"`
	OwnerID        string    `db:"owner_id"`
	Tags           *string   `db:"tags"`
	LastActivityAt time.Time `db:"last_activity_at"`
}

// HelpRequestListing is a help thread joined with live gateway state, as
// returned to the command layer by the active-request listing.
type HelpRequestListing struct {
	ThreadID       string
	ThreadName     string
	OwnerID        string
	OwnerNick      string
	Tags           *string
	LastActivityAt time.Time
}
