package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type AuditLogType string

const (
	AuditLogMemberJoined   AuditLogType = "MEMBER_JOINED"
	AuditLogMemberLeft     AuditLogType = "MEMBER_LEFT"
	AuditLogMemberUpdated  AuditLogType = "MEMBER_UPDATED"
	AuditLogUserUpdated    AuditLogType = "USER_UPDATED"
	AuditLogMessageEdited  AuditLogType = "MESSAGE_EDITED"
	AuditLogMessageDeleted AuditLogType = "MESSAGE_DELETED"
)

// JSONMap stores the structured before/after diff payload as jsonb.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(data, m)
}

// AuditLogEntry is append-only. Entries are never mutated after creation and
// are only removed by the retention sweep.
type AuditLogEntry struct {
	ID        string       `db:"id"`
	LogType   AuditLogType `db:"log_type"`
	UserID    *string      `db:"user_id"`
	GuildID   *string      `db:"guild_id"`
	ChannelID *string      `db:"channel_id"`
	Timestamp time.Time    `db:"timestamp"`
	Data      JSONMap      `db:"data"`
}
