package model

import (
	"encoding/json"
	"time"
)

// Post is a channel message as seen by the pruning pipeline. It is built by
// the transport, finalised by the pager and never mutated afterwards.
type Post struct {
	ID        int64
	ChatID    int64
	CreatedAt time.Time
	Pinned    bool
	Protected bool
	Text      string
	Payload   json.RawMessage
}

// Cursor marks the oldest message seen so far. The zero value is never sent
// to the remote API; the pager tracks "unset" separately.
type Cursor struct {
	MaxID int64
}

type Page struct {
	Cursor    Cursor
	Posts     []Post
	RateLimit *RateLimit
}

type DeleteReceipt struct {
	PostID    int64
	RateLimit *RateLimit
}
