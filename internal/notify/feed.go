package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// feedCap bounds the in-memory feed to the most recent entries.
const feedCap = 10

// Notification is one entry of the in-memory feed, newest first.
type Notification struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Desc     string    `json:"desc"`
	Category Category  `json:"category"`
	Unread   bool      `json:"unread"`
	At       time.Time `json:"at"`
}

// Feed keeps the most recent notifications for the operator UI.
type Feed struct {
	mu      sync.RWMutex
	entries []Notification
	now     func() time.Time
}

// NewFeed constructs an empty feed.
func NewFeed() *Feed {
	return &Feed{now: time.Now}
}

// Notify implements Notifier by prepending to the feed.
func (f *Feed) Notify(ctx context.Context, title, desc string, category Category) {
	entry := Notification{
		ID:       uuid.NewString(),
		Title:    title,
		Desc:     desc,
		Category: category,
		Unread:   true,
		At:       f.now().UTC(),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append([]Notification{entry}, f.entries...)
	if len(f.entries) > feedCap {
		f.entries = f.entries[:feedCap]
	}
}

// List returns the feed newest first.
func (f *Feed) List() []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Notification, len(f.entries))
	copy(out, f.entries)
	return out
}

// UnreadCount reports how many entries are unread.
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, e := range f.entries {
		if e.Unread {
			n++
		}
	}
	return n
}

// MarkAllRead clears the unread flag on every entry.
func (f *Feed) MarkAllRead() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		f.entries[i].Unread = false
	}
}
