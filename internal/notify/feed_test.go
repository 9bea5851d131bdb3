package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedNewestFirstAndCapped(t *testing.T) {
	feed := NewFeed()
	ctx := context.Background()

	for i := 1; i <= feedCap+5; i++ {
		feed.Notify(ctx, fmt.Sprintf("event %d", i), "", CategoryInfo)
	}

	entries := feed.List()
	require.Len(t, entries, feedCap)
	require.Equal(t, fmt.Sprintf("event %d", feedCap+5), entries[0].Title)
	require.Equal(t, "event 6", entries[len(entries)-1].Title)
	require.NotEmpty(t, entries[0].ID)
}

func TestFeedUnreadTracking(t *testing.T) {
	feed := NewFeed()
	ctx := context.Background()

	feed.Notify(ctx, "one", "", CategoryOrder)
	feed.Notify(ctx, "two", "", CategoryAlert)
	require.Equal(t, 2, feed.UnreadCount())

	feed.MarkAllRead()
	require.Equal(t, 0, feed.UnreadCount())
	for _, e := range feed.List() {
		require.False(t, e.Unread)
	}

	feed.Notify(ctx, "three", "", CategorySuccess)
	require.Equal(t, 1, feed.UnreadCount())
}

func TestMultiFansOut(t *testing.T) {
	a := NewFeed()
	b := NewFeed()
	m := Multi{a, nil, b}

	m.Notify(context.Background(), "hello", "world", CategoryInfo)
	require.Len(t, a.List(), 1)
	require.Len(t, b.List(), 1)
}

func TestRupees(t *testing.T) {
	require.Equal(t, "₹1,200", Rupees(1200))
	require.Equal(t, "₹540.5", Rupees(540.5))
	require.Equal(t, "₹1,234,567.89", Rupees(1234567.89))
}
