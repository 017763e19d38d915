package core

import "testing"

func feed() []Notification {
	return []Notification{
		{ID: "n1", IsRead: false},
		{ID: "n2", IsRead: true},
		{ID: "n3", IsRead: false},
	}
}

func TestUnreadCount(t *testing.T) {
	if got := UnreadCount(feed()); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}
	if got := UnreadCount(nil); got != 0 {
		t.Fatalf("expected 0 unread, got %d", got)
	}
}

func TestMarkRead(t *testing.T) {
	in := feed()
	out, ok := MarkRead(in, "n3")
	if !ok {
		t.Fatalf("expected match")
	}
	if !out[2].IsRead || out[0].IsRead {
		t.Fatalf("only n3 should change: %+v", out)
	}
	if in[2].IsRead {
		t.Fatalf("input must not be mutated")
	}
	if _, ok := MarkRead(in, "missing"); ok {
		t.Fatalf("expected no match")
	}
}

func TestMarkAllReadIdempotent(t *testing.T) {
	out := MarkAllRead(feed())
	if UnreadCount(out) != 0 {
		t.Fatalf("expected 0 unread after mark all")
	}
	again := MarkAllRead(out)
	for i := range again {
		if again[i] != out[i] {
			t.Fatalf("second mark-all changed row %d", i)
		}
	}
}
