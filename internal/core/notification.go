package core

// FeedLimit is how many notifications the feed fetches.
const FeedLimit = 20

// UnreadCount counts rows with IsRead == false.
func UnreadCount(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.IsRead {
			n++
		}
	}
	return n
}

// MarkRead returns a copy of ns with the row matching id flagged read.
// The second result is false when no row matched.
func MarkRead(ns []Notification, id string) ([]Notification, bool) {
	out := make([]Notification, len(ns))
	copy(out, ns)
	found := false
	for i := range out {
		if out[i].ID == id {
			out[i].IsRead = true
			found = true
		}
	}
	return out, found
}

// MarkAllRead returns a copy of ns with every row flagged read. Rows already
// read stay as they are.
func MarkAllRead(ns []Notification) []Notification {
	out := make([]Notification, len(ns))
	copy(out, ns)
	for i := range out {
		out[i].IsRead = true
	}
	return out
}
