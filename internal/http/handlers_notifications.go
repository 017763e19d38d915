package http

import (
	"context"
	"errors"
	"net/http"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
	"chapterhub/internal/identity"
	"chapterhub/internal/log"
	"chapterhub/internal/viewstate"
)

func (s *Server) handleNotificationsPanel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	var p notificationsPanel
	if id.User != nil {
		p = s.loadNotifications(ctx, id, s.sessions.get(id))
	}

	b := NewHTMXResponse().TriggerNotificationsChanged(p.Unread)
	if p.Failed {
		b.TriggerErrorNotification("Could not load notifications.")
	}
	s.render(w, r, "notifications_panel", p, b)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	if id.User == nil {
		respondError(w, r, http.StatusUnauthorized, "Unknown user.")
		return
	}
	notificationID, ok := pathID(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "Invalid notification id.")
		return
	}

	sess := s.sessions.get(id)
	// Only rows of the user's own feed can be marked. The feed is reloaded
	// once when the id is not in it yet.
	if !hasNotification(sess.feed.Notifications(), notificationID) {
		if err := sess.feed.Load(ctx); err != nil {
			s.notificationWriteFailed(w, r, id, notificationID, err)
			return
		}
		if !hasNotification(sess.feed.Notifications(), notificationID) {
			respondError(w, r, http.StatusNotFound, "Notification not found.")
			return
		}
	}

	if err := sess.feed.MarkRead(ctx, notificationID); err != nil {
		s.notificationWriteFailed(w, r, id, notificationID, err)
		return
	}
	s.respondFeed(w, r, sess, "")
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	if id.User == nil {
		respondError(w, r, http.StatusUnauthorized, "Unknown user.")
		return
	}

	sess := s.sessions.get(id)
	if err := sess.feed.MarkAllRead(ctx); err != nil {
		s.notificationWriteFailed(w, r, id, "", err)
		return
	}
	// A feed that was never loaded or whose last load failed has no local
	// rows to mark; read it back after the write.
	if st := sess.feed.State(); st.Phase == viewstate.NotRequested || st.Failed() {
		_ = sess.feed.Load(ctx)
	}
	s.respondFeed(w, r, sess, "All notifications marked as read.")
}

// respondFeed answers a successful write with the feed's local state.
func (s *Server) respondFeed(w http.ResponseWriter, r *http.Request, sess *session, toast string) {
	p := s.notificationsView(sess)
	if !isHTMX(r) {
		NewHTMXResponse().JSON(newNotificationsJSON(p.Items)).Write(w)
		return
	}
	b := NewHTMXResponse().TriggerNotificationsChanged(p.Unread)
	if toast != "" {
		b.TriggerSuccessNotification(toast)
	}
	s.render(w, r, "notifications_panel", p, b)
}

func (s *Server) notificationWriteFailed(w http.ResponseWriter, r *http.Request, id core.Identity, notificationID string, err error) {
	fields := log.NewFields().WithIdentity(id.User.ID, "")
	fields[log.FieldNotificationID] = notificationID
	s.eventsFor(r.Context()).LogError(r.Context(), "Notification update failed", err,
		log.ComponentNotifications, log.OpMarkRead, fields)

	msg := "Could not update notifications. Please try again."
	if errors.Is(err, datastore.ErrNotFound) {
		msg = "Notification not found."
	}
	respondError(w, r, statusForError(err), msg)
}

func (s *Server) loadNotifications(ctx context.Context, id core.Identity, sess *session) notificationsPanel {
	if err := sess.feed.Load(ctx); err != nil {
		s.panelFailed(ctx, panelNotifications, id, err)
	}
	return s.notificationsView(sess)
}

func (s *Server) notificationsView(sess *session) notificationsPanel {
	snap := sess.feed.State()
	return notificationsPanel{
		Ready:  true,
		Failed: snap.Failed(),
		Items:  snap.Value,
		Unread: core.UnreadCount(snap.Value),
	}
}

func hasNotification(items []core.Notification, id string) bool {
	for _, n := range items {
		if n.ID == id {
			return true
		}
	}
	return false
}
