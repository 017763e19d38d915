package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
	"chapterhub/internal/datastore/memory"
)

func seededStore() *memory.Store {
	s := memory.New()
	s.Load(memory.Seed{
		Users:    []core.User{{ID: "u1", Name: "Alex", Tier: core.TierFree}, {ID: "u2", Name: "Sam"}},
		Chapters: []core.Chapter{{ID: "c1", SchoolName: "State"}},
		Roles:    []core.Role{{ID: "r1", Name: "President"}},
	})
	s.AddMember("u1", "c1", "r1")
	return s
}

type countingStore struct {
	*memory.Store
	userCalls int
	failRole  error
}

func (c *countingStore) GetUser(ctx context.Context, id string) (core.User, error) {
	c.userCalls++
	return c.Store.GetUser(ctx, id)
}

func (c *countingStore) GetRole(ctx context.Context, id string) (core.Role, error) {
	if c.failRole != nil {
		return core.Role{}, c.failRole
	}
	return c.Store.GetRole(ctx, id)
}

func TestResolver_Complete(t *testing.T) {
	store := &countingStore{Store: seededStore()}
	r := NewResolver(store, 10, time.Minute)

	id, err := r.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !id.Complete() || id.Chapter.ID != "c1" || id.Role.Name != "President" {
		t.Fatalf("identity = %+v", id)
	}

	if _, err := r.Resolve(context.Background(), "u1"); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if store.userCalls != 1 {
		t.Fatalf("user loaded %d times, want 1 (cached)", store.userCalls)
	}
}

func TestResolver_MissingPartsAreNotErrors(t *testing.T) {
	r := NewResolver(seededStore(), 10, time.Minute)

	tests := []struct {
		name     string
		userID   string
		wantUser bool
	}{
		{"anonymous", "", false},
		{"unknown user", "ghost", false},
		{"no membership", "u2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := r.Resolve(context.Background(), tt.userID)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if id.Complete() {
				t.Fatal("identity should be incomplete")
			}
			if (id.User != nil) != tt.wantUser {
				t.Fatalf("user present = %v, want %v", id.User != nil, tt.wantUser)
			}
		})
	}
	if r.Cache().Size() != 0 {
		t.Fatal("incomplete identities must not be cached")
	}
}

func TestResolver_StoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewResolver(&countingStore{Store: seededStore(), failRole: boom}, 10, time.Minute)

	_, err := r.Resolve(context.Background(), "u1")
	if !errors.Is(err, datastore.ErrTransient) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want transient wrapping boom", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if id := FromContext(context.Background()); id.User != nil {
		t.Fatal("expected zero identity")
	}
	u := core.User{ID: "u1"}
	ctx := WithIdentity(context.Background(), core.Identity{User: &u})
	if got := FromContext(ctx); got.User == nil || got.User.ID != "u1" {
		t.Fatalf("FromContext = %+v", got)
	}
}

func TestMiddleware(t *testing.T) {
	r := NewResolver(seededStore(), 8, time.Minute)
	var got core.Identity
	h := Middleware(r, "u2")(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = FromContext(req.Context())
	}))

	tests := []struct {
		name     string
		header   string
		wantUser string
		complete bool
	}{
		{"header", "u1", "u1", true},
		{"fallback", "", "u2", false},
		{"unknown", "nobody", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = core.Identity{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			var user string
			if got.User != nil {
				user = got.User.ID
			}
			if user != tt.wantUser || got.Complete() != tt.complete {
				t.Fatalf("identity user=%q complete=%v, want %q %v", user, got.Complete(), tt.wantUser, tt.complete)
			}
		})
	}
}
