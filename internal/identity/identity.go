// Package identity resolves the user/chapter/role triple for a request and
// carries it on the context.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"chapterhub/internal/cache"
	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id core.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity. The zero
// Identity is returned when none is present.
func FromContext(ctx context.Context) core.Identity {
	id, _ := ctx.Value(ctxKey{}).(core.Identity)
	return id
}

// Resolver loads identities from the store, caching complete ones.
type Resolver struct {
	store datastore.IdentityReader
	cache *cache.LRUCache[core.Identity]
}

func NewResolver(store datastore.IdentityReader, size int, ttl time.Duration) *Resolver {
	return &Resolver{
		store: store,
		cache: cache.NewLRUCache[core.Identity](size, ttl),
	}
}

// Cache exposes the underlying cache so it can be registered for cleanup.
func (r *Resolver) Cache() *cache.LRUCache[core.Identity] {
	return r.cache
}

// Resolve loads the user, then the chapter and role concurrently. Missing
// rows leave the matching pointer nil; they are not errors. Only other
// store failures are returned.
func (r *Resolver) Resolve(ctx context.Context, userID string) (core.Identity, error) {
	if userID == "" {
		return core.Identity{}, nil
	}
	if id, ok := r.cache.Get(userID); ok {
		return id, nil
	}

	var id core.Identity
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return core.Identity{}, nil
		}
		return core.Identity{}, fmt.Errorf("%w: load user: %w", datastore.ErrTransient, err)
	}
	id.User = &user

	chapterID, roleID, err := r.store.Membership(ctx, userID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return id, nil
		}
		return core.Identity{}, fmt.Errorf("%w: load membership: %w", datastore.ErrTransient, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := r.store.GetChapter(gctx, chapterID)
		if errors.Is(err, datastore.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load chapter: %w", err)
		}
		id.Chapter = &c
		return nil
	})
	g.Go(func() error {
		role, err := r.store.GetRole(gctx, roleID)
		if errors.Is(err, datastore.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load role: %w", err)
		}
		id.Role = &role
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Identity{}, fmt.Errorf("%w: %w", datastore.ErrTransient, err)
	}

	if id.Complete() {
		r.cache.Set(userID, id)
	} else {
		slog.WarnContext(ctx, "Identity incomplete", "user_id", userID,
			"has_chapter", id.Chapter != nil, "has_role", id.Role != nil)
	}
	return id, nil
}
