package cache

import (
	"context"
	"testing"
	"time"

	"estate_crm_backend/internal/identity/repository"
	"estate_crm_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*ProfileCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, time.Minute, logger.New("development")), mr
}

func TestGetMissesOnEmptyCache(t *testing.T) {
	c, _ := newTestCache(t)

	if _, ok := c.Get(context.Background(), uuid.New()); ok {
		t.Fatal("expected cache miss on empty cache")
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	roleID := uuid.New()
	profile := repository.Profile{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Email:          "agent@example.com",
		FullName:       "Agent One",
		RoleID:         &roleID,
		RoleName:       "agent",
		Permissions:    []string{"view_all_leads", "edit_own_leads"},
		IsAvailable:    true,
	}

	c.Set(ctx, profile)

	got, ok := c.Get(ctx, profile.ID)
	if !ok {
		t.Fatal("expected cache hit after Set")
	}
	if got.Email != profile.Email || got.OrganizationID != profile.OrganizationID {
		t.Fatalf("cached profile mismatch: got %+v", got)
	}
	if len(got.Permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(got.Permissions))
	}
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	profile := repository.Profile{ID: uuid.New(), Email: "x@example.com"}
	c.Set(ctx, profile)
	c.Invalidate(ctx, profile.ID)

	if _, ok := c.Get(ctx, profile.ID); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestInvalidateRoleDropsOnlyMatchingProfiles(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	roleA := uuid.New()
	roleB := uuid.New()
	withA := repository.Profile{ID: uuid.New(), RoleID: &roleA}
	withB := repository.Profile{ID: uuid.New(), RoleID: &roleB}
	c.Set(ctx, withA)
	c.Set(ctx, withB)

	c.InvalidateRole(ctx, roleA)

	if _, ok := c.Get(ctx, withA.ID); ok {
		t.Fatal("profile with invalidated role should be dropped")
	}
	if _, ok := c.Get(ctx, withB.ID); !ok {
		t.Fatal("profile with other role should survive")
	}
}

func TestEntriesExpireWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	profile := repository.Profile{ID: uuid.New()}
	c.Set(ctx, profile)

	mr.FastForward(2 * time.Minute)

	if _, ok := c.Get(ctx, profile.ID); ok {
		t.Fatal("expected entry to expire after TTL")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *ProfileCache
	ctx := context.Background()

	c.Set(ctx, repository.Profile{ID: uuid.New()})
	c.Invalidate(ctx, uuid.New())
	if _, ok := c.Get(ctx, uuid.New()); ok {
		t.Fatal("nil cache must always miss")
	}
}
