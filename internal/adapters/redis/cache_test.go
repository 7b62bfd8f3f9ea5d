package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "aircnc/internal/adapters/redis"
	"aircnc/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var miss domain.Room
	ok, err := c.Get(ctx, "room:1", &miss)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := domain.Room{ID: "1", Title: "Loft", Price: 120.5, Host: domain.Host{Email: "h@x.com"}}
	if err := c.Set(ctx, "room:1", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out domain.Room
	ok, err = c.Get(ctx, "room:1", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if out.Title != "Loft" || out.Host.Email != "h@x.com" || out.Price != 120.5 {
		t.Fatalf("unexpected room: %+v", out)
	}

	if err := c.Del(ctx, "room:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("room:1") {
		t.Fatalf("key should be gone")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	if err := c.Set(ctx, "rooms:all", []domain.Room{{ID: "a"}}, 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(11 * time.Second)

	var out []domain.Room
	if ok, _ := c.Get(ctx, "rooms:all", &out); ok {
		t.Fatalf("expected expired entry")
	}
}
