package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"aircnc/internal/app"
	"aircnc/internal/domain"
	"aircnc/internal/storage/memory"
)

func TestListRooms_CacheMissThenHitThenInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := &countingRooms{RoomRepository: memory.New()}
	cache := &fakeCache{}
	rooms := app.NewRoomService(repo, cache, 10*time.Minute)

	if _, err := rooms.Create(ctx, "h@x.com", domain.Room{Title: "Loft", Price: 80}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Miss populates the cache
	out, err := rooms.List(ctx)
	if err != nil || len(out) != 1 {
		t.Fatalf("list: %v %+v", err, out)
	}
	// Hit
	if _, err := rooms.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lists != 1 {
		t.Fatalf("expected 1 repo read, got %d", repo.lists)
	}

	// A write drops rooms:all, so the next read goes to the repo
	if _, err := rooms.Create(ctx, "h@x.com", domain.Room{Title: "Cabin", Price: 120}); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, _ = rooms.List(ctx)
	if len(out) != 2 || repo.lists != 2 {
		t.Fatalf("expected fresh read with 2 rooms, got %d rooms / %d reads", len(out), repo.lists)
	}
}

func TestCreateRoom_HostFromCallerNotBody(t *testing.T) {
	ctx := context.Background()
	rooms := app.NewRoomService(memory.New(), nil, time.Minute)

	res, err := rooms.Create(ctx, "real@x.com", domain.Room{
		Title: "Loft", Host: domain.Host{Email: "spoof@x.com"}, Booked: true,
	})
	if err != nil || !res.Acknowledged || res.InsertedID == "" {
		t.Fatalf("create: %v %+v", err, res)
	}
	r, _ := rooms.Get(ctx, res.InsertedID)
	if r == nil || r.Host.Email != "real@x.com" || r.Booked {
		t.Fatalf("unexpected room: %+v", r)
	}
}

func TestCreateRoom_Invalid(t *testing.T) {
	rooms := app.NewRoomService(memory.New(), nil, time.Minute)
	for name, r := range map[string]domain.Room{
		"no title":       {Price: 10},
		"negative price": {Title: "x", Price: -1},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := rooms.Create(context.Background(), "h@x.com", r); !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("want ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestGetRoom_MissingIsNil(t *testing.T) {
	rooms := app.NewRoomService(memory.New(), &fakeCache{}, time.Minute)
	r, err := rooms.Get(context.Background(), "nope")
	if err != nil || r != nil {
		t.Fatalf("want nil,nil got %+v,%v", r, err)
	}
}

func TestSetStatus_Idempotent(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{}
	rooms := app.NewRoomService(memory.New(), cache, time.Minute)
	res, _ := rooms.Create(ctx, "h@x.com", domain.Room{Title: "Loft"})

	// warm the per-room entry
	if r, _ := rooms.Get(ctx, res.InsertedID); r == nil || r.Booked {
		t.Fatalf("unexpected room before status: %+v", r)
	}

	first, err := rooms.SetStatus(ctx, res.InsertedID, true)
	if err != nil || first.MatchedCount != 1 || first.ModifiedCount != 1 {
		t.Fatalf("first: %v %+v", err, first)
	}
	second, err := rooms.SetStatus(ctx, res.InsertedID, true)
	if err != nil || second.MatchedCount != 1 || second.ModifiedCount != 0 {
		t.Fatalf("second: %v %+v", err, second)
	}
	r, _ := rooms.Get(ctx, res.InsertedID)
	if r == nil || !r.Booked {
		t.Fatalf("room should be booked and cache refreshed: %+v", r)
	}
}

func TestDeleteRoom_Invalidates(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{}
	rooms := app.NewRoomService(memory.New(), cache, time.Minute)
	res, _ := rooms.Create(ctx, "h@x.com", domain.Room{Title: "Loft"})
	_, _ = rooms.Get(ctx, res.InsertedID)

	del, err := rooms.Delete(ctx, res.InsertedID)
	if err != nil || del.DeletedCount != 1 {
		t.Fatalf("delete: %v %+v", err, del)
	}
	if r, _ := rooms.Get(ctx, res.InsertedID); r != nil {
		t.Fatalf("deleted room still served: %+v", r)
	}
}

func TestOwnedBy(t *testing.T) {
	ctx := context.Background()
	rooms := app.NewRoomService(memory.New(), nil, time.Minute)
	res, _ := rooms.Create(ctx, "h@x.com", domain.Room{Title: "Loft"})

	if ok, _ := rooms.OwnedBy(ctx, res.InsertedID, "H@x.com"); !ok {
		t.Fatal("owner should match case-insensitively")
	}
	if ok, _ := rooms.OwnedBy(ctx, res.InsertedID, "g@x.com"); ok {
		t.Fatal("guest must not own the room")
	}
	if ok, err := rooms.OwnedBy(ctx, "missing", "h@x.com"); ok || err != nil {
		t.Fatalf("missing room: %v %v", ok, err)
	}
}

func TestUpsertRoom_PatchKeepsFlagAndHost(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{}
	rooms := app.NewRoomService(memory.New(), cache, time.Minute)
	res, _ := rooms.Create(ctx, "h@x.com", domain.Room{Title: "Loft", Location: "Oslo", Price: 50, Guests: 2})
	id := res.InsertedID
	if _, err := rooms.SetStatus(ctx, id, true); err != nil {
		t.Fatalf("status: %v", err)
	}
	_, _ = rooms.Get(ctx, id)

	up, err := rooms.Upsert(ctx, "h@x.com", id, domain.Room{
		Title: "Loft v2", Host: domain.Host{Email: "mallory@x.com", Name: "Hana"},
	})
	if err != nil || up.MatchedCount != 1 || up.ModifiedCount != 1 || up.UpsertedID != nil {
		t.Fatalf("upsert: %v %+v", err, up)
	}
	r, _ := rooms.Get(ctx, id)
	if r == nil {
		t.Fatal("room vanished")
	}
	if r.Title != "Loft v2" || r.Location != "Oslo" || r.Price != 50 || r.Guests != 2 || r.Host.Name != "Hana" {
		t.Fatalf("fields not merged: %+v", r)
	}
	if !r.Booked {
		t.Fatal("upsert must not reset the availability flag")
	}
	if r.Host.Email != "h@x.com" {
		t.Fatalf("host reassigned to %q", r.Host.Email)
	}
}

func TestUpsertRoom_NewIDBelongsToCaller(t *testing.T) {
	ctx := context.Background()
	rooms := app.NewRoomService(memory.New(), nil, time.Minute)

	up, err := rooms.Upsert(ctx, "h@x.com", "fresh-room", domain.Room{
		Title: "Cabin", Price: 70, Booked: true, Host: domain.Host{Email: "other@x.com"},
	})
	if err != nil || up.UpsertedCount != 1 || up.UpsertedID == nil || *up.UpsertedID != "fresh-room" {
		t.Fatalf("upsert: %v %+v", err, up)
	}
	r, _ := rooms.Get(ctx, "fresh-room")
	if r == nil || r.Host.Email != "h@x.com" || r.Booked || r.Price != 70 {
		t.Fatalf("unexpected new room: %+v", r)
	}
	if ok, _ := rooms.EditableBy(ctx, "fresh-room", "other@x.com"); ok {
		t.Fatal("body email must not grant ownership")
	}
	if ok, _ := rooms.EditableBy(ctx, "still-free", "other@x.com"); !ok {
		t.Fatal("an unused id is free to claim")
	}
}

func TestUpsertRoom_Invalid(t *testing.T) {
	rooms := app.NewRoomService(memory.New(), nil, time.Minute)
	for name, c := range map[string]struct {
		id    string
		patch domain.Room
	}{
		"blank id":       {id: " ", patch: domain.Room{Title: "x"}},
		"negative price": {id: "r1", patch: domain.Room{Price: -5}},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := rooms.Upsert(context.Background(), "h@x.com", c.id, c.patch); !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("want ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestUsers_UpsertGetIsHost(t *testing.T) {
	ctx := context.Background()
	users := app.NewUserService(memory.New())

	if u, err := users.Get(ctx, "h@x.com"); u != nil || err != nil {
		t.Fatalf("absent user: %+v %v", u, err)
	}
	if _, err := users.Upsert(ctx, "h@x.com", domain.User{Role: domain.RoleHost, Name: "Hana"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ok, _ := users.IsHost(ctx, "h@x.com"); !ok {
		t.Fatal("expected host")
	}
	if ok, _ := users.IsHost(ctx, "g@x.com"); ok {
		t.Fatal("missing user is not a host")
	}
	if _, err := users.Upsert(ctx, "x@x.com", domain.User{Role: "admin"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
}
