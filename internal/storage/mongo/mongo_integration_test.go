//go:build integration || !unit

package mongostore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"aircnc/internal/domain"
	mongostore "aircnc/internal/storage/mongo"
)

// startMongo runs a throwaway mongod and returns a connected repo.
func startMongo(t *testing.T) *mongostore.Repo {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7.0",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Skipf("run mongo: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	uri := fmt.Sprintf("mongodb://127.0.0.1:%s", resource.GetPort("27017/tcp"))
	var repo *mongostore.Repo
	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var e error
		repo, e = mongostore.Connect(ctx, uri, "airCncDb")
		return e
	}); err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return repo
}

func TestRepo_Mongo_RoomsUsersBookings(t *testing.T) {
	repo := startMongo(t)
	ctx := context.Background()

	// rooms
	ins, err := repo.InsertRoom(ctx, domain.Room{Title: "Loft", Price: 80, Host: domain.Host{Email: "h@x.com"}})
	if err != nil || !ins.Acknowledged || len(ins.InsertedID) != 24 {
		t.Fatalf("InsertRoom: %v %+v", err, ins)
	}
	for i := 0; i < 2; i++ {
		res, err := repo.SetRoomBooked(ctx, ins.InsertedID, true)
		if err != nil || res.MatchedCount != 1 {
			t.Fatalf("SetRoomBooked #%d: %v %+v", i, err, res)
		}
	}
	room, err := repo.GetRoom(ctx, ins.InsertedID)
	if err != nil || !room.Booked || room.ID != ins.InsertedID {
		t.Fatalf("GetRoom: %v %+v", err, room)
	}
	hosted, _ := repo.ListRoomsByHost(ctx, "h@x.com")
	if len(hosted) != 1 {
		t.Fatalf("ListRoomsByHost: %+v", hosted)
	}
	if _, err := repo.GetRoom(ctx, "not-hex"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("bad id: %v", err)
	}
	if _, err := repo.GetRoom(ctx, "65f0c0ffee0000000000beef"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing room: %v", err)
	}

	// users: upsert then partial update
	up, err := repo.UpsertUser(ctx, "h@x.com", domain.User{Role: domain.RoleHost, Name: "Hana"})
	if err != nil || up.UpsertedCount != 1 || up.UpsertedID == nil {
		t.Fatalf("UpsertUser insert: %v %+v", err, up)
	}
	up, err = repo.UpsertUser(ctx, "h@x.com", domain.User{Image: "a.png"})
	if err != nil || up.MatchedCount != 1 {
		t.Fatalf("UpsertUser update: %v %+v", err, up)
	}
	u, err := repo.GetUser(ctx, "h@x.com")
	if err != nil || u.Role != domain.RoleHost || u.Image != "a.png" {
		t.Fatalf("GetUser: %v %+v", err, u)
	}

	// bookings
	b := domain.Booking{
		Room:          domain.RoomRef{ID: ins.InsertedID, Title: "Loft"},
		Guest:         domain.Guest{Email: "g@x.com"},
		Host:          "h@x.com",
		TransactionID: "pi_1",
	}
	b1, _ := repo.InsertBooking(ctx, b)
	b2, _ := repo.InsertBooking(ctx, b)
	del, err := repo.DeleteBooking(ctx, b1.InsertedID)
	if err != nil || del.DeletedCount != 1 {
		t.Fatalf("DeleteBooking: %v %+v", err, del)
	}
	left, _ := repo.ListBookingsByGuest(ctx, "g@x.com")
	if len(left) != 1 || left[0].ID != b2.InsertedID {
		t.Fatalf("ListBookingsByGuest: %+v", left)
	}
	byHost, _ := repo.ListBookingsByHost(ctx, "h@x.com")
	if len(byHost) != 1 {
		t.Fatalf("ListBookingsByHost: %+v", byHost)
	}
	room, _ = repo.GetRoom(ctx, ins.InsertedID)
	if !room.Booked {
		t.Fatal("deleting a booking must not touch the room flag")
	}
}
