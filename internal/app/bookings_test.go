package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"aircnc/internal/app"
	"aircnc/internal/domain"
	"aircnc/internal/storage/memory"
)

func sampleBooking(roomID string) domain.Booking {
	return domain.Booking{
		Room:          domain.RoomRef{ID: roomID, Title: "Loft", Location: "Dhaka"},
		Guest:         domain.Guest{Name: "Gia", Email: "g@x.com"},
		Host:          "h@x.com",
		TransactionID: "pi_123",
		Price:         240,
		From:          "2024-05-01",
		To:            "2024-05-04",
	}
}

func TestCreateBooking_InsertsAndNotifiesBothParties(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	n := &recordingNotifier{}
	bookings := app.NewBookingService(store, n)

	res, err := bookings.Create(ctx, sampleBooking("R1"))
	if err != nil || !res.Acknowledged || res.InsertedID == "" {
		t.Fatalf("create: %v %+v", err, res)
	}
	stored, _ := store.ListBookingsByGuest(ctx, "g@x.com")
	if len(stored) != 1 {
		t.Fatalf("expected exactly one booking, got %d", len(stored))
	}

	mails := n.mails()
	if len(mails) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(mails))
	}
	byTo := map[string]domain.Mail{}
	for _, m := range mails {
		byTo[m.To] = m
	}
	if byTo["g@x.com"].Subject != "Booking Successful!" {
		t.Fatalf("guest mail: %+v", byTo["g@x.com"])
	}
	if byTo["h@x.com"].Subject != "Your room got booked!" {
		t.Fatalf("host mail: %+v", byTo["h@x.com"])
	}
	for _, m := range mails {
		if !strings.Contains(m.HTML, res.InsertedID) || !strings.Contains(m.HTML, "pi_123") {
			t.Fatalf("mail to %s lacks ids: %s", m.To, m.HTML)
		}
	}
}

func TestCreateBooking_MailerFailureDoesNotFailRequest(t *testing.T) {
	ctx := context.Background()
	mailer := &flakyMailer{fail: 1 << 30}
	d := app.NewDispatcher(mailer, 2, 100, time.Second).WithBackoff(func(int) time.Duration { return 0 })
	bookings := app.NewBookingService(memory.New(), d)

	res, err := bookings.Create(ctx, sampleBooking("R1"))
	if err != nil || res.InsertedID == "" {
		t.Fatalf("create should succeed regardless of mail: %v", err)
	}

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.Close(closeCtx); err != nil {
		t.Fatalf("close: %v", err)
	}
	calls, delivered := mailer.stats()
	if delivered != 0 || calls != 2*3 {
		t.Fatalf("expected 2 mails x 3 attempts, got calls=%d delivered=%d", calls, delivered)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	n := &recordingNotifier{}
	bookings := app.NewBookingService(memory.New(), n)

	cases := map[string]func(*domain.Booking){
		"no room":        func(b *domain.Booking) { b.Room.ID = "" },
		"no guest":       func(b *domain.Booking) { b.Guest.Email = "" },
		"no host":        func(b *domain.Booking) { b.Host = " " },
		"no transaction": func(b *domain.Booking) { b.TransactionID = "" },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			b := sampleBooking("R1")
			mut(&b)
			if _, err := bookings.Create(context.Background(), b); !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("want ErrInvalidRequest, got %v", err)
			}
		})
	}
	if len(n.mails()) != 0 {
		t.Fatal("rejected bookings must not notify")
	}
}

func TestCreateBooking_PersistFailureSkipsNotifications(t *testing.T) {
	n := &recordingNotifier{}
	bookings := app.NewBookingService(failingBookings{memory.New()}, n)
	if _, err := bookings.Create(context.Background(), sampleBooking("R1")); err == nil {
		t.Fatal("expected error")
	}
	if len(n.mails()) != 0 {
		t.Fatal("no notifications after a failed insert")
	}
}

func TestDeleteBooking_LeavesRoomFlagAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rooms := app.NewRoomService(store, nil, time.Minute)
	bookings := app.NewBookingService(store, &recordingNotifier{})

	room, _ := rooms.Create(ctx, "h@x.com", domain.Room{Title: "Loft"})
	_, _ = rooms.SetStatus(ctx, room.InsertedID, true)
	a, _ := bookings.Create(ctx, sampleBooking(room.InsertedID))
	b, _ := bookings.Create(ctx, sampleBooking(room.InsertedID))

	del, err := bookings.Delete(ctx, a.InsertedID)
	if err != nil || del.DeletedCount != 1 {
		t.Fatalf("delete: %v %+v", err, del)
	}
	left, _ := bookings.ListByGuest(ctx, "g@x.com")
	if len(left) != 1 || left[0].ID != b.InsertedID {
		t.Fatalf("only %s should remain: %+v", b.InsertedID, left)
	}
	r, _ := rooms.Get(ctx, room.InsertedID)
	if r == nil || !r.Booked {
		t.Fatalf("room flag must be untouched: %+v", r)
	}
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	bookings := app.NewBookingService(memory.New(), &recordingNotifier{})
	_, _ = bookings.Create(ctx, sampleBooking("R1"))

	empty, err := bookings.ListByGuest(ctx, "")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty email must yield []: %+v %v", empty, err)
	}
	hosted, _ := bookings.ListByHost(ctx, "h@x.com")
	if len(hosted) != 1 {
		t.Fatalf("host listing: %+v", hosted)
	}
	none, _ := bookings.ListByGuest(ctx, "nobody@x.com")
	if none == nil || len(none) != 0 {
		t.Fatalf("unknown guest must yield []: %+v", none)
	}
}
