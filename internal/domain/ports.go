package domain

import (
	"context"
	"time"
)

type RoomRepository interface {
	// Write paths
	InsertRoom(ctx context.Context, r Room) (InsertResult, error)
	UpsertRoom(ctx context.Context, id string, r Room) (UpdateResult, error)
	DeleteRoom(ctx context.Context, id string) (DeleteResult, error)
	SetRoomBooked(ctx context.Context, id string, booked bool) (UpdateResult, error)

	// Read paths
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	ListRoomsByHost(ctx context.Context, email string) ([]Room, error)
}

type UserRepository interface {
	UpsertUser(ctx context.Context, email string, u User) (UpdateResult, error)
	GetUser(ctx context.Context, email string) (User, error)
}

type BookingRepository interface {
	InsertBooking(ctx context.Context, b Booking) (InsertResult, error)
	DeleteBooking(ctx context.Context, id string) (DeleteResult, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookingsByGuest(ctx context.Context, email string) ([]Booking, error)
	ListBookingsByHost(ctx context.Context, email string) ([]Booking, error)
}

// Store bundles the three collections behind one process-scoped connection.
type Store interface {
	RoomRepository
	UserRepository
	BookingRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Claim is the identity carried inside a bearer token.
type Claim struct {
	Email string `json:"email"`
}

type TokenService interface {
	Issue(c Claim) (string, error)
	Verify(token string) (Claim, error)
}

type PaymentIntent struct {
	ID           string
	Amount       int64
	Currency     string
	ClientSecret string
}

type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amount int64, currency string, methods []string) (PaymentIntent, error)
}

// Mail is one transactional email.
type Mail struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// Notifier hands mail off without waiting for delivery.
type Notifier interface {
	Dispatch(m Mail)
}

type Clock func() time.Time
