// Package memory is a process-local Store used for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"aircnc/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	rooms    map[string]domain.Room
	roomIDs  []string
	users    map[string]domain.User
	bookings map[string]domain.Booking
	bookIDs  []string
}

func New() *Store {
	return &Store{
		rooms:    map[string]domain.Room{},
		users:    map[string]domain.User{},
		bookings: map[string]domain.Booking{},
	}
}

func (s *Store) Ping(ctx context.Context) error  { return ctx.Err() }
func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) InsertRoom(ctx context.Context, r domain.Room) (domain.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	s.rooms[r.ID] = r
	s.roomIDs = append(s.roomIDs, r.ID)
	return domain.InsertResult{Acknowledged: true, InsertedID: r.ID}, nil
}

func (s *Store) UpsertRoom(ctx context.Context, id string, r domain.Room) (domain.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = id
	old, ok := s.rooms[id]
	s.rooms[id] = r
	if !ok {
		s.roomIDs = append(s.roomIDs, id)
		return domain.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &id}, nil
	}
	res := domain.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if old != r {
		res.ModifiedCount = 1
	}
	return res, nil
}

func (s *Store) DeleteRoom(ctx context.Context, id string) (domain.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return domain.DeleteResult{Acknowledged: true}, nil
	}
	delete(s.rooms, id)
	s.roomIDs = without(s.roomIDs, id)
	return domain.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (s *Store) SetRoomBooked(ctx context.Context, id string, booked bool) (domain.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.UpdateResult{Acknowledged: true}, nil
	}
	res := domain.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if r.Booked != booked {
		r.Booked = booked
		s.rooms[id] = r
		res.ModifiedCount = 1
	}
	return res, nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.filterRooms(func(domain.Room) bool { return true }), nil
}

func (s *Store) ListRoomsByHost(ctx context.Context, email string) ([]domain.Room, error) {
	return s.filterRooms(func(r domain.Room) bool { return r.Host.Email == email }), nil
}

func (s *Store) filterRooms(keep func(domain.Room) bool) []domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Room{}
	for _, id := range s.roomIDs {
		if r := s.rooms[id]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) UpsertUser(ctx context.Context, email string, u domain.User) (domain.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	old, ok := s.users[key]
	if !ok {
		s.users[key] = u
		return domain.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &email}, nil
	}
	// fields absent from the update keep their stored values
	merged := old
	if u.Role != "" {
		merged.Role = u.Role
	}
	if u.Name != "" {
		merged.Name = u.Name
	}
	if u.Image != "" {
		merged.Image = u.Image
	}
	merged.Email = email
	s.users[key] = merged
	res := domain.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if merged != old {
		res.ModifiedCount = 1
	}
	return res, nil
}

func (s *Store) GetUser(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) InsertBooking(ctx context.Context, b domain.Booking) (domain.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = uuid.NewString()
	s.bookings[b.ID] = b
	s.bookIDs = append(s.bookIDs, b.ID)
	return domain.InsertResult{Acknowledged: true, InsertedID: b.ID}, nil
}

func (s *Store) DeleteBooking(ctx context.Context, id string) (domain.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return domain.DeleteResult{Acknowledged: true}, nil
	}
	delete(s.bookings, id)
	s.bookIDs = without(s.bookIDs, id)
	return domain.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBookingsByGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	return s.filterBookings(func(b domain.Booking) bool { return b.Guest.Email == email }), nil
}

func (s *Store) ListBookingsByHost(ctx context.Context, email string) ([]domain.Booking, error) {
	return s.filterBookings(func(b domain.Booking) bool { return b.Host == email }), nil
}

func (s *Store) filterBookings(keep func(domain.Booking) bool) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Booking{}
	for _, id := range s.bookIDs {
		if b := s.bookings[id]; keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

var _ domain.Store = (*Store)(nil)
