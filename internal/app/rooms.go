package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"aircnc/internal/domain"
)

const roomsAllKey = "rooms:all"

func roomKey(id string) string { return fmt.Sprintf("room:%s", id) }

// RoomService serves room reads through the cache and invalidates it on every write.
type RoomService struct {
	repo     domain.RoomRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewRoomService(r domain.RoomRepository, c domain.Cache, ttl time.Duration) *RoomService {
	return &RoomService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *RoomService) List(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	if s.cache != nil {
		if ok, err := s.cache.Get(ctx, roomsAllKey, &out); ok && err == nil {
			return out, nil
		}
	}
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	// copy so the cached value never aliases the repo's backing array
	out = append(make([]domain.Room, 0, len(rooms)), rooms...)
	if s.cache != nil {
		_ = s.cache.Set(ctx, roomsAllKey, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// Get returns nil without error when the room does not exist.
func (s *RoomService) Get(ctx context.Context, id string) (*domain.Room, error) {
	key := roomKey(id)
	var r domain.Room
	if s.cache != nil {
		if ok, err := s.cache.Get(ctx, key, &r); ok && err == nil {
			return &r, nil
		}
	}
	r, err := s.repo.GetRoom(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, r, int(s.cacheTTL.Seconds()))
	}
	return &r, nil
}

func (s *RoomService) ListByHost(ctx context.Context, email string) ([]domain.Room, error) {
	rooms, err := s.repo.ListRoomsByHost(ctx, email)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	return rooms, nil
}

// Create stores a new listing for host. The host email always comes from the
// authenticated caller, never from the body.
func (s *RoomService) Create(ctx context.Context, host string, r domain.Room) (domain.InsertResult, error) {
	if err := validateRoom(r); err != nil {
		return domain.InsertResult{}, err
	}
	r.ID = ""
	r.Host.Email = host
	r.Booked = false
	res, err := s.repo.InsertRoom(ctx, r)
	if err != nil {
		return domain.InsertResult{}, err
	}
	s.invalidate(ctx, res.InsertedID)
	return res, nil
}

// Upsert applies the non-empty fields of patch to room id. The availability
// flag and the host email never change here: an existing room keeps its own,
// a new room belongs to caller and starts available.
func (s *RoomService) Upsert(ctx context.Context, caller, id string, patch domain.Room) (domain.UpdateResult, error) {
	if strings.TrimSpace(id) == "" {
		return domain.UpdateResult{}, fmt.Errorf("room id is required: %w", domain.ErrInvalidRequest)
	}
	if patch.Price < 0 {
		return domain.UpdateResult{}, fmt.Errorf("price must not be negative: %w", domain.ErrInvalidRequest)
	}
	cur, err := s.repo.GetRoom(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		cur = domain.Room{Host: domain.Host{Email: caller}}
	case err != nil:
		return domain.UpdateResult{}, err
	}
	merged := mergeRoom(cur, patch)
	res, err := s.repo.UpsertRoom(ctx, id, merged)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	s.invalidate(ctx, id)
	return res, nil
}

func mergeRoom(cur, p domain.Room) domain.Room {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	str(&cur.Title, p.Title)
	str(&cur.Location, p.Location)
	str(&cur.Category, p.Category)
	str(&cur.Description, p.Description)
	str(&cur.Image, p.Image)
	str(&cur.From, p.From)
	str(&cur.To, p.To)
	str(&cur.Host.Name, p.Host.Name)
	str(&cur.Host.Image, p.Host.Image)
	num(&cur.Guests, p.Guests)
	num(&cur.Bedrooms, p.Bedrooms)
	num(&cur.Bathrooms, p.Bathrooms)
	if p.Price > 0 {
		cur.Price = p.Price
	}
	cur.ID = ""
	return cur
}

func (s *RoomService) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	res, err := s.repo.DeleteRoom(ctx, id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	s.invalidate(ctx, id)
	return res, nil
}

// SetStatus flips the availability flag. It is idempotent and independent of
// booking creation or deletion.
func (s *RoomService) SetStatus(ctx context.Context, id string, booked bool) (domain.UpdateResult, error) {
	res, err := s.repo.SetRoomBooked(ctx, id, booked)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	s.invalidate(ctx, id)
	return res, nil
}

// OwnedBy reports whether email is the listed host of room id.
func (s *RoomService) OwnedBy(ctx context.Context, id, email string) (bool, error) {
	return s.owned(ctx, id, email, false)
}

// EditableBy is OwnedBy except that an id with no room yet is free to claim.
func (s *RoomService) EditableBy(ctx context.Context, id, email string) (bool, error) {
	return s.owned(ctx, id, email, true)
}

func (s *RoomService) owned(ctx context.Context, id, email string, absentOK bool) (bool, error) {
	r, err := s.repo.GetRoom(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return absentOK, nil
	}
	if err != nil {
		return false, err
	}
	return strings.EqualFold(r.Host.Email, email), nil
}

func (s *RoomService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, roomsAllKey); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}
	if id != "" {
		if err := s.cache.Del(ctx, roomKey(id)); err != nil {
			log.Warn().Err(err).Str("room", id).Msg("cache invalidation failed")
		}
	}
}

func validateRoom(r domain.Room) error {
	if r.Price < 0 {
		return fmt.Errorf("price must not be negative: %w", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidRequest)
	}
	return nil
}
