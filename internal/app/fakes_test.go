package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"aircnc/internal/domain"
)

// ---- fakes ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

// recordingNotifier captures dispatched mail synchronously.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Mail
}

func (n *recordingNotifier) Dispatch(m domain.Mail) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
}

func (n *recordingNotifier) mails() []domain.Mail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Mail(nil), n.sent...)
}

// flakyMailer fails the first `fail` sends, then succeeds.
type flakyMailer struct {
	mu    sync.Mutex
	fail  int
	calls int
	got   []domain.Mail
}

var errRelay = errors.New("relay down")

func (m *flakyMailer) Send(ctx context.Context, mail domain.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.fail {
		return errRelay
	}
	m.got = append(m.got, mail)
	return nil
}

func (m *flakyMailer) stats() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, len(m.got)
}

type fakeProcessor struct {
	amount   int64
	currency string
	methods  []string
	err      error
}

func (p *fakeProcessor) CreateIntent(ctx context.Context, amount int64, currency string, methods []string) (domain.PaymentIntent, error) {
	p.amount, p.currency, p.methods = amount, currency, methods
	if p.err != nil {
		return domain.PaymentIntent{}, p.err
	}
	return domain.PaymentIntent{ID: "pi_1", Amount: amount, Currency: currency, ClientSecret: "pi_1_secret"}, nil
}

// countingRooms wraps a RoomRepository and counts reads.
type countingRooms struct {
	domain.RoomRepository
	lists, gets int
}

func (c *countingRooms) ListRooms(ctx context.Context) ([]domain.Room, error) {
	c.lists++
	return c.RoomRepository.ListRooms(ctx)
}

func (c *countingRooms) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	c.gets++
	return c.RoomRepository.GetRoom(ctx, id)
}

type failingBookings struct {
	domain.BookingRepository
}

func (failingBookings) InsertBooking(ctx context.Context, b domain.Booking) (domain.InsertResult, error) {
	return domain.InsertResult{}, errors.New("disk full")
}
