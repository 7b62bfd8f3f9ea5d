package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog/log"

	"aircnc/internal/domain"
)

const (
	guestSubject = "Booking Successful!"
	hostSubject  = "Your room got booked!"
)

var mailTmpl = template.Must(template.New("booking").Parse(`<div>
<p>{{.Lead}}</p>
<p>Room: <b>{{.Room}}</b>{{if .Location}} ({{.Location}}){{end}}</p>
<p>Dates: {{.From}} to {{.To}}</p>
<p>Booking Id: {{.BookingID}}</p>
<p>Transaction Id: {{.TransactionID}}</p>
</div>`))

type mailView struct {
	Lead          string
	Room          string
	Location      string
	From, To      string
	BookingID     string
	TransactionID string
}

// BookingService persists bookings and notifies both parties afterwards.
// Room availability is never changed here; clients flip it through RoomService.SetStatus.
type BookingService struct {
	repo     domain.BookingRepository
	notifier domain.Notifier
}

func NewBookingService(r domain.BookingRepository, n domain.Notifier) *BookingService {
	return &BookingService{repo: r, notifier: n}
}

func (s *BookingService) Create(ctx context.Context, b domain.Booking) (domain.InsertResult, error) {
	if err := validateBooking(b); err != nil {
		return domain.InsertResult{}, err
	}
	b.ID = ""
	res, err := s.repo.InsertBooking(ctx, b)
	if err != nil {
		return domain.InsertResult{}, fmt.Errorf("insert booking: %w", err)
	}
	s.notify(b, res.InsertedID)
	return res, nil
}

func (s *BookingService) notify(b domain.Booking, id string) {
	if s.notifier == nil {
		return
	}
	v := mailView{
		Room:          b.Room.Title,
		Location:      b.Room.Location,
		From:          b.From,
		To:            b.To,
		BookingID:     id,
		TransactionID: b.TransactionID,
	}
	v.Lead = "Your booking is confirmed. Enjoy your stay."
	if html, err := render(v); err == nil {
		s.notifier.Dispatch(domain.Mail{To: b.Guest.Email, Subject: guestSubject, HTML: html})
	} else {
		log.Error().Err(err).Str("booking", id).Msg("render guest mail")
	}
	v.Lead = "A guest has booked your room. Get ready to welcome them."
	if html, err := render(v); err == nil {
		s.notifier.Dispatch(domain.Mail{To: b.Host, Subject: hostSubject, HTML: html})
	} else {
		log.Error().Err(err).Str("booking", id).Msg("render host mail")
	}
}

func render(v mailView) (string, error) {
	var buf bytes.Buffer
	if err := mailTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *BookingService) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	return s.repo.DeleteBooking(ctx, id)
}

// Get returns nil without error when the booking does not exist.
func (s *BookingService) Get(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BookedBy reports whether booking id was made by the guest with email.
func (s *BookingService) BookedBy(ctx context.Context, id, email string) (bool, error) {
	b, err := s.Get(ctx, id)
	if err != nil || b == nil {
		return false, err
	}
	return strings.EqualFold(b.Guest.Email, email), nil
}

func (s *BookingService) ListByGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	if strings.TrimSpace(email) == "" {
		return []domain.Booking{}, nil
	}
	return nonNil(s.repo.ListBookingsByGuest(ctx, email))
}

func (s *BookingService) ListByHost(ctx context.Context, email string) ([]domain.Booking, error) {
	if strings.TrimSpace(email) == "" {
		return []domain.Booking{}, nil
	}
	return nonNil(s.repo.ListBookingsByHost(ctx, email))
}

func nonNil(bs []domain.Booking, err error) ([]domain.Booking, error) {
	if err != nil {
		return nil, err
	}
	if bs == nil {
		bs = []domain.Booking{}
	}
	return bs, nil
}

func validateBooking(b domain.Booking) error {
	var missing []string
	if strings.TrimSpace(b.Room.ID) == "" {
		missing = append(missing, "room.id")
	}
	if strings.TrimSpace(b.Guest.Email) == "" {
		missing = append(missing, "guest.email")
	}
	if strings.TrimSpace(b.Host) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(b.TransactionID) == "" {
		missing = append(missing, "transactionId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), domain.ErrInvalidRequest)
	}
	return nil
}
