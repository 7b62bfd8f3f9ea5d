package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"aircnc/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open connects with the mysql driver and verifies the server answers.
func Open(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return New(db), nil
}

func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error  { return r.db.PingContext(ctx) }
func (r *Repo) Close(ctx context.Context) error { return r.db.Close() }

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("id %q: %w", id, domain.ErrInvalidRequest)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

type scanner interface{ Scan(dest ...any) error }

// ---- rooms ----

func (r *Repo) InsertRoom(ctx context.Context, room domain.Room) (domain.InsertResult, error) {
	id := uuid.NewString()
	room.ID = ""
	doc, err := json.Marshal(room)
	if err != nil {
		return domain.InsertResult{}, err
	}
	if _, err := r.db.ExecContext(ctx, insertRoomSQL, id, room.Host.Email, room.Booked, string(doc)); err != nil {
		return domain.InsertResult{}, err
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (r *Repo) UpsertRoom(ctx context.Context, id string, room domain.Room) (domain.UpdateResult, error) {
	if err := checkID(id); err != nil {
		return domain.UpdateResult{}, err
	}
	room.ID = ""
	doc, err := json.Marshal(room)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := r.db.ExecContext(ctx, upsertRoomSQL, id, room.Host.Email, room.Booked, string(doc))
	if err != nil {
		return domain.UpdateResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.UpdateResult{}, err
	}
	switch n {
	case 1:
		return domain.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &id}, nil
	case 2:
		return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
	default:
		return domain.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
	}
}

func (r *Repo) DeleteRoom(ctx context.Context, id string) (domain.DeleteResult, error) {
	if err := checkID(id); err != nil {
		return domain.DeleteResult{}, err
	}
	return r.delete(ctx, deleteRoomSQL, id)
}

func (r *Repo) SetRoomBooked(ctx context.Context, id string, booked bool) (domain.UpdateResult, error) {
	if err := checkID(id); err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := r.db.ExecContext(ctx, setRoomBookedSQL, booked, id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.UpdateResult{}, err
	}
	if n > 0 {
		return domain.UpdateResult{Acknowledged: true, MatchedCount: n, ModifiedCount: n}, nil
	}
	// unchanged rows report 0 affected; tell "already set" from "missing"
	var matched int64
	if err := r.db.QueryRowContext(ctx, countRoomSQL, id).Scan(&matched); err != nil {
		return domain.UpdateResult{}, err
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: matched}, nil
}

func scanRoom(s scanner) (domain.Room, error) {
	var (
		id, host string
		booked   bool
		doc      []byte
	)
	if err := s.Scan(&id, &host, &booked, &doc); err != nil {
		return domain.Room{}, err
	}
	var room domain.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return domain.Room{}, fmt.Errorf("room %s: %w", id, err)
	}
	room.ID, room.Host.Email, room.Booked = id, host, booked
	return room, nil
}

func (r *Repo) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	if err := checkID(id); err != nil {
		return domain.Room{}, err
	}
	room, err := scanRoom(r.db.QueryRowContext(ctx, getRoomSQL, id))
	if err != nil {
		return domain.Room{}, notFound(err)
	}
	return room, nil
}

func (r *Repo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return r.queryRooms(ctx, listRoomsSQL)
}

func (r *Repo) ListRoomsByHost(ctx context.Context, email string) ([]domain.Room, error) {
	return r.queryRooms(ctx, listRoomsByHostSQL, email)
}

func (r *Repo) queryRooms(ctx context.Context, q string, args ...any) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// ---- users ----

func (r *Repo) UpsertUser(ctx context.Context, email string, u domain.User) (domain.UpdateResult, error) {
	res, err := r.db.ExecContext(ctx, upsertUserSQL, email, string(u.Role), u.Name, u.Image)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.UpdateResult{}, err
	}
	switch n {
	case 1:
		return domain.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &email}, nil
	case 2:
		return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
	default:
		return domain.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
	}
}

func (r *Repo) GetUser(ctx context.Context, email string) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := r.db.QueryRowContext(ctx, getUserSQL, email).Scan(&u.Email, &role, &u.Name, &u.Image); err != nil {
		return domain.User{}, notFound(err)
	}
	u.Role = domain.Role(role)
	return u, nil
}

// ---- bookings ----

func (r *Repo) InsertBooking(ctx context.Context, b domain.Booking) (domain.InsertResult, error) {
	id := uuid.NewString()
	b.ID = ""
	doc, err := json.Marshal(b)
	if err != nil {
		return domain.InsertResult{}, err
	}
	if _, err := r.db.ExecContext(ctx, insertBookingSQL, id, b.Guest.Email, b.Host, string(doc)); err != nil {
		return domain.InsertResult{}, err
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (r *Repo) DeleteBooking(ctx context.Context, id string) (domain.DeleteResult, error) {
	if err := checkID(id); err != nil {
		return domain.DeleteResult{}, err
	}
	return r.delete(ctx, deleteBookingSQL, id)
}

func scanBooking(s scanner) (domain.Booking, error) {
	var (
		id  string
		doc []byte
	)
	if err := s.Scan(&id, &doc); err != nil {
		return domain.Booking{}, err
	}
	var b domain.Booking
	if err := json.Unmarshal(doc, &b); err != nil {
		return domain.Booking{}, fmt.Errorf("booking %s: %w", id, err)
	}
	b.ID = id
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	if err := checkID(id); err != nil {
		return domain.Booking{}, err
	}
	b, err := scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
	if err != nil {
		return domain.Booking{}, notFound(err)
	}
	return b, nil
}

func (r *Repo) ListBookingsByGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.queryBookings(ctx, listBookingsByGuestSQL, email)
}

func (r *Repo) ListBookingsByHost(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.queryBookings(ctx, listBookingsByHostSQL, email)
}

func (r *Repo) queryBookings(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) delete(ctx context.Context, q, id string) (domain.DeleteResult, error) {
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

var _ domain.Store = (*Repo)(nil)
