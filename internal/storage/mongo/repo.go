// Package mongostore stores rooms, users and bookings as documents in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aircnc/internal/domain"
)

const (
	roomsColl    = "rooms"
	usersColl    = "users"
	bookingsColl = "bookings"
)

type Repo struct {
	client   *mongo.Client
	rooms    *mongo.Collection
	users    *mongo.Collection
	bookings *mongo.Collection
}

// Connect dials uri and verifies the deployment is reachable.
func Connect(ctx context.Context, uri, db string) (*Repo, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return New(client, db), nil
}

func New(client *mongo.Client, db string) *Repo {
	d := client.Database(db)
	return &Repo{
		client:   client,
		rooms:    d.Collection(roomsColl),
		users:    d.Collection(usersColl),
		bookings: d.Collection(bookingsColl),
	}
}

// EnsureIndexes creates the lookup indexes used by the list queries.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	if _, err := r.rooms.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "host.email", Value: 1}}}); err != nil {
		return err
	}
	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := r.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "guest.email", Value: 1}}},
		{Keys: bson.D{{Key: "host", Value: 1}}},
	})
	return err
}

func (r *Repo) Ping(ctx context.Context) error  { return r.client.Ping(ctx, nil) }
func (r *Repo) Close(ctx context.Context) error { return r.client.Disconnect(ctx) }

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("id %q: %w", id, domain.ErrInvalidRequest)
	}
	return oid, nil
}

func insertResult(res *mongo.InsertOneResult) domain.InsertResult {
	out := domain.InsertResult{Acknowledged: true}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		out.InsertedID = oid.Hex()
	}
	return out
}

func updateResult(res *mongo.UpdateResult) domain.UpdateResult {
	out := domain.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	switch v := res.UpsertedID.(type) {
	case primitive.ObjectID:
		s := v.Hex()
		out.UpsertedID = &s
	case string:
		out.UpsertedID = &v
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}

// ---- rooms ----

func (r *Repo) InsertRoom(ctx context.Context, room domain.Room) (domain.InsertResult, error) {
	res, err := r.rooms.InsertOne(ctx, toRoomDoc(room))
	if err != nil {
		return domain.InsertResult{}, err
	}
	return insertResult(res), nil
}

func (r *Repo) UpsertRoom(ctx context.Context, id string, room domain.Room) (domain.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := r.rooms.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": toRoomDoc(room)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return updateResult(res), nil
}

func (r *Repo) DeleteRoom(ctx context.Context, id string) (domain.DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	res, err := r.rooms.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *Repo) SetRoomBooked(ctx context.Context, id string, booked bool) (domain.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := r.rooms.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"booked": booked}})
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return updateResult(res), nil
}

func (r *Repo) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Room{}, err
	}
	var d roomDoc
	if err := r.rooms.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return domain.Room{}, notFound(err)
	}
	return d.domain(), nil
}

func (r *Repo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return r.findRooms(ctx, bson.M{})
}

func (r *Repo) ListRoomsByHost(ctx context.Context, email string) ([]domain.Room, error) {
	return r.findRooms(ctx, bson.M{"host.email": email})
}

func (r *Repo) findRooms(ctx context.Context, filter bson.M) ([]domain.Room, error) {
	cur, err := r.rooms.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []roomDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

// ---- users ----

// UpsertUser sets only the non-empty fields so a partial profile update keeps the rest.
func (r *Repo) UpsertUser(ctx context.Context, email string, u domain.User) (domain.UpdateResult, error) {
	set := bson.M{"email": email}
	if u.Role != "" {
		set["role"] = string(u.Role)
	}
	if u.Name != "" {
		set["name"] = u.Name
	}
	if u.Image != "" {
		set["image"] = u.Image
	}
	res, err := r.users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return updateResult(res), nil
}

func (r *Repo) GetUser(ctx context.Context, email string) (domain.User, error) {
	var d userDoc
	if err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&d); err != nil {
		return domain.User{}, notFound(err)
	}
	return d.domain(), nil
}

// ---- bookings ----

func (r *Repo) InsertBooking(ctx context.Context, b domain.Booking) (domain.InsertResult, error) {
	res, err := r.bookings.InsertOne(ctx, toBookingDoc(b))
	if err != nil {
		return domain.InsertResult{}, err
	}
	return insertResult(res), nil
}

func (r *Repo) DeleteBooking(ctx context.Context, id string) (domain.DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	res, err := r.bookings.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Booking{}, err
	}
	var d bookingDoc
	if err := r.bookings.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return domain.Booking{}, notFound(err)
	}
	return d.domain(), nil
}

func (r *Repo) ListBookingsByGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.findBookings(ctx, bson.M{"guest.email": email})
}

func (r *Repo) ListBookingsByHost(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.findBookings(ctx, bson.M{"host": email})
}

func (r *Repo) findBookings(ctx context.Context, filter bson.M) ([]domain.Booking, error) {
	cur, err := r.bookings.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []bookingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

var _ domain.Store = (*Repo)(nil)
