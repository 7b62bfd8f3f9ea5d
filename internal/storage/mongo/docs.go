package mongostore

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"aircnc/internal/domain"
)

type hostDoc struct {
	Name  string `bson:"name,omitempty"`
	Image string `bson:"image,omitempty"`
	Email string `bson:"email"`
}

type roomDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title,omitempty"`
	Location    string             `bson:"location,omitempty"`
	Category    string             `bson:"category,omitempty"`
	Description string             `bson:"description,omitempty"`
	Image       string             `bson:"image,omitempty"`
	Price       float64            `bson:"price"`
	Guests      int                `bson:"guests,omitempty"`
	Bedrooms    int                `bson:"bedrooms,omitempty"`
	Bathrooms   int                `bson:"bathrooms,omitempty"`
	From        string             `bson:"from,omitempty"`
	To          string             `bson:"to,omitempty"`
	Host        hostDoc            `bson:"host"`
	Booked      bool               `bson:"booked"`
}

func toRoomDoc(r domain.Room) roomDoc {
	return roomDoc{
		Title: r.Title, Location: r.Location, Category: r.Category,
		Description: r.Description, Image: r.Image, Price: r.Price,
		Guests: r.Guests, Bedrooms: r.Bedrooms, Bathrooms: r.Bathrooms,
		From: r.From, To: r.To,
		Host:   hostDoc{Name: r.Host.Name, Image: r.Host.Image, Email: r.Host.Email},
		Booked: r.Booked,
	}
}

func (d roomDoc) domain() domain.Room {
	return domain.Room{
		ID: d.ID.Hex(), Title: d.Title, Location: d.Location, Category: d.Category,
		Description: d.Description, Image: d.Image, Price: d.Price,
		Guests: d.Guests, Bedrooms: d.Bedrooms, Bathrooms: d.Bathrooms,
		From: d.From, To: d.To,
		Host:   domain.Host{Name: d.Host.Name, Image: d.Host.Image, Email: d.Host.Email},
		Booked: d.Booked,
	}
}

type userDoc struct {
	Email string `bson:"email"`
	Role  string `bson:"role,omitempty"`
	Name  string `bson:"name,omitempty"`
	Image string `bson:"image,omitempty"`
}

func (d userDoc) domain() domain.User {
	return domain.User{Email: d.Email, Role: domain.Role(d.Role), Name: d.Name, Image: d.Image}
}

type roomRefDoc struct {
	ID       string `bson:"id"`
	Title    string `bson:"title,omitempty"`
	Image    string `bson:"image,omitempty"`
	Location string `bson:"location,omitempty"`
}

type guestDoc struct {
	Name  string `bson:"name,omitempty"`
	Email string `bson:"email"`
	Image string `bson:"image,omitempty"`
}

type bookingDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Room          roomRefDoc         `bson:"room"`
	Guest         guestDoc           `bson:"guest"`
	Host          string             `bson:"host"`
	TransactionID string             `bson:"transactionId"`
	Price         float64            `bson:"price,omitempty"`
	From          string             `bson:"from,omitempty"`
	To            string             `bson:"to,omitempty"`
	Date          string             `bson:"date,omitempty"`
}

func toBookingDoc(b domain.Booking) bookingDoc {
	return bookingDoc{
		Room:          roomRefDoc{ID: b.Room.ID, Title: b.Room.Title, Image: b.Room.Image, Location: b.Room.Location},
		Guest:         guestDoc{Name: b.Guest.Name, Email: b.Guest.Email, Image: b.Guest.Image},
		Host:          b.Host,
		TransactionID: b.TransactionID,
		Price:         b.Price,
		From:          b.From,
		To:            b.To,
		Date:          b.Date,
	}
}

func (d bookingDoc) domain() domain.Booking {
	return domain.Booking{
		ID:            d.ID.Hex(),
		Room:          domain.RoomRef{ID: d.Room.ID, Title: d.Room.Title, Image: d.Room.Image, Location: d.Room.Location},
		Guest:         domain.Guest{Name: d.Guest.Name, Email: d.Guest.Email, Image: d.Guest.Image},
		Host:          d.Host,
		TransactionID: d.TransactionID,
		Price:         d.Price,
		From:          d.From,
		To:            d.To,
		Date:          d.Date,
	}
}
