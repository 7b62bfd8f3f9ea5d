package domain

type RoomRef struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Image    string `json:"image,omitempty"`
	Location string `json:"location,omitempty"`
}

type Guest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Booking is written once per confirmed payment and only ever deleted afterwards.
type Booking struct {
	ID            string  `json:"_id,omitempty"`
	Room          RoomRef `json:"room"`
	Guest         Guest   `json:"guest"`
	Host          string  `json:"host"`
	TransactionID string  `json:"transactionId"`
	Price         float64 `json:"price,omitempty"`
	From          string  `json:"from,omitempty"`
	To            string  `json:"to,omitempty"`
	Date          string  `json:"date,omitempty"`
}

// Result descriptors mirror the acknowledgement shape document stores reply with.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedCount int64   `json:"upsertedCount"`
	UpsertedID    *string `json:"upsertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
