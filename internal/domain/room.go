package domain

type Host struct {
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Email string `json:"email"`
}

type Room struct {
	ID          string  `json:"_id,omitempty"`
	Title       string  `json:"title,omitempty"`
	Location    string  `json:"location,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Price       float64 `json:"price"`
	Guests      int     `json:"guests,omitempty"`
	Bedrooms    int     `json:"bedrooms,omitempty"`
	Bathrooms   int     `json:"bathrooms,omitempty"`
	From        string  `json:"from,omitempty"`
	To          string  `json:"to,omitempty"`
	Host        Host    `json:"host"`
	Booked      bool    `json:"booked"`
}
