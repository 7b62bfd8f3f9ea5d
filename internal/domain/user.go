package domain

type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
)

type User struct {
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}
