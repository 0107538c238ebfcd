package models

type Role string

const (
	RoleSupplier Role = "supplier"
	RolePlant    Role = "plant"
	RoleAdmin    Role = "admin"
)

// User is the authenticated profile returned at login.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	SupplierID int64  `json:"supplier_id,omitempty"`
	PlantID    int64  `json:"plant_id,omitempty"`
	IsActive   bool   `json:"is_active"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
