package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------- DTO triple ----------------

// UserDTO is the read shape handed to front-end collaborators.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Pickups   []Pickup  `json:"pickups,omitempty"`
}

// UserCreate declares the only fields a caller may set on creation;
// identifier and timestamps are generated server-side.
type UserCreate struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role"`
}

// UserUpdate uses pointer fields: nil means "leave untouched", so a
// partial update never nulls out fields the caller did not mention.
type UserUpdate struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
	Role  *string `json:"role,omitempty"`
}

// ---------------- Mapper ----------------

// UserMapper translates between the entity and its DTO triple.
type UserMapper struct{}

// ToDTO validates the persisted row against the DTO's invariants. A row
// without email predates the email requirement and is rejected, which
// is what drives the tolerant list-mapping path.
func (UserMapper) ToDTO(u *User) (*UserDTO, error) {
	if u.Email == "" {
		return nil, fmt.Errorf("%w: user %s has no email", ErrInvalidUser, u.ID)
	}
	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		Pickups:   u.Pickups,
	}, nil
}

func (UserMapper) ToMap(u *User) map[string]any {
	return map[string]any{
		"id":         u.ID.String(),
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func (UserMapper) Key(d *UserDTO) string { return d.ID.String() }

func (UserMapper) CreateData(c *UserCreate) map[string]any {
	return map[string]any{
		"email": c.Email,
		"name":  c.Name,
		"role":  c.Role,
	}
}

func (UserMapper) UpdateData(u *UserUpdate) map[string]any {
	data := make(map[string]any)
	if u.Email != nil {
		data["email"] = *u.Email
	}
	if u.Name != nil {
		data["name"] = *u.Name
	}
	if u.Role != nil {
		data["role"] = *u.Role
	}
	return data
}
