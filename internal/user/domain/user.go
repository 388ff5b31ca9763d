package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedBus "github.com/davicafu/crudlab/internal/shared/infra/platform/bus"
)

var ErrInvalidUser = errors.New("invalid user")

// User is a registered member of the collection program.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Pickups is hydrated by the "pickups" relation (batched secondary
	// select); empty unless a filter referenced the relation.
	Pickups []Pickup `json:"pickups,omitempty"`
}

func (u *User) PartitionKey() string {
	return u.ID.String()
}

// Pickup is the user-side projection of one oil pickup row. The pickup
// module owns the full entity; this projection exists so the two
// packages do not import each other.
type Pickup struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Liters      float64    `json:"liters"`
	Status      string     `json:"status"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// Static check
var _ sharedBus.Keyer = (*User)(nil)
