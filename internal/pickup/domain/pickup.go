package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedBus "github.com/davicafu/crudlab/internal/shared/infra/platform/bus"
)

var ErrInvalidPickup = errors.New("invalid pickup")

// Pickup statuses.
const (
	StatusRequested = "requested"
	StatusScheduled = "scheduled"
	StatusCollected = "collected"
	StatusCancelled = "cancelled"
)

// Pickup is one used-oil collection from a user.
type Pickup struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Liters      float64    `json:"liters"`
	Status      string     `json:"status"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Owner is hydrated by the "user" relation (left join); nil unless
	// a filter referenced the relation or the user row is gone.
	Owner *Owner `json:"owner,omitempty"`
}

func (p *Pickup) PartitionKey() string {
	return p.ID.String()
}

// Owner is the pickup-side projection of the owning user row.
type Owner struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// Static check
var _ sharedBus.Keyer = (*Pickup)(nil)
